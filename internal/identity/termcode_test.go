package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTerminalCode(t *testing.T) {
	assert.True(t, ValidTerminalCode("TRA"))
	assert.True(t, ValidTerminalCode("LAB1"))
	assert.True(t, ValidTerminalCode("0000"))
	assert.False(t, ValidTerminalCode("TR"))
	assert.False(t, ValidTerminalCode("TRAAB"))
	assert.False(t, ValidTerminalCode("tra"))
	assert.False(t, ValidTerminalCode("TR-1"))
	assert.False(t, ValidTerminalCode(""))
}

func TestNormalizeTerminalCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"tra", "TRA", true},
		{" lab1 ", "LAB1", true},
		{"Lab One", "LABO", true},
		{"Terminal Norte", "TERM", true},
		{"La", "", false},
		{"12", "", false},
		{"", "", false},
		{"  -  ", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeTerminalCode(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			assert.Equal(t, c.want, got, "input %q", c.in)
			assert.True(t, ValidTerminalCode(got))
		}
	}
}

func TestFallbackCodes(t *testing.T) {
	codes := FallbackCodes()
	require.NotEmpty(t, codes)

	assert.Equal(t, "TRA", codes[0])
	assert.Equal(t, "TRZ", codes[25])
	assert.Equal(t, "TAA", codes[26])

	seen := map[string]bool{}
	for _, c := range codes {
		assert.True(t, ValidTerminalCode(c), "fallback %q must be a valid code", c)
		assert.False(t, seen[c], "fallback %q repeated", c)
		seen[c] = true
	}
}
