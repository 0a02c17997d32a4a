package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: 4}

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, h.Verify(hash, "s3cret"))
	assert.False(t, h.Verify(hash, "S3cret"))
	assert.False(t, h.Verify("not-a-bcrypt-hash", "s3cret"))
}

func TestBcryptHasherSaltsEachHash(t *testing.T) {
	h := BcryptHasher{Cost: 4}

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashRefreshToken(t *testing.T) {
	a := HashRefreshToken("token-a")
	b := HashRefreshToken("token-a")
	c := HashRefreshToken("token-b")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex-encoded sha256
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	_, err := ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("AUTH_SECRET", "k")
	t.Setenv("AUTH_ISSUER", "")
	t.Setenv("AUTH_ACCESS_TTL_MINUTES", "")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "termlab", cfg.Issuer)
	assert.Equal(t, "15m0s", cfg.AccessTTL.String())

	t.Setenv("AUTH_ACCESS_TTL_MINUTES", "60")
	cfg, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "1h0m0s", cfg.AccessTTL.String())
}
