package identity

import (
	"regexp"
	"strings"
)

// terminal codes are 3 or 4 uppercase alphanumerics
var terminalCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)

// ValidTerminalCode reports whether s already satisfies the code pattern.
func ValidTerminalCode(s string) bool {
	return terminalCodePattern.MatchString(s)
}

// NormalizeTerminalCode turns an arbitrary string into a terminal code, or
// returns false when no code can be derived. Upper-cases and trims first; a
// string that already matches passes through. Otherwise everything outside
// A-Z is stripped and the remainder truncated to 4 runes, accepted only when
// 3 or 4 remain.
func NormalizeTerminalCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if terminalCodePattern.MatchString(s) {
		return s, true
	}
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
		if b.Len() == 4 {
			break
		}
	}
	if b.Len() < 3 {
		return "", false
	}
	return b.String(), true
}

// FallbackCodes yields the deterministic allocation sequence used when a
// terminal name produces no usable code or the derived code is taken:
// TRA..TRZ, then TAA, TAB, .. walking the 26x26 grid.
func FallbackCodes() []string {
	codes := make([]string, 0, 26+26*26)
	for c := byte('A'); c <= 'Z'; c++ {
		codes = append(codes, "TR"+string(c))
	}
	for c1 := byte('A'); c1 <= 'Z'; c1++ {
		if c1 == 'R' {
			// TR? already emitted above
			continue
		}
		for c2 := byte('A'); c2 <= 'Z'; c2++ {
			codes = append(codes, "T"+string(c1)+string(c2))
		}
	}
	return codes
}
