package domain

import (
	"strings"
	"unicode"
)

// NormalizePrefix uppercases a key namespace prefix.
// When keep is non-nil, runes it rejects are dropped first.
// An empty result falls back to DefaultPrefix so the namespace is never empty.
func NormalizePrefix(prefix string, keep func(rune) bool) string {
	if keep != nil {
		prefix = strings.Map(func(r rune) rune {
			if keep(r) {
				return r
			}
			return -1
		}, prefix)
	}
	prefix = strings.ToUpper(prefix)
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

// LettersAndUnderscore keeps ASCII letters and '_', the character set cache keys are restricted to.
func LettersAndUnderscore(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r))
}
