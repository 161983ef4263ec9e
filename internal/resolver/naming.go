package resolver

import (
	"strings"
	"unicode"
)

// DefaultName derives the environment variable name for a field identifier:
// the identifier in upper case, with words of a mixedCaps name separated by
// underscores (`APIKey` -> `API_KEY`, `retry_count` -> `RETRY_COUNT`).
func DefaultName(ident string) string {
	runes := []rune(ident)
	var b strings.Builder
	b.Grow(len(ident) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
