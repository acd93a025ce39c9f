package utils

import (
	"strings"
	"unicode"
)

// Slugify derives the URL-safe form of a title or name: lowercased, ASCII
// letters and digits kept, runs of whitespace/hyphens/underscores collapsed
// to a single hyphen, everything else stripped. The mapping is deterministic
// so identical titles always collide on the same slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
	}
	return b.String()
}
