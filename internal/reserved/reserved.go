// Package reserved validates workspace names and slugs against the
// platform's own brand terms and reserved system paths.
package reserved

import (
	"strings"

	"github.com/gosimple/unidecode"
)

// Brand tokens of length >= 5 are rejected as substrings anywhere in a
// normalized candidate name, not only on exact match.
const strongTokenMinLen = 5

var brandTokens = []string{
	"samla",
	"samlaapp",
	"samlahq",
}

var reservedNames = map[string]struct{}{
	"samla":     {},
	"samlaapp":  {},
	"samlahq":   {},
	"admin":     {},
	"staff":     {},
	"root":      {},
	"system":    {},
	"support":   {},
	"billing":   {},
	"api":       {},
	"webhook":   {},
	"webhooks":  {},
	"internal":  {},
	"platform":  {},
	"dashboard": {},
}

var reservedSlugSegments = map[string]struct{}{
	"samla":    {},
	"admin":    {},
	"api":      {},
	"app":      {},
	"auth":     {},
	"billing":  {},
	"health":   {},
	"inbox":    {},
	"internal": {},
	"metrics":  {},
	"settings": {},
	"staff":    {},
	"static":   {},
	"system":   {},
	"webhooks": {},
	"ws":       {},
}

// Normalize lowercases, strips diacritics and removes every
// non-alphanumeric rune.
func Normalize(s string) string {
	flat := strings.ToLower(unidecode.Unidecode(s))
	var b strings.Builder
	b.Grow(len(flat))
	for _, r := range flat {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckName returns a rejection message for names colliding with the
// platform's brand or reserved terms, or "" when the name is allowed.
func CheckName(name string) string {
	normalized := Normalize(name)
	if normalized == "" {
		return ""
	}

	if _, ok := reservedNames[normalized]; ok {
		return "this name is reserved and cannot be used"
	}

	for _, token := range brandTokens {
		if len(token) < strongTokenMinLen {
			continue
		}
		if strings.Contains(normalized, token) {
			return "this name contains a reserved brand term"
		}
	}

	return ""
}

// IsReservedSlug reports whether slug equals a reserved path segment or
// starts with "<reserved>-".
func IsReservedSlug(slug string) bool {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return false
	}

	if _, ok := reservedSlugSegments[slug]; ok {
		return true
	}
	for segment := range reservedSlugSegments {
		if strings.HasPrefix(slug, segment+"-") {
			return true
		}
	}
	return false
}
