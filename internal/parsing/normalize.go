// Package parsing provides label normalization and profile parsing.
package parsing

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel produces the lookup key used by every resolution tier:
// lower-cased, diacritics stripped, runs of punctuation and whitespace
// collapsed to a single space.
func NormalizeLabel(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(diacritics(), text)
	if err != nil {
		stripped = text
	}

	var sb strings.Builder
	sb.Grow(len(stripped))
	pendingSpace := false
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return sb.String()
}

// diacritics returns a fresh transformer; transform.Chain values are not safe for concurrent use.
func diacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// IsConceptURI reports whether a profile entry is already a concept URI.
func IsConceptURI(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// CleanTerms trims entries, drops blank ones and removes duplicates by normalized form,
// keeping the first spelling. Entries without any letter or digit are kept as
// typed so they surface as unresolved.
func CleanTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	cleaned := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := term
		if !IsConceptURI(term) {
			if normalized := NormalizeLabel(term); normalized != "" {
				key = normalized
			}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, term)
	}
	return cleaned
}
