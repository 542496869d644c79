package scheduler

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds free text for locale-insensitive comparison: lower case, accents
// removed, punctuation replaced by spaces, whitespace collapsed.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	folded := stripMarks(strings.ToLower(text))
	// letters such as đ or ø carry no combining mark after NFD
	folded = strings.ToLower(unidecode.Unidecode(folded))

	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

func words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// containsPhrase reports whether phrase occurs in text as a whole-word sequence.
// Both arguments must already be normalized.
func containsPhrase(text, phrase string) bool {
	if text == "" || phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
