package conversation

import (
	"strings"
	"unicode"

	"clinicbot/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tatweel = "ـ"

// fold prepares text for keyword comparison: diacritics and hamza carriers are
// dropped (so إلغاء and الغاء compare equal) and case is folded.
// Casers and transformers keep state, so both are built per call.
func fold(s string) string {
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, tatweel, "")
	return cases.Fold().String(out)
}

func foldAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fold(w)
	}
	return out
}

// containsAny reports whether folded text contains any of the folded keywords.
func containsAny(folded string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// tokens splits text on anything that is not a letter or digit.
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// DetectLanguage returns Arabic when the text contains any Arabic-script rune.
func DetectLanguage(text string) models.Language {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return models.LanguageArabic
		}
	}
	return models.LanguageEnglish
}

func isLatinWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}
