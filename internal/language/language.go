// internal/language/language.go
package language

import "regexp"

// Language tags used across the assistant.
const (
	English  = "english"
	Hindi    = "hindi"
	Hinglish = "hinglish"
)

var (
	devanagariRe = regexp.MustCompile(`[\x{0900}-\x{097F}]`)
	latinRe      = regexp.MustCompile(`[a-zA-Z]`)
)

// Detect classifies an utterance as english, hindi, or hinglish based on the
// ratio of Devanagari to Latin script characters. Empty or script-free text
// defaults to english.
func Detect(text string) string {
	if text == "" {
		return English
	}

	devanagari := len(devanagariRe.FindAllString(text, -1))
	latin := len(latinRe.FindAllString(text, -1))

	total := devanagari + latin
	if total == 0 {
		return English
	}

	hindiRatio := float64(devanagari) / float64(total)

	switch {
	case hindiRatio > 0.8:
		return Hindi
	case hindiRatio < 0.2:
		return English
	default:
		return Hinglish
	}
}
