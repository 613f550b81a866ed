// Package tokenizer splits document and query text into terms and owns the
// validation rules every term must satisfy. Terms are case-sensitive and are
// never normalised: "Cat" and "cat" are different terms.
package tokenizer

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// IsValidWord reports whether word is free of control characters, i.e. it
// contains no byte below 0x20.
func IsValidWord(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < ' ' {
			return false
		}
	}
	return true
}

// Validate returns an ErrInvalidInput error if text contains a control
// character anywhere.
func Validate(text string) error {
	for i := 0; i < len(text); i++ {
		if text[i] < ' ' {
			return apperrors.Validation("text contains control character 0x%02x at offset %d", text[i], i)
		}
	}
	return nil
}

// SplitIntoWords breaks text on runs of the space character ' ' and drops
// empty fragments. Other whitespace, Unicode or control, stays inside the
// word. It performs no validation.
func SplitIntoWords(text string) []string {
	return strings.FieldsFunc(text, isSpace)
}

func isSpace(r rune) bool { return r == ' ' }
