package tokenizer

import (
	"slices"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// StopWords is an immutable set of terms excluded from indexing and from
// query matching. The zero value is an empty set.
type StopWords struct {
	set map[string]struct{}
}

// NewStopWords builds a set from words, skipping empty strings. Any word
// containing a control character fails the whole construction.
func NewStopWords(words []string) (*StopWords, error) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if !IsValidWord(w) {
			return nil, apperrors.Validation("stop word %q contains control characters", w)
		}
		set[w] = struct{}{}
	}
	return &StopWords{set: set}, nil
}

// ParseStopWords builds a set from whitespace-delimited text.
func ParseStopWords(text string) (*StopWords, error) {
	if err := Validate(text); err != nil {
		return nil, err
	}
	return NewStopWords(SplitIntoWords(text))
}

// Contains reports whether word is a stop word. A nil set contains nothing.
func (s *StopWords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.set[word]
	return ok
}

// Len returns the number of distinct stop words.
func (s *StopWords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.set)
}

// Words returns the set in lexical order.
func (s *StopWords) Words() []string {
	if s == nil {
		return nil
	}
	words := make([]string, 0, len(s.set))
	for w := range s.set {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// SplitNoStop validates text, splits it into terms and removes stop words.
// Validation covers the whole text, so nothing is returned on error.
func (s *StopWords) SplitNoStop(text string) ([]string, error) {
	if err := Validate(text); err != nil {
		return nil, err
	}
	raw := SplitIntoWords(text)
	words := raw[:0]
	for _, w := range raw {
		if !s.Contains(w) {
			words = append(words, w)
		}
	}
	return words, nil
}
