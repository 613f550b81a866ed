// Package parser turns raw query text into plus and minus term sets.
package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// StopWordSet is the part of the stop-word filter the parser needs.
type StopWordSet interface {
	Contains(word string) bool
}

// Query is a parsed query. Plus and Minus are sorted and free of
// duplicates and stop words. A term may appear in both; at scoring time
// minus wins.
type Query struct {
	Plus  []string
	Minus []string
	Raw   string
}

// Empty reports whether the query has no plus terms and so cannot match
// anything.
func (q *Query) Empty() bool {
	return len(q.Plus) == 0
}

// Key is a canonical form of the query: two raw strings that parse to the
// same term sets share a key.
func (q *Query) Key() string {
	var b strings.Builder
	for i, t := range q.Plus {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	for _, t := range q.Minus {
		b.WriteString(" -")
		b.WriteString(t)
	}
	return b.String()
}

// Parse validates raw and splits it into terms. A token starting with "-"
// is a minus term; the remainder must be non-empty and must not start with
// another "-". Stop words are dropped after the marker is stripped.
func Parse(raw string, stopWords StopWordSet) (*Query, error) {
	if err := tokenizer.Validate(raw); err != nil {
		return nil, err
	}
	q := &Query{Raw: raw}
	for _, token := range tokenizer.SplitIntoWords(raw) {
		term, minus, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		if stopWords != nil && stopWords.Contains(term) {
			continue
		}
		if minus {
			q.Minus = append(q.Minus, term)
		} else {
			q.Plus = append(q.Plus, term)
		}
	}
	q.Plus = normalize(q.Plus)
	q.Minus = normalize(q.Minus)
	return q, nil
}

func parseToken(token string) (string, bool, error) {
	minus := false
	if strings.HasPrefix(token, "-") {
		minus = true
		token = token[1:]
	}
	if token == "" {
		return "", false, apperrors.Validation("query contains an empty minus term")
	}
	if token[0] == '-' {
		return "", false, apperrors.Validation("query term %q has more than one minus", "-"+token)
	}
	if !tokenizer.IsValidWord(token) {
		return "", false, apperrors.Validation("query term %q contains control characters", token)
	}
	return token, minus, nil
}

func normalize(terms []string) []string {
	slices.Sort(terms)
	return slices.Compact(terms)
}
