package index

import (
	"fmt"
	"strings"
)

// Status is the lifecycle label attached to a document at ingestion. It is
// immutable for the lifetime of the document.
type Status int

const (
	StatusActive Status = iota
	StatusIrrelevant
	StatusExcluded
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusIrrelevant:
		return "IRRELEVANT"
	case StatusExcluded:
		return "EXCLUDED"
	case StatusRemoved:
		return "REMOVED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	return s >= StatusActive && s <= StatusRemoved
}

// ParseStatus is the inverse of String and is case-insensitive.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return StatusActive, nil
	case "IRRELEVANT":
		return StatusIrrelevant, nil
	case "EXCLUDED":
		return StatusExcluded, nil
	case "REMOVED":
		return StatusRemoved, nil
	default:
		return StatusActive, fmt.Errorf("unknown document status %q", s)
	}
}

// MarshalText encodes the status by name, e.g. "ACTIVE".
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid document status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts any casing of a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DocumentData is the Document Store record kept per live id.
type DocumentData struct {
	Rating int    `json:"rating"`
	Status Status `json:"status"`
}

// Posting is one (term, document) pair with its term frequency.
type Posting struct {
	DocID     int     `json:"doc_id"`
	Frequency float64 `json:"tf"`
}

// PostingList is the postings of one term ordered by document id.
type PostingList []Posting

// TermEntry is a term together with its postings ordered by document id.
type TermEntry struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}

// AverageRating is the integer-truncated mean of ratings, 0 when empty.
func AverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
