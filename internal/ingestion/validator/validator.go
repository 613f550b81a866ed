// Package validator checks document events before they are published or
// applied, returning per-field error details.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const (
	maxTextLength = 1 << 20
	maxRatings    = 10000
)

// ValidationError holds per-field validation failure messages. It matches
// errors.ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	slices.Sort(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateEvent rejects events the engine would refuse for shape reasons.
// Duplicate ids are not checked here; only the index knows about those.
func ValidateEvent(e *ingestion.DocumentEvent) error {
	errs := make(map[string]string)

	if e.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	switch e.Op {
	case ingestion.OpAdd:
		if len(e.Text) > maxTextLength {
			errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
		} else if err := tokenizer.Validate(e.Text); err != nil {
			errs["text"] = "text must not contain control characters"
		}
		if !e.Status.Valid() {
			errs["status"] = fmt.Sprintf("unknown status %d", int(e.Status))
		}
		if len(e.Ratings) > maxRatings {
			errs["ratings"] = fmt.Sprintf("at most %d ratings", maxRatings)
		}
	case ingestion.OpRemove:
		if _, err := execution.ParseMode(e.Mode); err != nil {
			errs["mode"] = err.Error()
		}
	case "":
		errs["op"] = "op is required"
	default:
		errs["op"] = fmt.Sprintf("unknown op %q", e.Op)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
