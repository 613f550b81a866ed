// Package ingestion defines the document event schema carried on Kafka and
// the request/response types of the ingest endpoint.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
)

// Op is the mutation a DocumentEvent asks for.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// DocumentEvent is the Kafka message payload for one index mutation. Text,
// Status and Ratings are only meaningful for OpAdd; Mode only for OpRemove.
type DocumentEvent struct {
	Op        Op           `json:"op"`
	ID        int          `json:"id"`
	Text      string       `json:"text,omitempty"`
	Status    index.Status `json:"status"`
	Ratings   []int        `json:"ratings,omitempty"`
	Mode      string       `json:"mode,omitempty"`
	EmittedAt time.Time    `json:"emitted_at"`
}

// AddEvent builds the event that indexes doc.
func AddEvent(doc service.Document) DocumentEvent {
	return DocumentEvent{
		Op:      OpAdd,
		ID:      doc.ID,
		Text:    doc.Text,
		Status:  doc.Status,
		Ratings: doc.Ratings,
	}
}

// RemoveEvent builds the event that removes id in the given mode.
func RemoveEvent(id int, mode execution.Mode) DocumentEvent {
	return DocumentEvent{
		Op:   OpRemove,
		ID:   id,
		Mode: mode.String(),
	}
}

// Document converts an add event back to a service document.
func (e DocumentEvent) Document() service.Document {
	return service.Document{
		ID:      e.ID,
		Text:    e.Text,
		Status:  e.Status,
		Ratings: e.Ratings,
	}
}

// IngestResponse is returned once an event has been accepted by Kafka.
type IngestResponse struct {
	ID     int    `json:"id"`
	Op     Op     `json:"op"`
	Status string `json:"status"`
}
