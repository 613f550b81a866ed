package loader

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strconv"
	"strings"

	_ "github.com/glebarez/go-sqlite"
	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
)

// Both backends read the same shape:
//
//	id INTEGER, body TEXT, status TEXT NULL, ratings <backend specific> NULL
//
// Postgres stores ratings as INTEGER[]; SQLite as comma-separated TEXT.
const selectColumns = "SELECT id, body, status, ratings FROM %s ORDER BY id"

type rowScanner func(rows *sql.Rows) (service.Document, error)

// SQLSource reads documents from a table over database/sql.
type SQLSource struct {
	name  string
	db    *sql.DB
	table string
	scan  rowScanner
	close func() error
}

// NewPostgresSource reads the configured documents table. Closing the
// source leaves the client open.
func NewPostgresSource(c *postgres.Client) *SQLSource {
	return &SQLSource{
		name:  "postgres",
		db:    c.DB,
		table: c.Table(),
		scan:  scanPostgres,
		close: func() error { return nil },
	}
}

// OpenSQLite opens the database file at path and reads table from it.
func OpenSQLite(ctx context.Context, path, table string) (*SQLSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	return &SQLSource{
		name:  "sqlite:" + path,
		db:    db,
		table: pq.QuoteIdentifier(table),
		scan:  scanSQLite,
		close: db.Close,
	}, nil
}

func (s *SQLSource) Name() string { return s.name }

func (s *SQLSource) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n)
	return n, err
}

func (s *SQLSource) Documents(ctx context.Context) iter.Seq2[service.Document, error] {
	return func(yield func(service.Document, error) bool) {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(selectColumns, s.table))
		if err != nil {
			yield(service.Document{}, fmt.Errorf("querying %s: %w", s.table, err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			if !yield(s.scan(rows)) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(service.Document{}, err)
		}
	}
}

func (s *SQLSource) Close() error {
	return s.close()
}

func scanPostgres(rows *sql.Rows) (service.Document, error) {
	var (
		doc     service.Document
		status  sql.NullString
		ratings []int64
	)
	if err := rows.Scan(&doc.ID, &doc.Text, &status, pq.Array(&ratings)); err != nil {
		return doc, err
	}
	doc.Ratings = make([]int, len(ratings))
	for i, r := range ratings {
		doc.Ratings[i] = int(r)
	}
	return withStatus(doc, status)
}

func scanSQLite(rows *sql.Rows) (service.Document, error) {
	var (
		doc     service.Document
		status  sql.NullString
		ratings sql.NullString
	)
	if err := rows.Scan(&doc.ID, &doc.Text, &status, &ratings); err != nil {
		return doc, err
	}
	r, err := ParseRatings(ratings.String)
	if err != nil {
		return doc, err
	}
	doc.Ratings = r
	return withStatus(doc, status)
}

func withStatus(doc service.Document, status sql.NullString) (service.Document, error) {
	if !status.Valid || status.String == "" {
		return doc, nil
	}
	s, err := index.ParseStatus(status.String)
	if err != nil {
		return doc, apperrors.Validation("document %d: %v", doc.ID, err)
	}
	doc.Status = s
	return doc, nil
}

// ParseRatings reads a comma-separated list of integers. Blank input
// means no ratings.
func ParseRatings(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, apperrors.Validation("bad rating %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}
