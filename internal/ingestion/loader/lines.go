package loader

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const maxLineBytes = 1 << 20

// Glob expands each doublestar pattern ("docs/**/*.txt") against the file
// system and returns the matches sorted and de-duplicated.
func Glob(patterns []string) ([]string, error) {
	var paths []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// LineSource treats every non-blank line of its files as one document,
// numbered from 0 in file then line order. A line may carry a status and
// ratings after tabs:
//
//	text<TAB>STATUS<TAB>r1,r2,...
//
// An .html or .htm file is a single active document holding its visible
// text.
type LineSource struct {
	paths []string
}

// NewLineSource reads paths in the given order.
func NewLineSource(paths []string) *LineSource {
	return &LineSource{paths: paths}
}

func (s *LineSource) Name() string {
	return fmt.Sprintf("files(%d)", len(s.paths))
}

func (s *LineSource) Count(ctx context.Context) (int, error) {
	n := 0
	for l := range s.lines(ctx) {
		if l.err != nil {
			return n, l.err
		}
		n++
	}
	return n, nil
}

func (s *LineSource) Documents(ctx context.Context) iter.Seq2[service.Document, error] {
	return func(yield func(service.Document, error) bool) {
		id := 0
		for l := range s.lines(ctx) {
			if l.err != nil {
				yield(service.Document{}, l.err)
				return
			}
			doc, err := parseLine(id, l.text)
			if !yield(doc, err) {
				return
			}
			id++
		}
	}
}

func (s *LineSource) Close() error { return nil }

type rawLine struct {
	text string
	err  error
}

func (s *LineSource) lines(ctx context.Context) iter.Seq[rawLine] {
	return func(yield func(rawLine) bool) {
		for _, path := range s.paths {
			if err := ctx.Err(); err != nil {
				yield(rawLine{err: err})
				return
			}
			f, err := os.Open(path)
			if err != nil {
				yield(rawLine{err: err})
				return
			}
			if isHTML(path) {
				text, err := extractText(f)
				f.Close()
				if err != nil {
					yield(rawLine{err: fmt.Errorf("parsing %s: %w", path, err)})
					return
				}
				if text != "" && !yield(rawLine{text: text}) {
					return
				}
				continue
			}
			sc := bufio.NewScanner(f)
			sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
			for sc.Scan() {
				text := strings.TrimRight(sc.Text(), "\r")
				if strings.TrimSpace(text) == "" {
					continue
				}
				if !yield(rawLine{text: text}) {
					f.Close()
					return
				}
			}
			err = sc.Err()
			f.Close()
			if err != nil {
				yield(rawLine{err: fmt.Errorf("reading %s: %w", path, err)})
				return
			}
		}
	}
}

func parseLine(id int, text string) (service.Document, error) {
	parts := strings.SplitN(text, "\t", 3)
	doc := service.Document{ID: id, Text: parts[0]}
	if len(parts) > 1 && parts[1] != "" {
		status, err := index.ParseStatus(parts[1])
		if err != nil {
			return doc, apperrors.Validation("line document %d: %v", id, err)
		}
		doc.Status = status
	}
	if len(parts) > 2 {
		ratings, err := ParseRatings(parts[2])
		if err != nil {
			return doc, err
		}
		doc.Ratings = ratings
	}
	return doc, nil
}
