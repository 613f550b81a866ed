package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func stopWords(t *testing.T) *tokenizer.StopWords {
	t.Helper()
	sw, err := tokenizer.ParseStopWords("and with in the")
	if err != nil {
		t.Fatal(err)
	}
	return sw
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPlus  []string
		wantMinus []string
	}{
		{"single term", "cat", []string{"cat"}, nil},
		{"plus and minus", "fluffy cat -collar", []string{"cat", "fluffy"}, []string{"collar"}},
		{"duplicates collapse", "cat cat -dog -dog cat", []string{"cat"}, []string{"dog"}},
		{"stop words dropped", "the cat and the dog", []string{"cat", "dog"}, nil},
		{"minus stop word dropped", "cat -with", []string{"cat"}, nil},
		{"case sensitive", "Cat cat", []string{"Cat", "cat"}, nil},
		{"extra whitespace", "   cat    dog  ", []string{"cat", "dog"}, nil},
		{"term in both sets", "cat -cat", []string{"cat"}, []string{"cat"}},
		{"inner dash kept", "well-groomed -x-ray", []string{"well-groomed"}, []string{"x-ray"}},
		{"empty", "", nil, nil},
		{"only stop words", "and with", nil, nil},
	}
	sw := stopWords(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.query, sw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.query, err)
			}
			if !reflect.DeepEqual(q.Plus, tt.wantPlus) {
				t.Errorf("Plus = %v, want %v", q.Plus, tt.wantPlus)
			}
			if !reflect.DeepEqual(q.Minus, tt.wantMinus) {
				t.Errorf("Minus = %v, want %v", q.Minus, tt.wantMinus)
			}
			if q.Raw != tt.query {
				t.Errorf("Raw = %q, want %q", q.Raw, tt.query)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	sw := stopWords(t)
	for _, query := range []string{
		"cat --dog",
		"cat -",
		"-",
		"--",
		"cat\x01",
		"cat\tdog",
		"cat -do\x1fg",
		"-and -",
	} {
		if _, err := Parse(query, sw); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidInput", query, err)
		}
	}
}

func TestParseNilStopWords(t *testing.T) {
	q, err := Parse("the cat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(q.Plus, []string{"cat", "the"}) {
		t.Errorf("Plus = %v", q.Plus)
	}
}

func TestQueryKey(t *testing.T) {
	sw := stopWords(t)
	a, _ := Parse("dog cat -rat cat", sw)
	b, _ := Parse("  cat the dog -rat ", sw)
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "cat dog -rat" {
		t.Errorf("Key() = %q", a.Key())
	}
	if !(&Query{}).Empty() || a.Empty() {
		t.Error("Empty() mismatch")
	}
}

func BenchmarkParse(b *testing.B) {
	sw, _ := tokenizer.ParseStopWords("and with in the")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Parse("curly and funny -collar dog with a fluffy -tail", sw)
	}
}
