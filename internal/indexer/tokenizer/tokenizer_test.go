package tokenizer

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func TestSplitIntoWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "funny pet", []string{"funny", "pet"}},
		{"runs of spaces", "  funny   pet  ", []string{"funny", "pet"}},
		{"empty", "", []string{}},
		{"only spaces", "    ", []string{}},
		{"case preserved", "Cat cat", []string{"Cat", "cat"}},
		{"no-break space is part of the word", "cat\u00a0dog pet", []string{"cat\u00a0dog", "pet"}},
		{"tab is part of the word", "cat\tdog", []string{"cat\tdog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitIntoWords(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitIntoWords(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsValidWord(t *testing.T) {
	valid := []string{"cat", "кот", "a-b", "~!@#", ""}
	for _, w := range valid {
		if !IsValidWord(w) {
			t.Errorf("IsValidWord(%q) = false, want true", w)
		}
	}
	invalid := []string{"bad\x01word", "\x1f", "tab\there", "\x00"}
	for _, w := range invalid {
		if IsValidWord(w) {
			t.Errorf("IsValidWord(%q) = true, want false", w)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("funny pet and nasty rat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Validate("bad\x01word")
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStopWords(t *testing.T) {
	sw, err := NewStopWords([]string{"and", "", "with", "and"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sw.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sw.Len())
	}
	if !sw.Contains("and") || !sw.Contains("with") {
		t.Error("expected and/with to be stop words")
	}
	if sw.Contains("And") {
		t.Error("stop words must be case-sensitive")
	}
	if got := sw.Words(); !reflect.DeepEqual(got, []string{"and", "with"}) {
		t.Errorf("Words() = %q", got)
	}
}

func TestStopWordsInvalid(t *testing.T) {
	if _, err := NewStopWords([]string{"ok", "b\x02d"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := ParseStopWords("and\x03 with"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseStopWords(t *testing.T) {
	sw, err := ParseStopWords("  and with  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(sw.Words(), []string{"and", "with"}) {
		t.Errorf("Words() = %q", sw.Words())
	}
}

func TestSplitNoStop(t *testing.T) {
	sw, _ := ParseStopWords("and with")
	words, err := sw.SplitNoStop("funny pet and nasty rat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"funny", "pet", "nasty", "rat"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("SplitNoStop() = %q, want %q", words, want)
	}

	if _, err := sw.SplitNoStop("bad\x01word"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNilStopWords(t *testing.T) {
	var sw *StopWords
	if sw.Contains("and") {
		t.Error("nil set must contain nothing")
	}
	words, err := sw.SplitNoStop("a b")
	if err != nil || len(words) != 2 {
		t.Errorf("SplitNoStop on nil set = %q, %v", words, err)
	}
}
