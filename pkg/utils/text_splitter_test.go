package utils

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitTextChunkSizes(t *testing.T) {
	text := strings.Repeat("word ", 400) // 2000 chars
	chunks := SplitText(text, 500, 100)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 500 {
			t.Errorf("chunk %d exceeds chunk size: %d runes", i, len([]rune(c)))
		}
	}
}

// TestSplitTextNoGaps uses words longer than the overlap so the whitespace
// backtrack can move the cut point further back than the next chunk's start.
// Every byte of the input must still land in some chunk.
func TestSplitTextNoGaps(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		// 80-char words with a unique numeric prefix, so each chunk matches
		// the input at exactly one position.
		fmt.Fprintf(&sb, "%04d%s ", i, strings.Repeat("z", 76))
	}
	text := sb.String()

	chunks := SplitText(text, 300, 60)

	coveredTo := 0
	for i, c := range chunks {
		start := strings.Index(text, c)
		if start < 0 {
			t.Fatalf("chunk %d is not a substring of the input", i)
		}
		if start > coveredTo {
			t.Fatalf("gap before chunk %d: chunk starts at %d but coverage ends at %d", i, start, coveredTo)
		}
		if end := start + len(c); end > coveredTo {
			coveredTo = end
		}
	}

	if coveredTo != len(text) {
		t.Errorf("chunks cover %d of %d bytes", coveredTo, len(text))
	}
}

func TestSplitTextWordBoundaries(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 100)
	chunks := SplitText(text, 200, 40)

	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d does not end on whitespace: %q", i, c[len(c)-20:])
		}
	}
}
