package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corpuskit/lttl/input"
	"github.com/corpuskit/lttl/processor"
	"github.com/corpuskit/lttl/segmenter"
)

// TestPipelineSmoke exercises the same load -> tokenize -> count/variety
// pipeline main() drives, without going through flag parsing or stdout.
func TestPipelineSmoke(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("the quick brown fox jumps over the lazy dog"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, docs, err := input.FromFiles([]string{path})
	if err != nil {
		t.Fatalf("FromFiles: %v", err)
	}
	words, err := segmenter.Tokenize(store, docs, whitespaceRule, "words", segmenter.TokenizeOptions{})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if words.Len() != 9 {
		t.Fatalf("Len() = %d; want 9", words.Len())
	}

	units := processor.UnitSpec{Segmentation: words}
	counts, err := processor.CountInWindow(store, units, 3)
	if err != nil {
		t.Fatalf("CountInWindow: %v", err)
	}
	if len(counts.RowIDs()) == 0 {
		t.Fatalf("expected at least one window row")
	}

	rows, err := processor.VarietyInContext(store, units, processor.ContextSpec{Segmentation: docs}, processor.VarietyOptions{})
	if err != nil {
		t.Fatalf("VarietyInContext: %v", err)
	}
	if len(rows) != 1 || rows[0].Variety != 8 {
		t.Fatalf("rows = %+v; want one row with variety 8 (the repeats)", rows)
	}
}
