package processor

import (
	"math/rand"
	"testing"

	"github.com/corpuskit/lttl/corpus"
)

func wordSegmentation(t *testing.T, store *corpus.Store, text string, starts, ends []int) (*corpus.Segmentation, int) {
	t.Helper()
	idx := store.AppendString(text)
	sg := corpus.NewSegmentation(store, "words")
	for i := range starts {
		seg := corpus.Segment{StrIndex: idx, Start: starts[i], End: ends[i], Annotations: map[string]string{}}
		if err := sg.Append(seg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return sg, idx
}

func sentenceSegmentation(t *testing.T, store *corpus.Store, strIndex, start, end int) *corpus.Segmentation {
	t.Helper()
	sg := corpus.NewSegmentation(store, "sentences")
	seg := corpus.Segment{StrIndex: strIndex, Start: start, End: end, Annotations: map[string]string{}}
	if err := sg.Append(seg); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return sg
}

// "the cat sat on the mat" -> words the,cat,sat,on,the,mat at these offsets.
func sampleWords(t *testing.T) (*corpus.Store, int, *corpus.Segmentation) {
	t.Helper()
	store := corpus.NewStore()
	text := "the cat sat on the mat"
	starts := []int{0, 4, 8, 12, 15, 19}
	ends := []int{3, 7, 11, 14, 18, 22}
	words, strIdx := wordSegmentation(t, store, text, starts, ends)
	return store, strIdx, words
}

func TestCountInContextGlobal(t *testing.T) {
	store, _, words := sampleWords(t)
	units := UnitSpec{Segmentation: words}

	got, err := CountInContext(store, units, nil)
	if err != nil {
		t.Fatalf("CountInContext: %v", err)
	}
	if got.Get(globalRow, "the", 0) != 2 {
		t.Fatalf("count(the) = %d; want 2", got.Get(globalRow, "the", 0))
	}
	if got.Get(globalRow, "cat", 0) != 1 {
		t.Fatalf("count(cat) = %d; want 1", got.Get(globalRow, "cat", 0))
	}
}

func TestCountInWindow(t *testing.T) {
	store, _, words := sampleWords(t)
	units := UnitSpec{Segmentation: words}

	got, err := CountInWindow(store, units, 3)
	if err != nil {
		t.Fatalf("CountInWindow: %v", err)
	}
	if len(got.RowIDs()) != 4 {
		t.Fatalf("rows = %d; want 4", len(got.RowIDs()))
	}
	if got.Get("1", "the", 0) != 1 {
		t.Fatalf("window 1 count(the) = %d; want 1", got.Get("1", "the", 0))
	}
}

func TestLengthInContext(t *testing.T) {
	store, strIdx, words := sampleWords(t)
	ctx := sentenceSegmentation(t, store, strIdx, 0, 22)
	units := UnitSpec{Segmentation: words}

	rows, err := LengthInContext(store, units, ContextSpec{Segmentation: ctx}, nil)
	if err != nil {
		t.Fatalf("LengthInContext: %v", err)
	}
	if len(rows) != 1 || rows[0].Count != 6 {
		t.Fatalf("rows = %+v; want one row with Count=6", rows)
	}
}

func TestVarietyInContextPlain(t *testing.T) {
	store, strIdx, words := sampleWords(t)
	ctx := sentenceSegmentation(t, store, strIdx, 0, 22)
	units := UnitSpec{Segmentation: words}

	rows, err := VarietyInContext(store, units, ContextSpec{Segmentation: ctx}, VarietyOptions{})
	if err != nil {
		t.Fatalf("VarietyInContext: %v", err)
	}
	if len(rows) != 1 || rows[0].Variety != 5 {
		t.Fatalf("rows = %+v; want variety 5 (the,cat,sat,on,mat)", rows)
	}
}

func TestVarietyInContextExpectedSubsample(t *testing.T) {
	store, strIdx, words := sampleWords(t)
	ctx := sentenceSegmentation(t, store, strIdx, 0, 22)
	units := UnitSpec{Segmentation: words}

	rows, err := VarietyInContext(store, units, ContextSpec{Segmentation: ctx}, VarietyOptions{Resampling: 6})
	if err != nil {
		t.Fatalf("VarietyInContext: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Variety != 5 {
		t.Fatalf("sampling the whole population should reproduce the exact variety, got %v", rows[0].Variety)
	}
}

func TestVarietyInContextMonteCarlo(t *testing.T) {
	store, strIdx, words := sampleWords(t)
	ctx := sentenceSegmentation(t, store, strIdx, 0, 22)
	units := UnitSpec{Segmentation: words}

	rows, err := VarietyInContext(store, units, ContextSpec{Segmentation: ctx}, VarietyOptions{
		Resampling:    3,
		UnitWeighting: true,
		NumSubsamples: 20,
		Rand:          rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("VarietyInContext: %v", err)
	}
	if len(rows) != 1 || rows[0].Count != 20 {
		t.Fatalf("rows = %+v; want 20 Monte-Carlo draws", rows)
	}
	if rows[0].Variety <= 0 {
		t.Fatalf("average variety should be positive, got %v", rows[0].Variety)
	}
}

func TestAnnotateContextsMostFrequent(t *testing.T) {
	store, strIdx, words := sampleWords(t)
	ctx := sentenceSegmentation(t, store, strIdx, 0, 22)
	units := UnitSpec{Segmentation: words}

	got, err := AnnotateContexts(store, units, ContextSpec{Segmentation: ctx}, AnnotateContextsOptions{})
	if err != nil {
		t.Fatalf("AnnotateContexts: %v", err)
	}
	const ctxType = "the cat sat on the mat" // ContextSpec with no annotation key types on full content
	if got[ctxType] != "the" {
		t.Fatalf("most frequent = %q; want %q", got[ctxType], "the")
	}
}

func TestContextConcordance(t *testing.T) {
	store, strIdx, words := sampleWords(t)
	ctx := sentenceSegmentation(t, store, strIdx, 0, 22)
	units := UnitSpec{Segmentation: words}

	rows, err := Context(store, units, ContextSpec{Segmentation: ctx}, ConcordanceOptions{})
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d; want 6", len(rows))
	}
	if rows[1].Key != "cat" || rows[1].LeftText != "the " || rows[1].RightText != " sat on the mat" {
		t.Fatalf("row 1 = %+v", rows[1])
	}
}

func TestNeighbors(t *testing.T) {
	store, _, words := sampleWords(t)
	units := UnitSpec{Segmentation: words}

	rows, err := Neighbors(store, units, NeighborsOptions{K: 2})
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d; want 6", len(rows))
	}
	// position 2 ("sat"): left neighbors at distance 2,1 are "the","cat".
	if rows[2].Left[0] != "the" || rows[2].Left[1] != "cat" {
		t.Fatalf("left neighbors of row 2 = %v", rows[2].Left)
	}
	if rows[2].Right[0] != "on" || rows[2].Right[1] != "the" {
		t.Fatalf("right neighbors of row 2 = %v", rows[2].Right)
	}
}

func TestCollocationsMutualInformation(t *testing.T) {
	store, _, words := sampleWords(t)
	units := UnitSpec{Segmentation: words}

	rows, err := Collocations(store, units, NeighborsOptions{K: 1}, 1)
	if err != nil {
		t.Fatalf("Collocations: %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("expected at least one collocation row")
	}
}

func TestCoocInWindowDiagonalIsDocumentFrequency(t *testing.T) {
	store, _, words := sampleWords(t)
	units := UnitSpec{Segmentation: words}

	got, err := CoocInWindow(store, units, 3)
	if err != nil {
		t.Fatalf("CoocInWindow: %v", err)
	}
	if got.Get("the", "the", 0) != 3 {
		t.Fatalf("diag(the) = %v; want 3 (the appears in 3 of 4 windows)", got.Get("the", "the", 0))
	}
}
