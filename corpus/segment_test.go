package corpus

import (
	"reflect"
	"testing"
)

func seg(strIndex, start, end int) Segment {
	return Segment{StrIndex: strIndex, Start: start, End: end, Annotations: map[string]string{}}
}

func TestContentAndContains(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("the quick brown fox")

	word := seg(idx, 4, 9) // "quick"
	content, err := Content(store, word)
	if err != nil || content != "quick" {
		t.Fatalf("Content = %q, %v; want %q, nil", content, err, "quick")
	}

	whole := seg(idx, Unset, Unset)
	if !Contains(store, whole, word) {
		t.Fatalf("whole string segment should contain %v", word)
	}
	if Contains(store, word, whole) {
		t.Fatalf("%v should not contain the whole string", word)
	}
}

func TestGetContainedSegmentIndices(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("the quick brown fox jumps")

	words := NewSegmentationFromSegments(store, []Segment{
		seg(idx, 0, 3),  // the
		seg(idx, 4, 9),  // quick
		seg(idx, 10, 15), // brown
		seg(idx, 16, 19), // fox
		seg(idx, 20, 25), // jumps
	}, "words")

	sentence := seg(idx, 4, 19) // "quick brown fox"
	indices := GetContainedSegmentIndices(store, sentence, words)
	if !reflect.DeepEqual(indices, []int{1, 2, 3}) {
		t.Fatalf("GetContainedSegmentIndices = %v; want [1 2 3]", indices)
	}

	segments := GetContainedSegments(store, sentence, words)
	if len(segments) != 3 {
		t.Fatalf("GetContainedSegments returned %d segments; want 3", len(segments))
	}
	if c, _ := Content(store, segments[0]); c != "quick" {
		t.Fatalf("first contained segment = %q; want %q", c, "quick")
	}
}

func TestGetContainedSegmentIndicesNoMatch(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("abc")
	other := store.AppendString("xyz")
	words := NewSegmentationFromSegments(store, []Segment{seg(idx, 0, 1)}, "w")

	outer := seg(other, Unset, Unset)
	if got := GetContainedSegmentIndices(store, outer, words); got != nil {
		t.Fatalf("GetContainedSegmentIndices across unrelated strings = %v; want nil", got)
	}
}

func TestGetContainedSequenceIndices(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("a b c d e")

	letters := NewSegmentationFromSegments(store, []Segment{
		seg(idx, 0, 1),
		seg(idx, 2, 3),
		seg(idx, 4, 5),
		seg(idx, 6, 7),
		seg(idx, 8, 9),
	}, "letters")

	whole := seg(idx, Unset, Unset)
	starts := GetContainedSequenceIndices(store, whole, letters, 2)
	if !reflect.DeepEqual(starts, []int{0, 1, 2, 3}) {
		t.Fatalf("GetContainedSequenceIndices(length=2) = %v; want [0 1 2 3]", starts)
	}

	starts5 := GetContainedSequenceIndices(store, whole, letters, 5)
	if !reflect.DeepEqual(starts5, []int{0}) {
		t.Fatalf("GetContainedSequenceIndices(length=5) = %v; want [0]", starts5)
	}

	starts6 := GetContainedSequenceIndices(store, whole, letters, 6)
	if len(starts6) != 0 {
		t.Fatalf("GetContainedSequenceIndices(length=6) = %v; want empty", starts6)
	}
}

func TestDeepcopyUpdateVsReplace(t *testing.T) {
	base := Segment{StrIndex: 0, Start: 0, End: 1, Annotations: map[string]string{"a": "1"}}

	replaced := base.Deepcopy(map[string]string{"b": "2"}, false)
	if _, ok := replaced.Annotations["a"]; ok {
		t.Fatalf("replace-mode Deepcopy kept old annotation")
	}
	if replaced.Annotations["b"] != "2" {
		t.Fatalf("replace-mode Deepcopy missing new annotation")
	}

	merged := base.Deepcopy(map[string]string{"b": "2"}, true)
	if merged.Annotations["a"] != "1" || merged.Annotations["b"] != "2" {
		t.Fatalf("update-mode Deepcopy = %v; want both a and b", merged.Annotations)
	}
	base.Annotations["a"] = "mutated"
	if merged.Annotations["a"] == "mutated" {
		t.Fatalf("Deepcopy did not actually copy the annotation map")
	}
}
