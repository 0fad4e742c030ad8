package corpus

import (
	"reflect"
	"testing"
)

func TestSegmentationAppendAndGet(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("abcdef")
	sg := NewSegmentation(store, "letters")
	defer sg.Close()

	for i := 0; i < 6; i++ {
		if err := sg.Append(seg(idx, i, i+1)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if sg.Len() != 6 {
		t.Fatalf("Len() = %d; want 6", sg.Len())
	}
	got, err := sg.Get(2)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if c, _ := Content(store, got); c != "c" {
		t.Fatalf("Get(2) content = %q; want %q", c, "c")
	}
	last, err := sg.Get(-1)
	if err != nil {
		t.Fatalf("Get(-1): %v", err)
	}
	if c, _ := Content(store, last); c != "f" {
		t.Fatalf("Get(-1) content = %q; want %q", c, "f")
	}
}

func TestSegmentationExtendMergesStrIndexPtr(t *testing.T) {
	store := NewStore()
	a := store.AppendString("aaa")
	b := store.AppendString("bbb")

	sg := NewSegmentation(store, "mixed")
	defer sg.Close()

	if err := sg.Extend([]Segment{seg(a, 0, 1), seg(a, 1, 2)}); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if err := sg.Extend([]Segment{seg(b, 0, 1), seg(a, 0, 1)}); err != nil {
		t.Fatalf("Extend: %v", err)
	}

	if pos, ok := sg.strIndexFirst(a); !ok || pos != 0 {
		t.Fatalf("strIndexFirst(a) = %d, %v; want 0, true", pos, ok)
	}
	if pos, ok := sg.strIndexFirst(b); !ok || pos != 2 {
		t.Fatalf("strIndexFirst(b) = %d, %v; want 2, true", pos, ok)
	}
}

func TestSegmentationPagingRoundTrip(t *testing.T) {
	oldChunk, oldCache := ChunkSize, CacheSize
	ChunkSize, CacheSize = 3, 1
	defer func() { ChunkSize, CacheSize = oldChunk, oldCache }()

	store := NewStore()
	idx := store.AppendString("0123456789")
	sg := NewSegmentation(store, "digits")
	defer sg.Close()

	for i := 0; i < 10; i++ {
		ann := map[string]string{"parity": "even"}
		if i%2 == 1 {
			ann["parity"] = "odd"
		}
		s := seg(idx, i, i+1)
		s.Annotations = ann
		if err := sg.Append(s); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	for i := 0; i < 10; i++ {
		got, err := sg.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		c, _ := Content(store, got)
		if c != string(rune('0'+i)) {
			t.Fatalf("Get(%d) content = %q; want %q", i, c, string(rune('0'+i)))
		}
		wantParity := "even"
		if i%2 == 1 {
			wantParity = "odd"
		}
		if got.Annotations["parity"] != wantParity {
			t.Fatalf("Get(%d) annotation parity = %q; want %q", i, got.Annotations["parity"], wantParity)
		}
	}
}

func TestSegmentationSortIdempotentAndReorders(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("abcdef")

	ordered := NewSegmentationFromSegments(store, []Segment{
		seg(idx, 0, 1), seg(idx, 1, 2), seg(idx, 2, 3),
	}, "ordered")
	defer ordered.Close()
	sortedSame, err := ordered.Sort()
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if sortedSame != ordered {
		t.Fatalf("Sort on already-sorted segmentation should return the same instance")
	}

	unordered := NewSegmentationFromSegments(store, []Segment{
		seg(idx, 2, 3), seg(idx, 0, 1), seg(idx, 1, 2),
	}, "unordered")
	defer unordered.Close()
	sortedOther, err := unordered.Sort()
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	want := []int{0, 1, 2}
	var got []int
	all, err := sortedOther.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	for _, s := range all {
		got = append(got, s.effectiveStart())
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sorted starts = %v; want %v", got, want)
	}
}

func TestSegmentationIsNonOverlapping(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("abcdef")

	disjoint := NewSegmentationFromSegments(store, []Segment{
		seg(idx, 0, 2), seg(idx, 2, 4), seg(idx, 4, 6),
	}, "disjoint")
	defer disjoint.Close()
	ok, err := disjoint.IsNonOverlapping()
	if err != nil || !ok {
		t.Fatalf("IsNonOverlapping(disjoint) = %v, %v; want true, nil", ok, err)
	}

	overlapping := NewSegmentationFromSegments(store, []Segment{
		seg(idx, 0, 3), seg(idx, 2, 5),
	}, "overlapping")
	defer overlapping.Close()
	ok, err = overlapping.IsNonOverlapping()
	if err != nil || ok {
		t.Fatalf("IsNonOverlapping(overlapping) = %v, %v; want false, nil", ok, err)
	}
}

func TestSegmentationAnnotationKeys(t *testing.T) {
	store := NewStore()
	idx := store.AppendString("ab")
	sg := NewSegmentation(store, "s")
	defer sg.Close()

	s0 := seg(idx, 0, 1)
	s0.Annotations = map[string]string{"pos": "NOUN"}
	s1 := seg(idx, 1, 2)
	s1.Annotations = map[string]string{"pos": "VERB", "lemma": "be"}
	if err := sg.Extend([]Segment{s0, s1}); err != nil {
		t.Fatalf("Extend: %v", err)
	}

	keys, err := sg.GetAnnotationKeys()
	if err != nil {
		t.Fatalf("GetAnnotationKeys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"lemma", "pos"}) {
		t.Fatalf("GetAnnotationKeys = %v; want [lemma pos]", keys)
	}
}
