package table

import "testing"

func TestIncrementAndGet(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("ctx1", "the", 1)
	tab.Increment("ctx1", "the", 1)
	tab.Increment("ctx1", "fox", 1)
	tab.Increment("ctx2", "the", 1)

	if got := tab.Get("ctx1", "the", -1); got != 2 {
		t.Fatalf("Get(ctx1,the) = %d; want 2", got)
	}
	if got := tab.Get("ctx2", "fox", -1); got != -1 {
		t.Fatalf("Get(ctx2,fox) missing cell = %d; want -1", got)
	}
}

func TestFlatPivotRoundTrip(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("r1", "c1", 3)
	tab.Increment("r1", "c2", 1)
	tab.Increment("r2", "c1", 2)

	flat := tab.ToFlat()
	back := flat.ToPivot()

	for _, r := range tab.RowIDs() {
		for _, c := range tab.ColIDs() {
			want := tab.Get(r, c, 0)
			got := back.Get(r, c, 0)
			if got != want {
				t.Fatalf("round trip cell (%s,%s) = %d; want %d", r, c, got, want)
			}
		}
	}
}

func TestWeightedFlatPivotRoundTrip(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("r1", "c1", 5)
	tab.Increment("r2", "c2", 7)

	wf := tab.ToWeightedFlat()
	if wf.Len() != 2 {
		t.Fatalf("ToWeightedFlat produced %d rows; want 2", wf.Len())
	}
	back := wf.ToPivot()
	if back.Get("r1", "c1", 0) != 5 || back.Get("r2", "c2", 0) != 7 {
		t.Fatalf("weighted round trip mismatch: r1/c1=%d r2/c2=%d", back.Get("r1", "c1", 0), back.Get("r2", "c2", 0))
	}
}

func TestToTransposed(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("r1", "c1", 1)
	tab.Increment("r1", "c2", 2)

	tr := tab.ToTransposed()
	if tr.Get("c1", "r1", -1) != 1 || tr.Get("c2", "r1", -1) != 2 {
		t.Fatalf("ToTransposed mismatch")
	}
}

func TestToPresenceAbsence(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("r1", "c1", 0)
	tab.Set("r1", "c1", 0)
	tab.Increment("r1", "c2", 5)

	pa := tab.ToPresenceAbsence()
	if pa.Get("r1", "c1", -1) != 0 {
		t.Fatalf("zero cell should stay 0")
	}
	if pa.Get("r1", "c2", -1) != 1 {
		t.Fatalf("nonzero cell should become 1")
	}
}

func TestToSortedByID(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("b", "y", 1)
	tab.Increment("a", "x", 1)

	sorted := tab.ToSorted("id", false, "id", false)
	rows := sorted.RowIDs()
	if rows[0] != "a" || rows[1] != "b" {
		t.Fatalf("ToSorted(id) rows = %v; want [a b]", rows)
	}
}

func TestToAssociationMatrixDiagonalDominance(t *testing.T) {
	tab := NewIntPivotCrosstab()
	tab.Increment("ctx1", "a", 3)
	tab.Increment("ctx1", "b", 1)
	tab.Increment("ctx2", "a", 1)
	tab.Increment("ctx2", "b", 2)

	assoc := tab.ToAssociationMatrix(BiasFrequent)
	if assoc.Get("a", "a", 0) <= 0 {
		t.Fatalf("association matrix diagonal should be positive")
	}
}
