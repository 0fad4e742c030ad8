package processor

import (
	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/table"
)

// CoocInWindow builds CountInWindow(units, windowSize), normalizes it to
// presence/absence, and returns normalizedᵀ·normalized: the diagonal holds
// each unit type's document frequency (number of windows containing it);
// off-diagonal cells hold the number of windows containing both types.
func CoocInWindow(store *corpus.Store, units UnitSpec, windowSize int) (*table.FloatCrosstab, error) {
	counts, err := CountInWindow(store, units, windowSize)
	if err != nil {
		return nil, err
	}
	presence := counts.ToPresenceAbsence()
	return presenceSelfProduct(presence), nil
}

// CoocInContext is CoocInWindow's context-based counterpart. With units2
// nil it uses CountInContext(units, contexts) the same way CoocInWindow
// uses CountInWindow. With units2 non-nil, it builds presence/absence
// matrices for both unit specs over the same contexts, aligns them on the
// intersection of context row ids, and returns normalized2ᵀ·normalized1:
// rows are units2's unit types, columns are units's unit types.
func CoocInContext(store *corpus.Store, units UnitSpec, contexts ContextSpec, units2 *UnitSpec) (*table.FloatCrosstab, error) {
	counts1, err := CountInContext(store, units, &contexts)
	if err != nil {
		return nil, err
	}
	presence1 := counts1.ToPresenceAbsence()

	if units2 == nil {
		return presenceSelfProduct(presence1), nil
	}

	counts2, err := CountInContext(store, *units2, &contexts)
	if err != nil {
		return nil, err
	}
	presence2 := counts2.ToPresenceAbsence()

	return presenceCrossProduct(presence2, presence1), nil
}

// presenceSelfProduct returns pᵀ·p for a presence/absence IntPivotCrosstab
// p: result rows and columns are both p's column ids (unit types), and
// cell (a,b) is the number of rows of p where both a and b are present.
func presenceSelfProduct(p *table.IntPivotCrosstab) *table.FloatCrosstab {
	return presenceCrossProduct(p, p)
}

// presenceCrossProduct returns aᵀ·b, restricted to the intersection of a's
// and b's row ids: rows of the result are a's column ids, columns are b's
// column ids, and cell (x,y) counts rows (present in both a and b) where a
// has column x set and b has column y set.
func presenceCrossProduct(a, b *table.IntPivotCrosstab) *table.FloatCrosstab {
	out := table.NewFloatCrosstab()

	bRows := map[string]bool{}
	for _, r := range b.RowIDs() {
		bRows[r] = true
	}

	for _, row := range a.RowIDs() {
		if !bRows[row] {
			continue
		}
		for _, colA := range a.ColIDs() {
			if a.Get(row, colA, 0) == 0 {
				continue
			}
			for _, colB := range b.ColIDs() {
				if b.Get(row, colB, 0) == 0 {
					continue
				}
				out.Set(colA, colB, out.Get(colA, colB, 0)+1)
			}
		}
	}
	return out
}
