// Package table implements the crosstab family (C5 of the design): dense
// pivot tables over integer or float cells, and their "flat"/"weighted
// flat" occurrence-row counterparts, with sorting, transposition,
// normalization and association-matrix derivation.
package table

import "sort"

// axisIndex tracks an ordered, deduplicated list of row or column
// identifiers with O(1) id->position lookup, preserving first-appearance
// order unless explicitly reordered.
type axisIndex struct {
	ids   []string
	index map[string]int
}

func newAxisIndex() axisIndex {
	return axisIndex{index: map[string]int{}}
}

// ensure returns the position of id, appending it (at the end) if absent.
func (a *axisIndex) ensure(id string) int {
	if p, ok := a.index[id]; ok {
		return p
	}
	p := len(a.ids)
	a.ids = append(a.ids, id)
	a.index[id] = p
	return p
}

func (a *axisIndex) position(id string) (int, bool) {
	p, ok := a.index[id]
	return p, ok
}

func (a *axisIndex) len() int { return len(a.ids) }

// reorder permutes the axis to the given order (a permutation of a.ids)
// and returns the permutation (new position -> old position) for the
// caller to apply to any backing matrix.
func (a *axisIndex) reorder(newOrder []string) []int {
	perm := make([]int, len(newOrder))
	index := map[string]int{}
	for i, id := range newOrder {
		perm[i] = a.index[id]
		index[id] = i
	}
	a.ids = newOrder
	a.index = index
	return perm
}

func sortedCopy(ids []string, reverse bool) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// sortByValues returns ids ordered by the given score for each, stable on
// ties (preserving ids' current relative order), ascending unless reverse.
func sortByValues(ids []string, score func(string) float64, reverse bool) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := score(out[i]), score(out[j])
		if reverse {
			return si > sj
		}
		return si < sj
	})
	return out
}

// FloatCrosstab is a dense row x col table of float64 cells, the result
// type of normalization and association-matrix derivation.
type FloatCrosstab struct {
	rows, cols axisIndex
	values     [][]float64
}

// NewFloatCrosstab returns an empty float crosstab.
func NewFloatCrosstab() *FloatCrosstab {
	return &FloatCrosstab{rows: newAxisIndex(), cols: newAxisIndex()}
}

// RowIDs returns the row identifiers in their current order.
func (t *FloatCrosstab) RowIDs() []string { return append([]string(nil), t.rows.ids...) }

// ColIDs returns the column identifiers in their current order.
func (t *FloatCrosstab) ColIDs() []string { return append([]string(nil), t.cols.ids...) }

// Get returns the cell at (row,col), or missing if either id is absent.
func (t *FloatCrosstab) Get(row, col string, missing float64) float64 {
	r, ok := t.rows.position(row)
	if !ok {
		return missing
	}
	c, ok := t.cols.position(col)
	if !ok {
		return missing
	}
	return t.values[r][c]
}

// Set assigns the cell at (row,col), creating the row/col if needed.
func (t *FloatCrosstab) Set(row, col string, v float64) {
	r := t.rows.ensure(row)
	c := t.cols.ensure(col)
	t.growTo(r, c)
	t.values[r][c] = v
}

func (t *FloatCrosstab) growTo(r, c int) {
	for len(t.values) <= r {
		t.values = append(t.values, make([]float64, t.cols.len()))
	}
	for i := range t.values {
		for len(t.values[i]) <= c {
			t.values[i] = append(t.values[i], 0)
		}
	}
}

// ToSorted returns a copy with rows and/or columns reordered. keyRow/keyCol
// is either "id" (sort the axis alphabetically) or another axis' id (sort
// this axis by the values found along that row/column); pass "" to leave
// an axis unreordered.
func (t *FloatCrosstab) ToSorted(keyRow string, reverseRow bool, keyCol string, reverseCol bool) *FloatCrosstab {
	out := t.clone()
	if keyCol != "" {
		var newCols []string
		if keyCol == "id" {
			newCols = sortedCopy(out.cols.ids, reverseCol)
		} else {
			newCols = sortByValues(out.cols.ids, func(col string) float64 {
				return out.Get(keyCol, col, 0)
			}, reverseCol)
		}
		perm := out.cols.reorder(newCols)
		out.permuteCols(perm)
	}
	if keyRow != "" {
		var newRows []string
		if keyRow == "id" {
			newRows = sortedCopy(out.rows.ids, reverseRow)
		} else {
			newRows = sortByValues(out.rows.ids, func(row string) float64 {
				return out.Get(row, keyRow, 0)
			}, reverseRow)
		}
		perm := out.rows.reorder(newRows)
		out.permuteRows(perm)
	}
	return out
}

func (t *FloatCrosstab) clone() *FloatCrosstab {
	out := &FloatCrosstab{rows: t.rows, cols: t.cols}
	out.rows.ids = append([]string(nil), t.rows.ids...)
	out.rows.index = map[string]int{}
	for k, v := range t.rows.index {
		out.rows.index[k] = v
	}
	out.cols.ids = append([]string(nil), t.cols.ids...)
	out.cols.index = map[string]int{}
	for k, v := range t.cols.index {
		out.cols.index[k] = v
	}
	out.values = make([][]float64, len(t.values))
	for i, row := range t.values {
		out.values[i] = append([]float64(nil), row...)
	}
	return out
}

func (t *FloatCrosstab) permuteCols(perm []int) {
	for i, row := range t.values {
		newRow := make([]float64, len(perm))
		for j, old := range perm {
			newRow[j] = row[old]
		}
		t.values[i] = newRow
	}
}

func (t *FloatCrosstab) permuteRows(perm []int) {
	newValues := make([][]float64, len(perm))
	for i, old := range perm {
		newValues[i] = t.values[old]
	}
	t.values = newValues
}

// ToTransposed swaps rows and columns.
func (t *FloatCrosstab) ToTransposed() *FloatCrosstab {
	out := NewFloatCrosstab()
	for r, rid := range t.rows.ids {
		for c, cid := range t.cols.ids {
			out.Set(cid, rid, t.values[r][c])
		}
	}
	return out
}

// ToWeightedFlat explodes the table into occurrence rows (row_id, col_id,
// value), one per non-zero cell, the float-pivot counterpart of
// IntPivotCrosstab.ToWeightedFlat.
func (t *FloatCrosstab) ToWeightedFlat() *WeightedFlatCrosstab {
	out := NewWeightedFlatCrosstab()
	for r, rid := range t.rows.ids {
		for c, cid := range t.cols.ids {
			if v := t.values[r][c]; v != 0 {
				out.Append(rid, cid, v)
			}
		}
	}
	return out
}
