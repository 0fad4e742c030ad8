package table

import "math"

// IntPivotCrosstab is a dense row x col table of non-negative integer
// cells, the output type of the processor's counting operations.
type IntPivotCrosstab struct {
	rows, cols axisIndex
	values     [][]int64
}

// NewIntPivotCrosstab returns an empty integer crosstab.
func NewIntPivotCrosstab() *IntPivotCrosstab {
	return &IntPivotCrosstab{rows: newAxisIndex(), cols: newAxisIndex()}
}

func (t *IntPivotCrosstab) RowIDs() []string { return append([]string(nil), t.rows.ids...) }
func (t *IntPivotCrosstab) ColIDs() []string { return append([]string(nil), t.cols.ids...) }

// Get returns the cell at (row,col), or missing if either id is absent.
func (t *IntPivotCrosstab) Get(row, col string, missing int64) int64 {
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

func (t *IntPivotCrosstab) growTo(r, c int) {
	for len(t.values) <= r {
		t.values = append(t.values, make([]int64, t.cols.len()))
	}
	for i := range t.values {
		for len(t.values[i]) <= c {
			t.values[i] = append(t.values[i], 0)
		}
	}
}

// Set assigns the cell at (row,col), creating the row/col if needed.
func (t *IntPivotCrosstab) Set(row, col string, v int64) {
	r := t.rows.ensure(row)
	c := t.cols.ensure(col)
	t.growTo(r, c)
	t.values[r][c] = v
}

// Increment bumps the cell at (row,col) by delta, creating the row/col if
// needed, and returns the new value.
func (t *IntPivotCrosstab) Increment(row, col string, delta int64) int64 {
	r := t.rows.ensure(row)
	c := t.cols.ensure(col)
	t.growTo(r, c)
	t.values[r][c] += delta
	return t.values[r][c]
}

// EnsureRow makes row appear in the table (zero-filled) even if no cell in
// it is ever incremented, so a context/window that produced no counts
// still gets a row.
func (t *IntPivotCrosstab) EnsureRow(row string) {
	r := t.rows.ensure(row)
	t.growTo(r, t.cols.len()-1)
}

// EnsureCol is EnsureRow's column counterpart.
func (t *IntPivotCrosstab) EnsureCol(col string) {
	c := t.cols.ensure(col)
	t.growTo(t.rows.len()-1, c)
}

func (t *IntPivotCrosstab) clone() *IntPivotCrosstab {
	out := &IntPivotCrosstab{rows: t.rows, cols: t.cols}
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
	out.values = make([][]int64, len(t.values))
	for i, row := range t.values {
		out.values[i] = append([]int64(nil), row...)
	}
	return out
}

// ToSorted returns a copy with rows and/or columns reordered. See
// FloatCrosstab.ToSorted for the meaning of keyRow/keyCol.
func (t *IntPivotCrosstab) ToSorted(keyRow string, reverseRow bool, keyCol string, reverseCol bool) *IntPivotCrosstab {
	out := t.clone()
	if keyCol != "" {
		var newCols []string
		if keyCol == "id" {
			newCols = sortedCopy(out.cols.ids, reverseCol)
		} else {
			newCols = sortByValues(out.cols.ids, func(col string) float64 {
				return float64(out.Get(keyCol, col, 0))
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
				return float64(out.Get(row, keyRow, 0))
			}, reverseRow)
		}
		perm := out.rows.reorder(newRows)
		out.permuteRows(perm)
	}
	return out
}

func (t *IntPivotCrosstab) permuteCols(perm []int) {
	for i, row := range t.values {
		newRow := make([]int64, len(perm))
		for j, old := range perm {
			newRow[j] = row[old]
		}
		t.values[i] = newRow
	}
}

func (t *IntPivotCrosstab) permuteRows(perm []int) {
	newValues := make([][]int64, len(perm))
	for i, old := range perm {
		newValues[i] = t.values[old]
	}
	t.values = newValues
}

// ToTransposed swaps rows and columns.
func (t *IntPivotCrosstab) ToTransposed() *IntPivotCrosstab {
	out := NewIntPivotCrosstab()
	for r, rid := range t.rows.ids {
		for c, cid := range t.cols.ids {
			out.Set(cid, rid, t.values[r][c])
		}
	}
	return out
}

func (t *IntPivotCrosstab) rowSum(r int) int64 {
	var s int64
	for _, v := range t.values[r] {
		s += v
	}
	return s
}

func (t *IntPivotCrosstab) colSum(c int) int64 {
	var s int64
	for _, row := range t.values {
		s += row[c]
	}
	return s
}

func (t *IntPivotCrosstab) total() int64 {
	var s int64
	for r := range t.values {
		s += t.rowSum(r)
	}
	return s
}

// NormalizationMode selects the cell transform applied by ToNormalized.
type NormalizationMode int

const (
	NormL1 NormalizationMode = iota
	NormL2
	NormQuotients
	NormTFIDF
)

// NormalizationAxis selects what a NormL1/NormL2 normalization divides by.
type NormalizationAxis int

const (
	AxisRows NormalizationAxis = iota
	AxisCols
	AxisTable
)

// ToPresenceAbsence returns a copy where every nonzero cell becomes 1; the
// result stays integer-valued, unlike the other normalization modes.
func (t *IntPivotCrosstab) ToPresenceAbsence() *IntPivotCrosstab {
	out := t.clone()
	for r, row := range out.values {
		for c, v := range row {
			if v != 0 {
				out.values[r][c] = 1
			} else {
				out.values[r][c] = 0
			}
		}
	}
	return out
}

// ToDocumentFrequency returns a one-row table (row id "__document_frequency__")
// whose columns are t's columns, each holding the number of rows in t with
// a nonzero cell in that column.
func (t *IntPivotCrosstab) ToDocumentFrequency() *IntPivotCrosstab {
	out := NewIntPivotCrosstab()
	for c, cid := range t.cols.ids {
		out.Set("__document_frequency__", cid, t.colSum2(c))
	}
	return out
}

func (t *IntPivotCrosstab) colSum2(c int) int64 {
	var n int64
	for _, row := range t.values {
		if row[c] != 0 {
			n++
		}
	}
	return n
}

// ToNormalized applies an l1/l2/quotients/TF-IDF transform and returns a
// float crosstab (presence/absence normalization is handled separately by
// ToPresenceAbsence, since it stays integer).
func (t *IntPivotCrosstab) ToNormalized(mode NormalizationMode, axis NormalizationAxis) *FloatCrosstab {
	out := NewFloatCrosstab()
	nRows := len(t.rows.ids)

	switch mode {
	case NormL1, NormL2:
		rowSums := make([]float64, nRows)
		colSums := make([]float64, len(t.cols.ids))
		var tableSum float64
		for r, row := range t.values {
			for c, v := range row {
				fv := float64(v)
				if mode == NormL2 {
					fv = fv * fv
				}
				rowSums[r] += fv
				colSums[c] += fv
				tableSum += fv
			}
		}
		if mode == NormL2 {
			for i := range rowSums {
				rowSums[i] = math.Sqrt(rowSums[i])
			}
			for i := range colSums {
				colSums[i] = math.Sqrt(colSums[i])
			}
			tableSum = math.Sqrt(tableSum)
		}
		for r, rid := range t.rows.ids {
			for c, cid := range t.cols.ids {
				v := float64(t.values[r][c])
				var denom float64
				switch axis {
				case AxisRows:
					denom = rowSums[r]
				case AxisCols:
					denom = colSums[c]
				case AxisTable:
					denom = tableSum
				}
				if denom == 0 {
					out.Set(rid, cid, 0)
				} else {
					out.Set(rid, cid, v/denom)
				}
			}
		}
	case NormQuotients:
		total := float64(t.total())
		for r, rid := range t.rows.ids {
			rs := float64(t.rowSum(r))
			for c, cid := range t.cols.ids {
				cs := float64(t.colSum(c))
				v := float64(t.values[r][c])
				if rs == 0 || cs == 0 || total == 0 {
					out.Set(rid, cid, 0)
					continue
				}
				out.Set(rid, cid, v*total/(rs*cs))
			}
		}
	case NormTFIDF:
		n := float64(nRows)
		df := t.ToDocumentFrequency()
		for r, rid := range t.rows.ids {
			for c, cid := range t.cols.ids {
				v := float64(t.values[r][c])
				d := float64(df.Get("__document_frequency__", cid, 0))
				if v == 0 || d == 0 {
					out.Set(rid, cid, 0)
					continue
				}
				out.Set(rid, cid, v*math.Log(n/d))
			}
		}
	}
	return out
}

// AssociationBias selects the Markov association-matrix normalization.
type AssociationBias int

const (
	BiasFrequent AssociationBias = iota
	BiasNone
	BiasOther
)

// ToAssociationMatrix computes the column-by-column Markov associativity
// matrix E = Fᵀ·D_r·F/T (F the value matrix, D_r = diag(1/row sum), T the
// grand total), then rescales it per bias:
//
//	BiasFrequent -> E
//	BiasNone     -> D_π^{-1/2}·E·D_π^{-1/2}, π = column sums / T
//	BiasOther    -> D_π^{-1}·E·D_π^{-1}
func (t *IntPivotCrosstab) ToAssociationMatrix(bias AssociationBias) *FloatCrosstab {
	nRows := len(t.rows.ids)
	nCols := len(t.cols.ids)
	total := float64(t.total())

	invRowSum := make([]float64, nRows)
	for r := range t.values {
		s := float64(t.rowSum(r))
		if s != 0 {
			invRowSum[r] = 1 / s
		}
	}

	// E[i][j] = sum_r F[r][i] * invRowSum[r] * F[r][j] / total
	e := make([][]float64, nCols)
	for i := range e {
		e[i] = make([]float64, nCols)
	}
	for r := range t.values {
		ir := invRowSum[r]
		if ir == 0 {
			continue
		}
		row := t.values[r]
		for i := 0; i < nCols; i++ {
			fi := float64(row[i])
			if fi == 0 {
				continue
			}
			for j := 0; j < nCols; j++ {
				e[i][j] += fi * ir * float64(row[j])
			}
		}
	}
	if total != 0 {
		for i := range e {
			for j := range e[i] {
				e[i][j] /= total
			}
		}
	}

	out := NewFloatCrosstab()
	if bias == BiasFrequent {
		for i, cid := range t.cols.ids {
			for j, cjd := range t.cols.ids {
				out.Set(cid, cjd, e[i][j])
			}
		}
		return out
	}

	pi := make([]float64, nCols)
	for c := 0; c < nCols; c++ {
		if total != 0 {
			pi[c] = float64(t.colSum(c)) / total
		}
	}
	scale := make([]float64, nCols)
	for c := range pi {
		if pi[c] <= 0 {
			scale[c] = 0
			continue
		}
		if bias == BiasNone {
			scale[c] = 1 / math.Sqrt(pi[c])
		} else {
			scale[c] = 1 / pi[c]
		}
	}
	for i, cid := range t.cols.ids {
		for j, cjd := range t.cols.ids {
			out.Set(cid, cjd, scale[i]*e[i][j]*scale[j])
		}
	}
	return out
}

// ToFlat explodes the table into occurrence rows (row_id, col_id), one per
// unit of count, dropping zero cells. The round trip
// ToFlat().ToPivot() == t holds cell-wise whenever t has no zero cells of
// its own (see FlatCrosstab.ToPivot).
func (t *IntPivotCrosstab) ToFlat() *FlatCrosstab {
	out := NewFlatCrosstab()
	for r, rid := range t.rows.ids {
		for c, cid := range t.cols.ids {
			for k := int64(0); k < t.values[r][c]; k++ {
				out.Append(rid, cid)
			}
		}
	}
	return out
}

// ToWeightedFlat explodes the table into occurrence rows (row_id, col_id,
// count), dropping zero cells.
func (t *IntPivotCrosstab) ToWeightedFlat() *IntWeightedFlatCrosstab {
	out := NewIntWeightedFlatCrosstab()
	for r, rid := range t.rows.ids {
		for c, cid := range t.cols.ids {
			if v := t.values[r][c]; v != 0 {
				out.Append(rid, cid, v)
			}
		}
	}
	return out
}
