package table

// FlatCrosstab is a "flat" table: one row per (row_id, col_id) occurrence,
// with duplicates meaningful (two occurrence rows for the same pair stand
// for a cell value of 2 once pivoted back).
type FlatCrosstab struct {
	RowID []string
	ColID []string
}

// NewFlatCrosstab returns an empty flat crosstab.
func NewFlatCrosstab() *FlatCrosstab { return &FlatCrosstab{} }

// Append records one occurrence of (row,col).
func (f *FlatCrosstab) Append(row, col string) {
	f.RowID = append(f.RowID, row)
	f.ColID = append(f.ColID, col)
}

// Len returns the number of occurrence rows.
func (f *FlatCrosstab) Len() int { return len(f.RowID) }

// ToPivot rebuilds a sparse IntPivotCrosstab from the occurrence rows,
// summing duplicates. Axis order reflects first appearance in f.
func (f *FlatCrosstab) ToPivot() *IntPivotCrosstab {
	out := NewIntPivotCrosstab()
	for i := range f.RowID {
		out.Increment(f.RowID[i], f.ColID[i], 1)
	}
	return out
}

// IntWeightedFlatCrosstab is FlatCrosstab plus an explicit integer per-row
// count, letting a single occurrence row stand in for an arbitrary-sized
// cell without being repeated. It is IntPivotCrosstab's weighted-flat
// counterpart.
type IntWeightedFlatCrosstab struct {
	RowID  []string
	ColID  []string
	Weight []int64
}

// NewIntWeightedFlatCrosstab returns an empty weighted flat crosstab.
func NewIntWeightedFlatCrosstab() *IntWeightedFlatCrosstab { return &IntWeightedFlatCrosstab{} }

// Append records weight occurrences of (row,col) in a single row.
func (f *IntWeightedFlatCrosstab) Append(row, col string, weight int64) {
	f.RowID = append(f.RowID, row)
	f.ColID = append(f.ColID, col)
	f.Weight = append(f.Weight, weight)
}

// Len returns the number of occurrence rows.
func (f *IntWeightedFlatCrosstab) Len() int { return len(f.RowID) }

// ToPivot rebuilds a sparse IntPivotCrosstab from the weighted occurrence
// rows, summing duplicates.
func (f *IntWeightedFlatCrosstab) ToPivot() *IntPivotCrosstab {
	out := NewIntPivotCrosstab()
	for i := range f.RowID {
		out.Increment(f.RowID[i], f.ColID[i], f.Weight[i])
	}
	return out
}

// WeightedFlatCrosstab is FloatCrosstab's weighted-flat counterpart: one
// row per (row_id, col_id) cell with a non-zero value, carrying that value
// as a float weight rather than repeating the row.
type WeightedFlatCrosstab struct {
	RowID  []string
	ColID  []string
	Weight []float64
}

// NewWeightedFlatCrosstab returns an empty weighted flat crosstab.
func NewWeightedFlatCrosstab() *WeightedFlatCrosstab { return &WeightedFlatCrosstab{} }

// Append records weight as the value of (row,col) in a single row.
func (f *WeightedFlatCrosstab) Append(row, col string, weight float64) {
	f.RowID = append(f.RowID, row)
	f.ColID = append(f.ColID, col)
	f.Weight = append(f.Weight, weight)
}

// Len returns the number of occurrence rows.
func (f *WeightedFlatCrosstab) Len() int { return len(f.RowID) }

// ToPivot rebuilds a sparse FloatCrosstab from the weighted occurrence
// rows. Later rows for the same (row,col) pair overwrite earlier ones,
// mirroring FloatCrosstab.Set rather than accumulating, since float cell
// values (unlike int counts) are not generally meaningful to sum.
func (f *WeightedFlatCrosstab) ToPivot() *FloatCrosstab {
	out := NewFloatCrosstab()
	for i := range f.RowID {
		out.Set(f.RowID[i], f.ColID[i], f.Weight[i])
	}
	return out
}
