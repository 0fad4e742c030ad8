package processor

import (
	"fmt"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/stats"
	"github.com/corpuskit/lttl/table"
)

// LengthRow is one row of a length_in_context/length_in_window result:
// either a plain Count (no averaging segmentation given), or Count many
// Mean/Stdev measurements taken over an averaging segmentation's units
// nested in this context/window.
type LengthRow struct {
	ID    string
	Count int
	Mean  float64
	Stdev float64
}

// LengthInContext counts, for each context segment, the number of unit
// runs it contains. If averaging is non-nil, it instead reports, for each
// averaging-unit contained in the context, that averaging-unit's own
// contained-unit count, and aggregates those counts into a mean/stdev per
// context; context rows with zero averaging units are dropped.
func LengthInContext(store *corpus.Store, units UnitSpec, contexts ContextSpec, averaging *corpus.Segmentation) ([]LengthRow, error) {
	var rows []LengthRow
	err := contexts.Segmentation.ForEach(func(_ int, ctxSeg corpus.Segment) error {
		ctxType, err := contexts.typeOf(store, ctxSeg)
		if err != nil {
			return err
		}
		if averaging == nil {
			n := len(containedUnitStarts(store, ctxSeg, units))
			rows = append(rows, LengthRow{ID: ctxType, Count: n})
			return nil
		}
		avgStarts := corpus.GetContainedSegmentIndices(store, ctxSeg, averaging)
		if len(avgStarts) == 0 {
			return nil
		}
		values := make([]float64, 0, len(avgStarts))
		for _, i := range avgStarts {
			avgSeg, err := averaging.Get(i)
			if err != nil {
				return err
			}
			values = append(values, float64(len(containedUnitStarts(store, avgSeg, units))))
		}
		mean, stdev := stats.GetAverage(values, nil)
		rows = append(rows, LengthRow{ID: ctxType, Count: len(values), Mean: mean, Stdev: stdev})
		return nil
	})
	return rows, err
}

// LengthInWindow is LengthInContext's window-based counterpart: windowSize
// slides one unit position at a time across units, and row "w" (1-based,
// w ranging over every valid window start) reports the number of
// seqLen-unit runs the window contains. Each window's count is obtained by
// scanning that window's runs afresh. averaging is not meaningful without a second,
// independently positioned segmentation to sub-divide the window by, so
// LengthInWindow reports plain per-window counts; callers that need
// averaged window lengths should use LengthInContext against a
// window-derived context segmentation instead.
func LengthInWindow(store *corpus.Store, units UnitSpec, windowSize int) ([]LengthRow, error) {
	out := make([]LengthRow, 0)
	n := units.Segmentation.Len()
	seqLen := units.seqLen()
	if windowSize < seqLen || n < windowSize {
		return out, nil
	}

	for w := 0; w+windowSize <= n; w++ {
		count := 0
		for s := w; s+seqLen <= w+windowSize; s++ {
			count++
		}
		out = append(out, LengthRow{ID: fmt.Sprintf("%d", w+1), Count: count})
	}
	return out, nil
}

// ToCountTable renders a LengthRow slice (Count only) as a single-column
// IntPivotCrosstab.
func ToCountTable(rows []LengthRow) *table.IntPivotCrosstab {
	out := table.NewIntPivotCrosstab()
	for _, r := range rows {
		out.Set(r.ID, "count", int64(r.Count))
	}
	return out
}

// ToAveragedTable renders LengthRow.Mean/Count/Stdev as a FloatCrosstab.
func ToAveragedTable(rows []LengthRow) *table.FloatCrosstab {
	out := table.NewFloatCrosstab()
	for _, r := range rows {
		out.Set(r.ID, "mean", r.Mean)
		out.Set(r.ID, "count", float64(r.Count))
		out.Set(r.ID, "stdev", r.Stdev)
	}
	return out
}
