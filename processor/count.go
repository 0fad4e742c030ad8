package processor

import (
	"fmt"
	"strings"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/table"
)

// CountInContext tabulates, for each context segment (or, if contexts is
// nil, for the whole corpus as a single "__global__" row), the frequency
// of every unit type contained in it. Both axes are ordered by first
// appearance during construction.
func CountInContext(store *corpus.Store, units UnitSpec, contexts *ContextSpec) (*table.IntPivotCrosstab, error) {
	out := table.NewIntPivotCrosstab()

	if contexts == nil {
		n := units.Segmentation.Len()
		seqLen := units.seqLen()
		for i := 0; i+seqLen <= n; i++ {
			typ, err := units.typeAt(store, i)
			if err != nil {
				return nil, err
			}
			out.Increment(globalRow, typ, 1)
		}
		return out, nil
	}

	err := contexts.Segmentation.ForEach(func(_ int, ctxSeg corpus.Segment) error {
		ctxType, err := contexts.typeOf(store, ctxSeg)
		if err != nil {
			return err
		}
		out.EnsureRow(ctxType)
		starts := containedUnitStarts(store, ctxSeg, units)
		for _, idx := range starts {
			typ, err := units.typeAt(store, idx)
			if err != nil {
				return err
			}
			out.Increment(ctxType, typ, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountInWindow tabulates, for each size-windowSize sliding window over
// units (row ids "1".."N-windowSize+1"), the frequency of every unit type
// contained in it.
func CountInWindow(store *corpus.Store, units UnitSpec, windowSize int) (*table.IntPivotCrosstab, error) {
	out := table.NewIntPivotCrosstab()
	n := units.Segmentation.Len()
	seqLen := units.seqLen()
	if windowSize < seqLen || n < windowSize {
		return out, nil
	}

	for w := 0; w+windowSize <= n; w++ {
		rowID := fmt.Sprintf("%d", w+1)
		out.EnsureRow(rowID)
		for s := w; s+seqLen <= w+windowSize; s++ {
			typ, err := units.typeAt(store, s)
			if err != nil {
				return nil, err
			}
			out.Increment(rowID, typ, 1)
		}
	}
	return out, nil
}

// CountInChain tabulates, over windows of width left+seqLen+right sliding
// across units, a (context, unit) cell per window: the unit type is the
// middle seqLen-run, and the context type is "LEFT<marker>RIGHT" built from
// the left and right flanking runs. A window whose underlying str_index
// isn't constant across its whole width is skipped unless mergeStrings.
func CountInChain(store *corpus.Store, units UnitSpec, left, right int, marker string, mergeStrings bool) (*table.IntPivotCrosstab, error) {
	out := table.NewIntPivotCrosstab()
	seqLen := units.seqLen()
	total := left + seqLen + right
	n := units.Segmentation.Len()

	joinValues := func(start, length int) (string, error) {
		parts := make([]string, length)
		for i := 0; i < length; i++ {
			seg, err := units.Segmentation.Get(start + i)
			if err != nil {
				return "", err
			}
			v, err := unitValue(store, seg, units.AnnotationKey)
			if err != nil {
				return "", err
			}
			parts[i] = v
		}
		return strings.Join(parts, units.JoinDelimiter), nil
	}

	for w := 0; w+total <= n; w++ {
		if !mergeStrings {
			first, err := units.Segmentation.Get(w)
			if err != nil {
				return nil, err
			}
			sameString := true
			for i := 1; i < total; i++ {
				seg, err := units.Segmentation.Get(w + i)
				if err != nil {
					return nil, err
				}
				if seg.StrIndex != first.StrIndex {
					sameString = false
					break
				}
			}
			if !sameString {
				continue
			}
		}

		leftStr, err := joinValues(w, left)
		if err != nil {
			return nil, err
		}
		rightStr, err := joinValues(w+left+seqLen, right)
		if err != nil {
			return nil, err
		}
		unitStr, err := joinValues(w+left, seqLen)
		if err != nil {
			return nil, err
		}
		contextType := leftStr + marker + rightStr
		out.Increment(contextType, unitStr, 1)
	}
	return out, nil
}
