package processor

import (
	"math/rand"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/errs"
	"github.com/corpuskit/lttl/stats"
	"github.com/corpuskit/lttl/table"
)

// VarietyOptions selects among the variety_in_context/variety_in_window
// measurement modes described on VarietyInContext.
type VarietyOptions struct {
	UnitWeighting bool // perplexity instead of |support| for the plain/MC modes

	// Resampling, when non-zero, requests a subsample of this size instead
	// of the raw per-row variety.
	Resampling int
	// NumSubsamples, used only when UnitWeighting && Resampling > 0 (or
	// under MeasurePerCategory+Adjust), draws this many Monte-Carlo
	// subsamples and reports their average/stddev.
	NumSubsamples int
	Rand          *rand.Rand

	// MeasurePerCategory switches to the category-aware measure: units are
	// recoded as "category<delim>unit" and the reported value is the
	// fraction of distinct recoded keys per distinct category.
	MeasurePerCategory bool
	CategoryKey        string
	CategoryDelimiter  rune
	// Adjust requests RMSP/NLTTR-targeted subsampling within the
	// per-category measure (meaningless without MeasurePerCategory).
	Adjust bool
}

// VarietyRow is one result row of variety_in_context/variety_in_window.
type VarietyRow struct {
	ID         string
	Variety    float64
	Stdev      float64
	SampleSize int
	Count      int
}

type categoryRow struct {
	id       string
	byCat    map[string]int // category -> token count
	recoded  map[string]int // "category<delim>unit" -> token count
	sequence int64          // total tokens in the row
}

// VarietyInContext computes, for each context segment, a lexical-diversity
// measure of the unit types it contains, per VarietyOptions:
//
//   - plain: |distinct unit types| (or perplexity if UnitWeighting)
//   - resampling only: the closed-form hypergeometric expected variety of a
//     Resampling-size subsample
//   - resampling + UnitWeighting: the average/stddev of NumSubsamples
//     Monte-Carlo subsample varieties (or perplexities)
//   - MeasurePerCategory: recode each unit as "category<delim>unit" and
//     report |distinct recoded keys| / |distinct categories|; with Adjust,
//     the subsample size for each row is chosen by bisection so its NLTTR
//     matches the maximum NLTTR observed across all rows (RMSP), and the
//     reported variety is averaged over NumSubsamples draws at that size
//
// seq_length>1 together with MeasurePerCategory is a configuration error.
func VarietyInContext(store *corpus.Store, units UnitSpec, contexts ContextSpec, opts VarietyOptions) ([]VarietyRow, error) {
	if opts.MeasurePerCategory && units.seqLen() > 1 {
		return nil, errs.ConfigurationErrorf("processor: variety_in_context: seq_length > 1 is incompatible with measure_per_category")
	}

	if opts.MeasurePerCategory {
		var rows []categoryRow
		err := contexts.Segmentation.ForEach(func(_ int, ctxSeg corpus.Segment) error {
			ctxType, err := contexts.typeOf(store, ctxSeg)
			if err != nil {
				return err
			}
			cr, err := buildCategoryRow(store, units, opts, ctxType, containedUnitStarts(store, ctxSeg, units))
			if err != nil {
				return err
			}
			rows = append(rows, cr)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return varietyPerCategory(rows, opts)
	}

	var out []VarietyRow
	err := contexts.Segmentation.ForEach(func(_ int, ctxSeg corpus.Segment) error {
		ctxType, err := contexts.typeOf(store, ctxSeg)
		if err != nil {
			return err
		}
		dict := map[string]int{}
		for _, idx := range containedUnitStarts(store, ctxSeg, units) {
			typ, err := units.typeAt(store, idx)
			if err != nil {
				return err
			}
			dict[typ]++
		}
		row, err := varietyForDict(ctxType, dict, opts)
		if err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// VarietyInWindow is variety_in_context's sliding-window counterpart: row
// "w" (1-based window start) reports the variety measure over the unit
// types contained in the size-windowSize window starting at position w-1.
func VarietyInWindow(store *corpus.Store, units UnitSpec, windowSize int, opts VarietyOptions) ([]VarietyRow, error) {
	if opts.MeasurePerCategory && units.seqLen() > 1 {
		return nil, errs.ConfigurationErrorf("processor: variety_in_window: seq_length > 1 is incompatible with measure_per_category")
	}
	n := units.Segmentation.Len()
	seqLen := units.seqLen()
	if windowSize < seqLen || n < windowSize {
		return nil, nil
	}

	if opts.MeasurePerCategory {
		var rows []categoryRow
		for w := 0; w+windowSize <= n; w++ {
			starts := make([]int, 0, windowSize/seqLen+1)
			for s := w; s+seqLen <= w+windowSize; s++ {
				starts = append(starts, s)
			}
			cr, err := buildCategoryRow(store, units, opts, rowIDFor(w), starts)
			if err != nil {
				return nil, err
			}
			rows = append(rows, cr)
		}
		return varietyPerCategory(rows, opts)
	}

	var out []VarietyRow
	for w := 0; w+windowSize <= n; w++ {
		dict := map[string]int{}
		for s := w; s+seqLen <= w+windowSize; s++ {
			typ, err := units.typeAt(store, s)
			if err != nil {
				return nil, err
			}
			dict[typ]++
		}
		row, err := varietyForDict(rowIDFor(w), dict, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func rowIDFor(w int) string { return itoa(w + 1) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func weighting(opts VarietyOptions) stats.Weighting {
	if opts.UnitWeighting {
		return stats.Weighted
	}
	return stats.Unweighted
}

// varietyForDict applies the plain/resampling/Monte-Carlo measurement to
// one row's unit-type frequency dict.
func varietyForDict(id string, dict map[string]int, opts VarietyOptions) (VarietyRow, error) {
	if opts.Resampling <= 0 {
		return VarietyRow{ID: id, Variety: stats.GetVariety(dict, weighting(opts))}, nil
	}
	if !opts.UnitWeighting {
		v := stats.GetExpectedSubsampleVariety(dict, opts.Resampling)
		return VarietyRow{ID: id, Variety: v, SampleSize: opts.Resampling}, nil
	}
	values, err := monteCarloVarieties(dict, opts.Resampling, opts.NumSubsamples, opts.Rand, true)
	if err != nil {
		return VarietyRow{}, err
	}
	mean, stdev := stats.GetAverage(values, nil)
	return VarietyRow{ID: id, Variety: mean, Stdev: stdev, SampleSize: opts.Resampling, Count: len(values)}, nil
}

// monteCarloVarieties draws numSubsamples samples of size k from dict
// without replacement (via stats.SampleDict) and returns the variety (or
// perplexity, if weighted) of each draw.
func monteCarloVarieties(dict map[string]int, k, numSubsamples int, rng *rand.Rand, weighted bool) ([]float64, error) {
	w := stats.Unweighted
	if weighted {
		w = stats.Weighted
	}
	out := make([]float64, 0, numSubsamples)
	for i := 0; i < numSubsamples; i++ {
		sample, err := stats.SampleDict(dict, k, rng)
		if err != nil {
			return nil, err
		}
		sampleDict := map[string]int{}
		for _, key := range sample {
			sampleDict[key]++
		}
		out = append(out, stats.GetVariety(sampleDict, w))
	}
	return out, nil
}

// buildCategoryRow scans the units at starts, grouping their category-key
// annotation into byCat and their "category<delim>unit" recoding into
// recoded.
func buildCategoryRow(store *corpus.Store, units UnitSpec, opts VarietyOptions, id string, starts []int) (categoryRow, error) {
	cr := categoryRow{id: id, byCat: map[string]int{}, recoded: map[string]int{}}
	for _, idx := range starts {
		seg, err := units.Segmentation.Get(idx)
		if err != nil {
			return categoryRow{}, err
		}
		unit, err := unitValue(store, seg, units.AnnotationKey)
		if err != nil {
			return categoryRow{}, err
		}
		category := seg.Annotations[opts.CategoryKey]
		cr.byCat[category]++
		cr.recoded[stats.FormatRecodedKey(category, opts.CategoryDelimiter, unit)]++
		cr.sequence++
	}
	return cr, nil
}

// varietyPerCategory implements the measure_per_category path (with or
// without the RMSP/NLTTR adjustment) described on VarietyInContext.
func varietyPerCategory(rows []categoryRow, opts VarietyOptions) ([]VarietyRow, error) {
	if !opts.Adjust {
		out := make([]VarietyRow, 0, len(rows))
		for _, r := range rows {
			if len(r.byCat) == 0 {
				out = append(out, VarietyRow{ID: r.id})
				continue
			}
			out = append(out, VarietyRow{ID: r.id, Variety: float64(len(r.recoded)) / float64(len(r.byCat))})
		}
		return out, nil
	}

	targetT := 0.0
	for _, r := range rows {
		if r.sequence == 0 {
			continue
		}
		nlttr := stats.GetExpectedSubsampleVariety(r.byCat, int(r.sequence)) / float64(r.sequence)
		if nlttr > targetT {
			targetT = nlttr
		}
	}

	out := make([]VarietyRow, 0, len(rows))
	for _, r := range rows {
		numCategories := len(r.byCat)
		if numCategories == 0 || r.sequence < 2 {
			out = append(out, VarietyRow{ID: r.id, SampleSize: int(r.sequence), Count: int(r.sequence)})
			continue
		}
		k := bisectSubsampleSize(r.byCat, r.sequence, targetT)
		values, err := monteCarloVarieties(r.recoded, k, opts.NumSubsamples, opts.Rand, true)
		if err != nil {
			return nil, err
		}
		mean, stdev := stats.GetAverage(values, nil)
		out = append(out, VarietyRow{
			ID:         r.id,
			Variety:    mean / float64(numCategories),
			Stdev:      stdev / float64(numCategories),
			SampleSize: k,
			Count:      len(values),
		})
	}
	return out, nil
}

// bisectSubsampleSize finds, within [2,n], the sub-sample size k whose
// normalized lexematic type-token ratio (NLTTR = E[V_sub(dict,k)]/k) is
// closest to targetT.
func bisectSubsampleSize(dict map[string]int, n int64, targetT float64) int {
	lo, hi := int64(2), n
	if lo >= hi {
		return int(n)
	}
	nlttr := func(k int64) float64 {
		return stats.GetExpectedSubsampleVariety(dict, int(k)) / float64(k)
	}
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if nlttr(mid) > targetT {
			lo = mid
		} else {
			hi = mid
		}
	}
	if absFloat(nlttr(lo)-targetT) <= absFloat(nlttr(hi)-targetT) {
		return int(lo)
	}
	return int(hi)
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// ToVarietyTable renders a VarietyRow slice as a FloatCrosstab with columns
// "variety","stdev","sample_size","count".
func ToVarietyTable(rows []VarietyRow) *table.FloatCrosstab {
	out := table.NewFloatCrosstab()
	for _, r := range rows {
		out.Set(r.ID, "variety", r.Variety)
		out.Set(r.ID, "stdev", r.Stdev)
		out.Set(r.ID, "sample_size", float64(r.SampleSize))
		out.Set(r.ID, "count", float64(r.Count))
	}
	return out
}
