package processor

import (
	"math"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/table"
)

// NeighborsRow is one row of a neighbors result: a unit occurrence plus its
// K left and K right neighbor types (empty string where a neighbor does
// not exist or was excluded by the str_index check).
type NeighborsRow struct {
	Position  int
	Left      []string // Left[0] is the farthest, Left[K-1] the nearest (positions -K..-1)
	Key       string
	Right     []string // Right[0] is the nearest, Right[K-1] the farthest (positions +1..+K)
	Annotation string
}

// NeighborsOptions configures Neighbors/Collocations.
type NeighborsOptions struct {
	K             int
	AnnotationKey string // optional extra annotation column
	MergeStrings  bool   // include neighbors even across a str_index boundary
}

// Neighbors produces one row per unit occurrence in units.Segmentation: its
// position, its K left and K right neighbor unit types (unitValue against
// the same AnnotationKey as units itself), and an optional annotation
// column. A neighbor at distance d is included only if its str_index
// matches the unit's own, unless opts.MergeStrings.
func Neighbors(store *corpus.Store, units UnitSpec, opts NeighborsOptions) ([]NeighborsRow, error) {
	n := units.Segmentation.Len()
	seqLen := units.seqLen()
	var out []NeighborsRow

	for i := 0; i+seqLen <= n; i++ {
		seg, err := units.Segmentation.Get(i)
		if err != nil {
			return nil, err
		}
		key, err := units.typeAt(store, i)
		if err != nil {
			return nil, err
		}

		row := NeighborsRow{Position: i, Key: key, Left: make([]string, opts.K), Right: make([]string, opts.K)}
		if opts.AnnotationKey != "" {
			row.Annotation = seg.Annotations[opts.AnnotationKey]
		}

		for d := 1; d <= opts.K; d++ {
			leftIdx := i - d
			if leftIdx >= 0 {
				neighborSeg, err := units.Segmentation.Get(leftIdx)
				if err != nil {
					return nil, err
				}
				if opts.MergeStrings || neighborSeg.StrIndex == seg.StrIndex {
					v, err := unitValue(store, neighborSeg, units.AnnotationKey)
					if err != nil {
						return nil, err
					}
					row.Left[opts.K-d] = v
				}
			}

			rightIdx := i + seqLen - 1 + d
			if rightIdx < n {
				neighborSeg, err := units.Segmentation.Get(rightIdx)
				if err != nil {
					return nil, err
				}
				if opts.MergeStrings || neighborSeg.StrIndex == seg.StrIndex {
					v, err := unitValue(store, neighborSeg, units.AnnotationKey)
					if err != nil {
						return nil, err
					}
					row.Right[d-1] = v
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// CollocationRow is one row of a collocations result: the global stats of
// one neighbor type observed within distance K of any unit occurrence.
type CollocationRow struct {
	NeighborType      string
	MutualInformation float64
	LocalFrequency    int
	LocalProbability  float64
	GlobalFrequency   int
	GlobalProbability float64
}

// Collocations counts, for every unit occurrence, each of its up-to-2K
// neighbor types (per Neighbors' semantics), and reports mutual
// information log2(localProb/globalProb) between "being a neighbor of any
// unit occurrence" and "occurring anywhere in units.Segmentation" for every
// neighbor type clearing minFrequency local occurrences.
func Collocations(store *corpus.Store, units UnitSpec, opts NeighborsOptions, minFrequency int) ([]CollocationRow, error) {
	rows, err := Neighbors(store, units, opts)
	if err != nil {
		return nil, err
	}

	localFreq := map[string]int{}
	var localTotal int
	for _, r := range rows {
		for _, v := range r.Left {
			if v == "" {
				continue
			}
			localFreq[v]++
			localTotal++
		}
		for _, v := range r.Right {
			if v == "" {
				continue
			}
			localFreq[v]++
			localTotal++
		}
	}

	globalFreq := map[string]int{}
	var globalTotal int
	n := units.Segmentation.Len()
	seqLen := units.seqLen()
	for i := 0; i+seqLen <= n; i++ {
		seg, err := units.Segmentation.Get(i)
		if err != nil {
			return nil, err
		}
		v, err := unitValue(store, seg, units.AnnotationKey)
		if err != nil {
			return nil, err
		}
		globalFreq[v]++
		globalTotal++
	}

	var out []CollocationRow
	for typ, lf := range localFreq {
		if lf < minFrequency {
			continue
		}
		gf := globalFreq[typ]
		localProb := float64(lf) / float64(localTotal)
		globalProb := float64(gf) / float64(globalTotal)
		mi := math.Log2(localProb / globalProb)
		out = append(out, CollocationRow{
			NeighborType:      typ,
			MutualInformation: mi,
			LocalFrequency:    lf,
			LocalProbability:  localProb,
			GlobalFrequency:   gf,
			GlobalProbability: globalProb,
		})
	}
	return out, nil
}

// ToCollocationTable renders a CollocationRow slice as a FloatCrosstab with
// one row per neighbor type and columns
// "mi","local_freq","local_prob","global_freq","global_prob".
func ToCollocationTable(rows []CollocationRow) *table.FloatCrosstab {
	out := table.NewFloatCrosstab()
	for _, r := range rows {
		out.Set(r.NeighborType, "mi", r.MutualInformation)
		out.Set(r.NeighborType, "local_freq", float64(r.LocalFrequency))
		out.Set(r.NeighborType, "local_prob", r.LocalProbability)
		out.Set(r.NeighborType, "global_freq", float64(r.GlobalFrequency))
		out.Set(r.NeighborType, "global_prob", r.GlobalProbability)
	}
	return out
}
