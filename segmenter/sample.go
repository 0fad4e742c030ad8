package segmenter

import (
	"math/rand"
	"sort"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/errs"
)

// SampleMode selects how Sample chooses which segments to keep.
type SampleMode int

const (
	// Random draws sampleSize indices uniformly without replacement.
	Random SampleMode = iota
	// Systematic keeps every stride-th index, stride = len/sampleSize.
	Systematic
)

// Sample returns a new segmentation containing sampleSize segments of
// input, chosen by mode, in their original relative order.
func Sample(store *corpus.Store, input *corpus.Segmentation, sampleSize int, mode SampleMode, rng *rand.Rand, label string) (*corpus.Segmentation, error) {
	n := input.Len()
	var indices []int

	switch mode {
	case Random:
		if sampleSize > n {
			return nil, errs.NotEnoughDataErrorf("sample: requested %d segments from a population of %d", sampleSize, n)
		}
		if sampleSize < 0 {
			return nil, errs.ConfigurationErrorf("sample: negative sample size %d", sampleSize)
		}
		perm := rng.Perm(n)
		indices = append([]int(nil), perm[:sampleSize]...)
		sort.Ints(indices)
	case Systematic:
		if sampleSize <= 0 || sampleSize > n {
			return nil, errs.NotEnoughDataErrorf("sample: requested %d segments from a population of %d", sampleSize, n)
		}
		stride := n / sampleSize
		if stride == 0 {
			stride = 1
		}
		for i := 0; i < sampleSize && i*stride < n; i++ {
			indices = append(indices, i*stride)
		}
	default:
		return nil, errs.ConfigurationErrorf("sample: unknown mode %d", mode)
	}

	out := corpus.NewSegmentation(store, label)
	for _, i := range indices {
		seg, err := input.Get(i)
		if err != nil {
			return nil, err
		}
		if err := out.Append(seg); err != nil {
			return nil, err
		}
	}
	return out, nil
}
