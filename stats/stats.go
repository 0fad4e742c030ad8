// Package stats implements the combinatorial and descriptive-statistics
// helpers shared by the processor and segmenter packages (C7 of the
// design): rounding, exact uniform sampling, variety/perplexity measures,
// and the hypergeometric expected-subsample-variety estimator.
package stats

import (
	"math"
	"math/big"
	"math/rand"
	"sort"

	"github.com/corpuskit/lttl/errs"
)

// Iround rounds x to the nearest integer, ties away from zero (banker's
// rounding is never used here, matching the reference implementation).
func Iround(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5))
	}
	return int(math.Ceil(x - 0.5))
}

// SampleDict draws k items uniformly without replacement from a multiset
// represented as a frequency map (key -> count), returning one key per draw
// (a key may repeat in the output up to its count). It is exact: every
// k-subset of the Σcount items is equally likely.
func SampleDict(freq map[string]int, k int, rng *rand.Rand) ([]string, error) {
	total := 0
	keys := make([]string, 0, len(freq))
	for k2, v := range freq {
		total += v
		keys = append(keys, k2)
	}
	sort.Strings(keys)
	if k > total {
		return nil, errs.NotEnoughDataErrorf("stats: requested sample of %d exceeds population of %d", k, total)
	}
	if k < 0 {
		return nil, errs.ConfigurationErrorf("stats: negative sample size %d", k)
	}

	// Expand conceptually into a flat population [0,total) partitioned by
	// key in sorted order, then draw k distinct flat indices uniformly
	// without replacement (Floyd's algorithm), and map each back to its key.
	bounds := make([]int, len(keys)+1)
	for i, k2 := range keys {
		bounds[i+1] = bounds[i] + freq[k2]
	}
	chosen := make(map[int]bool, k)
	for i := total - k; i < total; i++ {
		t := rng.Intn(i + 1)
		if chosen[t] {
			chosen[i] = true
		} else {
			chosen[t] = true
		}
	}
	flat := make([]int, 0, k)
	for idx := range chosen {
		flat = append(flat, idx)
	}
	sort.Ints(flat)

	out := make([]string, 0, k)
	for _, idx := range flat {
		i := sort.SearchInts(bounds, idx+1) - 1
		out = append(out, keys[i])
	}
	return out, nil
}

// GetAverage returns the (optionally weighted) mean and population standard
// deviation of values. Negative variance from floating-point error is
// clamped to zero.
func GetAverage(values []float64, weights []float64) (mean, stdev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if weights == nil {
		weights = make([]float64, len(values))
		for i := range weights {
			weights[i] = 1
		}
	}
	var sumW, sumWV float64
	for i, v := range values {
		sumW += weights[i]
		sumWV += weights[i] * v
	}
	if sumW == 0 {
		return 0, 0
	}
	mean = sumWV / sumW
	var sumWVar float64
	for i, v := range values {
		d := v - mean
		sumWVar += weights[i] * d * d
	}
	variance := sumWVar / sumW
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// GetPerplexity returns exp(H) where H is the entropy of the frequency
// distribution dict (in nats): exp(log Σv - Σ v·log(v) / Σv).
func GetPerplexity(dict map[string]int) float64 {
	var total float64
	var weighted float64
	for _, v := range dict {
		if v <= 0 {
			continue
		}
		fv := float64(v)
		total += fv
		weighted += fv * math.Log(fv)
	}
	if total == 0 {
		return 0
	}
	return math.Exp(math.Log(total) - weighted/total)
}

// Weighting selects how GetVariety folds a frequency map into a single
// scalar.
type Weighting int

const (
	// Unweighted counts each distinct key once (plain variety/support size).
	Unweighted Weighting = iota
	// Weighted reports the perplexity of the distribution instead.
	Weighted
)

// GetVariety returns |support| (the number of distinct keys with positive
// count) when weighting is Unweighted, or the perplexity of dict when
// weighting is Weighted.
func GetVariety(dict map[string]int, weighting Weighting) float64 {
	if weighting == Weighted {
		return GetPerplexity(dict)
	}
	n := 0
	for _, v := range dict {
		if v > 0 {
			n++
		}
	}
	return float64(n)
}

var binomialCache = map[[2]int64]*big.Int{}

func binomial(n, k int64) *big.Int {
	if k < 0 || k > n {
		return big.NewInt(0)
	}
	key := [2]int64{n, k}
	if v, ok := binomialCache[key]; ok {
		return v
	}
	v := new(big.Int).Binomial(n, k)
	binomialCache[key] = v
	return v
}

var probNoOccurrenceCache = map[[3]int64]float64{}

// probNoOccurrence returns C(N-v, k) / C(N, k), the probability that a key
// occurring v times in a population of N is entirely absent from a
// size-k subsample drawn without replacement. Results are memoized on
// (N, k, v), as in the reference implementation.
func probNoOccurrence(n, k, v int64, cnk *big.Int) float64 {
	key := [3]int64{n, k, v}
	if p, ok := probNoOccurrenceCache[key]; ok {
		return p
	}
	if v > n-k {
		probNoOccurrenceCache[key] = 0
		return 0
	}
	num := new(big.Rat).SetInt(binomial(n-v, k))
	den := new(big.Rat).SetInt(cnk)
	num.Quo(num, den)
	p, _ := num.Float64()
	probNoOccurrenceCache[key] = p
	return p
}

// GetExpectedSubsampleVariety returns the hypergeometric expectation of the
// variety (number of distinct keys observed) in a uniform subsample of size
// k drawn without replacement from the multiset represented by dict:
//
//	|support| - Σ_v C(N-v,k)/C(N,k)
func GetExpectedSubsampleVariety(dict map[string]int, k int) float64 {
	var n int64
	counts := make([]int64, 0, len(dict))
	for _, v := range dict {
		if v <= 0 {
			continue
		}
		n += int64(v)
		counts = append(counts, int64(v))
	}
	if k <= 0 || len(counts) == 0 {
		return 0
	}
	cnk := binomial(n, int64(k))
	var sum float64
	for _, v := range counts {
		sum += probNoOccurrence(n, int64(k), v, cnk)
	}
	return float64(len(counts)) - sum
}
