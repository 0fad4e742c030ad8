package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIround(t *testing.T) {
	assert.Equal(t, 2, Iround(1.5))
	assert.Equal(t, -2, Iround(-1.5))
	assert.Equal(t, 0, Iround(0.49))
	assert.Equal(t, 1, Iround(0.5))
}

func TestSampleDictExactSize(t *testing.T) {
	freq := map[string]int{"a": 2, "b": 3, "c": 1}
	rng := rand.New(rand.NewSource(1))
	out, err := SampleDict(freq, 4, rng)
	assert.NoError(t, err)
	assert.Len(t, out, 4)

	counts := map[string]int{}
	for _, k := range out {
		counts[k]++
	}
	for k, c := range counts {
		assert.True(t, c <= freq[k], "key %s drawn %d times; occurs only %d times", k, c, freq[k])
	}
}

func TestSampleDictTooLarge(t *testing.T) {
	freq := map[string]int{"a": 1, "b": 1}
	_, err := SampleDict(freq, 3, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSampleDictNegativeSize(t *testing.T) {
	freq := map[string]int{"a": 1}
	_, err := SampleDict(freq, -1, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSampleDictFullPopulation(t *testing.T) {
	freq := map[string]int{"a": 2, "b": 1}
	rng := rand.New(rand.NewSource(2))
	out, err := SampleDict(freq, 3, rng)
	assert.NoError(t, err)
	counts := map[string]int{}
	for _, k := range out {
		counts[k]++
	}
	assert.Equal(t, 2, counts["a"])
	assert.Equal(t, 1, counts["b"])
}

func TestGetAverageUnweighted(t *testing.T) {
	mean, stdev := GetAverage([]float64{1, 2, 3, 4}, nil)
	assert.InDelta(t, 2.5, mean, 1e-9)
	assert.InDelta(t, 1.1180339887, stdev, 1e-9)
}

func TestGetAverageWeighted(t *testing.T) {
	mean, stdev := GetAverage([]float64{1, 3}, []float64{3, 1})
	assert.InDelta(t, 1.5, mean, 1e-9)
	assert.True(t, stdev >= 0.0)
}

func TestGetAverageEmptyIsZero(t *testing.T) {
	mean, stdev := GetAverage(nil, nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, stdev)
}

func TestGetAverageZeroWeightSumIsZero(t *testing.T) {
	mean, stdev := GetAverage([]float64{1, 2}, []float64{0, 0})
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, stdev)
}

func TestGetAverageVarianceNeverNegative(t *testing.T) {
	// Every value identical: exact variance is 0, but float roundoff in the
	// weighted sum could otherwise nudge it slightly negative before sqrt.
	values := make([]float64, 100)
	for i := range values {
		values[i] = 7
	}
	_, stdev := GetAverage(values, nil)
	assert.Equal(t, 0.0, stdev)
}

func TestGetPerplexityUniformEqualsSupportSize(t *testing.T) {
	// A perfectly uniform distribution's perplexity equals its support size.
	dict := map[string]int{"a": 10, "b": 10, "c": 10, "d": 10}
	assert.InDelta(t, 4.0, GetPerplexity(dict), 1e-9)
}

func TestGetPerplexitySkewedIsBelowSupportSize(t *testing.T) {
	dict := map[string]int{"a": 100, "b": 1}
	p := GetPerplexity(dict)
	assert.True(t, p < 2.0, "perplexity %v should be below support size 2", p)
	assert.True(t, p > 1.0, "perplexity %v should be above 1 for a skewed distribution", p)
}

func TestGetPerplexityEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, GetPerplexity(map[string]int{}))
}

func TestGetVarietyUnweightedCountsSupport(t *testing.T) {
	dict := map[string]int{"a": 5, "b": 0, "c": 2}
	assert.Equal(t, 2.0, GetVariety(dict, Unweighted))
}

func TestGetVarietyWeightedIsPerplexity(t *testing.T) {
	dict := map[string]int{"a": 10, "b": 10}
	assert.Equal(t, GetPerplexity(dict), GetVariety(dict, Weighted))
}

func TestGetExpectedSubsampleVarietyMatchesFullPopulation(t *testing.T) {
	dict := map[string]int{"a": 3, "b": 2, "c": 1}
	// Subsampling the whole population deterministically recovers every key.
	v := GetExpectedSubsampleVariety(dict, 6)
	assert.InDelta(t, 3.0, v, 1e-9)
}

func TestGetExpectedSubsampleVarietyIsBoundedBySupport(t *testing.T) {
	dict := map[string]int{"a": 100, "b": 1}
	v := GetExpectedSubsampleVariety(dict, 1)
	assert.True(t, v > 0.0)
	assert.True(t, v <= 2.0)
}

func TestGetExpectedSubsampleVarietyZeroSampleIsZero(t *testing.T) {
	dict := map[string]int{"a": 5}
	assert.Equal(t, 0.0, GetExpectedSubsampleVariety(dict, 0))
}

func TestGetExpectedSubsampleVarietyEmptyDictIsZero(t *testing.T) {
	assert.Equal(t, 0.0, GetExpectedSubsampleVariety(map[string]int{}, 5))
}
