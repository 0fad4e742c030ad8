package segmenter

import (
	"regexp"

	"github.com/corpuskit/lttl/corpus"
)

// SelectMode inverts or preserves the sense of a predicate match.
type SelectMode int

const (
	Include SelectMode = iota
	Exclude
)

// valueOf returns the text a select/threshold/intersect predicate is
// evaluated against: seg's resolved content, or (if annotationKey is
// non-empty) its annotation value under that key.
func valueOf(store *corpus.Store, seg corpus.Segment, annotationKey string) (string, error) {
	if annotationKey == "" {
		return corpus.Content(store, seg)
	}
	return seg.Annotations[annotationKey], nil
}

func partition(store *corpus.Store, input *corpus.Segmentation, posLabel string, keep func(corpus.Segment) (bool, error)) (pos, neg *corpus.Segmentation, err error) {
	pos = corpus.NewSegmentation(store, posLabel)
	neg = corpus.NewSegmentation(store, "NEG_"+posLabel)
	err = input.ForEach(func(_ int, seg corpus.Segment) error {
		ok, err := keep(seg)
		if err != nil {
			return err
		}
		if ok {
			return pos.Append(seg)
		}
		return neg.Append(seg)
	})
	if err != nil {
		return nil, nil, err
	}
	return pos, neg, nil
}

// Select partitions input by whether pattern matches (searches, not
// anchors) each segment's content or chosen annotation value. mode Exclude
// inverts the sense: a match sends the segment to neg instead of pos.
func Select(store *corpus.Store, input *corpus.Segmentation, pattern *regexp.Regexp, annotationKey string, mode SelectMode, label string) (pos, neg *corpus.Segmentation, err error) {
	return partition(store, input, label, func(seg corpus.Segment) (bool, error) {
		v, err := valueOf(store, seg, annotationKey)
		if err != nil {
			return false, err
		}
		matched := pattern.MatchString(v)
		if mode == Exclude {
			return !matched, nil
		}
		return matched, nil
	})
}

// Threshold partitions input by whether the frequency, within input, of a
// segment's content/annotation value falls in [min,max].
func Threshold(store *corpus.Store, input *corpus.Segmentation, annotationKey string, min, max int, label string) (pos, neg *corpus.Segmentation, err error) {
	freq := map[string]int{}
	err = input.ForEach(func(_ int, seg corpus.Segment) error {
		v, err := valueOf(store, seg, annotationKey)
		if err != nil {
			return err
		}
		freq[v]++
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return partition(store, input, label, func(seg corpus.Segment) (bool, error) {
		v, err := valueOf(store, seg, annotationKey)
		if err != nil {
			return false, err
		}
		n := freq[v]
		return n >= min && n <= max, nil
	})
}

// Intersect partitions input by membership of a segment's content/
// annotation value in set.
func Intersect(store *corpus.Store, input *corpus.Segmentation, set map[string]bool, annotationKey string, label string) (pos, neg *corpus.Segmentation, err error) {
	return partition(store, input, label, func(seg corpus.Segment) (bool, error) {
		v, err := valueOf(store, seg, annotationKey)
		if err != nil {
			return false, err
		}
		return set[v], nil
	})
}
