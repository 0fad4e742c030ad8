// Package segmenter implements the Segmenter transform family (C4 of the
// design): the operations that build one Segmentation from others --
// concatenate, tokenize, select/threshold/intersect, sample, import_xml,
// recode, and bypass.
package segmenter

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"

	"github.com/corpuskit/lttl/corpus"
)

// ConcatenateOptions configures Concatenate.
type ConcatenateOptions struct {
	// Sort orders the output by ascending str_index; otherwise str_indices
	// appear in the order they are first encountered across inputs.
	Sort bool
	// MergeDuplicates collapses a segment into the previous one when they
	// share (str_index, start, end); annotations are merged, later wins.
	MergeDuplicates bool
	// ImportLabelsAs, if non-empty, tags each output segment with an
	// annotation under this key, valued with the label of its source
	// segmentation.
	ImportLabelsAs string
	// CopyAnnotations, when false, makes the output segment carry only the
	// ImportLabelsAs annotation (if any), dropping the input's own.
	CopyAnnotations bool
	// AutoNumberAs, if non-empty, adds a 1-based numeric annotation under
	// this key to every output segment.
	AutoNumberAs string
}

type taggedSegment struct {
	seg   corpus.Segment
	label string
}

// Concatenate merges the segments of every input segmentation into one
// output segmentation, ordered by str_index (grouped by first appearance,
// or ascending if opts.Sort) and then by ascending (start,end) within a
// str_index, via a stable k-way merge across inputs restricted to that
// str_index.
func Concatenate(store *corpus.Store, inputs []*corpus.Segmentation, label string, opts ConcatenateOptions) (*corpus.Segmentation, error) {
	order := []int{}
	seen := map[int]bool{}
	grouped := map[int][]taggedSegment{}

	// Reading every input's segments is a fan-in across independent
	// Segmentations; a failing input does not stop the remaining inputs
	// from being read, and errors.Once keeps the first failure, which is
	// the one returned, mirroring encoding/pam/fieldio.Reader's err field.
	var errOnce errors.Once
	for _, in := range inputs {
		all, err := in.All()
		if err != nil {
			errOnce.Set(err)
			continue
		}
		for _, s := range all {
			if !seen[s.StrIndex] {
				seen[s.StrIndex] = true
				order = append(order, s.StrIndex)
			}
			grouped[s.StrIndex] = append(grouped[s.StrIndex], taggedSegment{seg: s, label: in.Label()})
		}
	}
	if err := errOnce.Err(); err != nil {
		return nil, err
	}

	if opts.Sort {
		sort.Ints(order)
	}

	out := corpus.NewSegmentation(store, label)
	num := 1
	var prev *corpus.Segment
	for _, strIndex := range order {
		group := grouped[strIndex]
		sort.SliceStable(group, func(i, j int) bool {
			gi, gj := group[i].seg, group[j].seg
			if gi.Start != gj.Start {
				return gi.Start < gj.Start
			}
			return gi.End < gj.End
		})
		for _, ts := range group {
			seg := ts.seg
			if !opts.CopyAnnotations {
				seg = seg.Deepcopy(nil, false)
			}
			if opts.ImportLabelsAs != "" {
				seg = seg.Deepcopy(map[string]string{opts.ImportLabelsAs: ts.label}, true)
			}

			if opts.MergeDuplicates && prev != nil && seg.Equal(*prev) {
				merged := prev.Deepcopy(seg.Annotations, true)
				if err := out.SetLast(merged); err != nil {
					return nil, err
				}
				prevCopy := merged
				prev = &prevCopy
				continue
			}

			if opts.AutoNumberAs != "" {
				seg = seg.Deepcopy(map[string]string{opts.AutoNumberAs: fmt.Sprintf("%d", num)}, true)
				num++
			}
			if err := out.Append(seg); err != nil {
				return nil, err
			}
			segCopy := seg
			prev = &segCopy
		}
	}
	return out, nil
}
