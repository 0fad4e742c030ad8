// Package processor implements the tabulation kernel (C6 of the design):
// the count/length/variety/concordance/collocation/co-occurrence family of
// operations that turn one or more segmentations into Tables.
package processor

import (
	"strings"

	"github.com/corpuskit/lttl/corpus"
)

// noneValue is substituted for a unit's annotation value when the
// requested annotation key is absent from that unit's segment.
const noneValue = "__none__"

// globalRow is the single row id used when context merging collapses the
// whole corpus into one context.
const globalRow = "__global__"

// UnitSpec describes how to read a "unit type" off a segment: either its
// resolved content (AnnotationKey == "") or one of its annotation values
// (substituting noneValue when absent). SeqLength > 1 joins SeqLength
// consecutive units with JoinDelimiter into one compound type string.
type UnitSpec struct {
	Segmentation  *corpus.Segmentation
	AnnotationKey string
	SeqLength     int
	JoinDelimiter string
}

func (u UnitSpec) seqLen() int {
	if u.SeqLength <= 0 {
		return 1
	}
	return u.SeqLength
}

func unitValue(store *corpus.Store, seg corpus.Segment, annotationKey string) (string, error) {
	if annotationKey == "" {
		return corpus.Content(store, seg)
	}
	v, ok := seg.Annotations[annotationKey]
	if !ok {
		return noneValue, nil
	}
	return v, nil
}

// typeAt returns the unit type formed by the seqLen consecutive units of
// spec starting at position idx (idx+seqLen-1 must be a valid index).
func (u UnitSpec) typeAt(store *corpus.Store, idx int) (string, error) {
	n := u.seqLen()
	if n == 1 {
		seg, err := u.Segmentation.Get(idx)
		if err != nil {
			return "", err
		}
		return unitValue(store, seg, u.AnnotationKey)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		seg, err := u.Segmentation.Get(idx + i)
		if err != nil {
			return "", err
		}
		v, err := unitValue(store, seg, u.AnnotationKey)
		if err != nil {
			return "", err
		}
		parts[i] = v
	}
	return strings.Join(parts, u.JoinDelimiter), nil
}

// ContextSpec describes the context axis of a count/length/variety
// operation: a segmentation, optionally a chosen annotation key instead of
// content, and whether every context collapses into one global row.
type ContextSpec struct {
	Segmentation  *corpus.Segmentation
	AnnotationKey string
	Merge         bool
}

func (c ContextSpec) typeOf(store *corpus.Store, seg corpus.Segment) (string, error) {
	if c.Merge {
		return globalRow, nil
	}
	return unitValue(store, seg, c.AnnotationKey)
}

// containedUnitStarts returns the starting index, within units.Segmentation,
// of every SeqLength-unit run contained in ctxSeg.
func containedUnitStarts(store *corpus.Store, ctxSeg corpus.Segment, units UnitSpec) []int {
	n := units.seqLen()
	if n == 1 {
		return corpus.GetContainedSegmentIndices(store, ctxSeg, units.Segmentation)
	}
	return corpus.GetContainedSequenceIndices(store, ctxSeg, units.Segmentation, n)
}
