package processor

import (
	"github.com/corpuskit/lttl/corpus"
)

// ConcordanceRow is one row of a context (concordance) result: one
// contained unit occurrence, with its surrounding text bounded at the
// enclosing context's own [start,end).
type ConcordanceRow struct {
	Position          int
	LeftText          string
	Key               string
	RightText         string
	UnitAnnotation    string
	ContextAnnotation string
}

// ConcordanceOptions configures Context (concordance).
type ConcordanceOptions struct {
	MaxNumChars int // 0 means unbounded

	// KeyAnnotation, when non-empty, uses that annotation value as the Key
	// column instead of the unit's resolved content.
	KeyAnnotation string
	// UnitAnnotationKey/ContextAnnotationKey, when non-empty, populate the
	// optional annotation columns from the unit's/context's own segment.
	UnitAnnotationKey    string
	ContextAnnotationKey string
}

// Context produces one output row per unit occurrence contained in each
// context segment: the unit's position (within units.Segmentation), its
// left and right surrounding text (truncated to MaxNumChars and bounded at
// the enclosing context's own start/end), the key column (content or a
// chosen annotation), and any requested extra annotation columns.
func Context(store *corpus.Store, units UnitSpec, contexts ContextSpec, opts ConcordanceOptions) ([]ConcordanceRow, error) {
	var out []ConcordanceRow
	err := contexts.Segmentation.ForEach(func(_ int, ctxSeg corpus.Segment) error {
		str, err := store.Resolve(ctxSeg.StrIndex)
		if err != nil {
			return err
		}
		ctxStart := ctxSeg.EffectiveStart()
		ctxEnd := ctxSeg.EffectiveEnd(len(str))

		for _, idx := range containedUnitStarts(store, ctxSeg, units) {
			seg, err := units.Segmentation.Get(idx)
			if err != nil {
				return err
			}
			unitStart := seg.EffectiveStart()
			unitEnd := seg.EffectiveEnd(len(str))

			left := str[ctxStart:unitStart]
			right := str[unitEnd:ctxEnd]
			if opts.MaxNumChars > 0 {
				left = truncateLeft(left, opts.MaxNumChars)
				right = truncateRight(right, opts.MaxNumChars)
			}

			key, err := unitValue(store, seg, opts.KeyAnnotation)
			if err != nil {
				return err
			}

			row := ConcordanceRow{Position: idx, LeftText: left, Key: key, RightText: right}
			if opts.UnitAnnotationKey != "" {
				row.UnitAnnotation = seg.Annotations[opts.UnitAnnotationKey]
			}
			if opts.ContextAnnotationKey != "" {
				row.ContextAnnotation = ctxSeg.Annotations[opts.ContextAnnotationKey]
			}
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// truncateLeft keeps only the last n runes of s (the text nearest the key).
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// truncateRight keeps only the first n runes of s.
func truncateRight(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
