package processor

import (
	"sort"
	"strings"

	"github.com/corpuskit/lttl/corpus"
)

// TieBreak orders candidates of equal frequency when AnnotateContexts picks
// the single most-frequent unit type for a context.
type TieBreak int

const (
	// TieBreakFrequency keeps insertion (first-observed) order among ties.
	TieBreakFrequency TieBreak = iota
	// TieBreakASCII breaks ties by ascending byte-wise string order.
	TieBreakASCII
)

// AnnotateContextsOptions controls AnnotateContexts.
type AnnotateContextsOptions struct {
	// JoinAll, when set, reports every unit type observed in the context
	// joined by Delimiter instead of only the single most frequent one.
	JoinAll   bool
	Delimiter string

	TieBreak TieBreak
	Reverse  bool
}

// AnnotateContexts counts units per context (as CountInContext would) and
// then, per context, reports either the single most frequent unit type
// (ties broken per TieBreak, optionally reversed) or every observed unit
// type joined by Delimiter.
func AnnotateContexts(store *corpus.Store, units UnitSpec, contexts ContextSpec, opts AnnotateContextsOptions) (map[string]string, error) {
	out := map[string]string{}
	err := contexts.Segmentation.ForEach(func(_ int, ctxSeg corpus.Segment) error {
		ctxType, err := contexts.typeOf(store, ctxSeg)
		if err != nil {
			return err
		}

		counts := map[string]int{}
		var order []string
		for _, idx := range containedUnitStarts(store, ctxSeg, units) {
			typ, err := units.typeAt(store, idx)
			if err != nil {
				return err
			}
			if _, seen := counts[typ]; !seen {
				order = append(order, typ)
			}
			counts[typ]++
		}
		if len(order) == 0 {
			return nil
		}

		if opts.JoinAll {
			joined := make([]string, len(order))
			copy(joined, order)
			if opts.TieBreak == TieBreakASCII {
				sort.Strings(joined)
			}
			if opts.Reverse {
				reverseStrings(joined)
			}
			out[ctxType] = strings.Join(joined, opts.Delimiter)
			return nil
		}

		out[ctxType] = mostFrequent(order, counts, opts)
		return nil
	})
	return out, err
}

// mostFrequent returns the unit type with the highest count, breaking ties
// per opts.TieBreak (optionally reversed, meaning the LAST qualifying
// candidate under the tie-break order wins instead of the first).
func mostFrequent(order []string, counts map[string]int, opts AnnotateContextsOptions) string {
	candidates := make([]string, len(order))
	copy(candidates, order)
	if opts.TieBreak == TieBreakASCII {
		sort.Strings(candidates)
	}
	if opts.Reverse {
		reverseStrings(candidates)
	}

	best := candidates[0]
	bestCount := counts[best]
	for _, c := range candidates[1:] {
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}
	return best
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
