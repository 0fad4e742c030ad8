package segmenter

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/errs"
)

// Mode selects how a Rule's matches are turned into segments.
type Mode int

const (
	// Tokenize emits one new segment per match.
	Tokenize Mode = iota
	// Split emits new segments for the gaps between matches.
	Split
)

// Rule is one step of a Tokenize pipeline: a compiled pattern, the mode it
// operates in, and the static (Split) or backreference-templated
// (Tokenize) annotations to attach to every segment it produces.
type Rule struct {
	Regex       *regexp.Regexp
	Mode        Mode
	Annotations map[string]string
}

// TokenizeOptions configures Tokenize.
type TokenizeOptions struct {
	// ImportAnnotations copies the input segment's annotations onto each
	// produced segment (a rule's own annotations still take precedence on
	// key conflict).
	ImportAnnotations bool
	// MergeDuplicates collapses a segment into the previous output segment
	// when they are Equal (merging annotations, later wins).
	MergeDuplicates bool
}

var backrefPattern = regexp.MustCompile(`&([0-9]+)`)

// expandBackrefs replaces every "&N" in template with the text of capture
// group N of the match described by idx (as returned by
// regexp.FindStringSubmatchIndex), against content.
func expandBackrefs(template, content string, idx []int) string {
	return backrefPattern.ReplaceAllStringFunc(template, func(ref string) string {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || 2*n+1 >= len(idx) {
			return ref
		}
		lo, hi := idx[2*n], idx[2*n+1]
		if lo < 0 || hi < 0 {
			return ""
		}
		return content[lo:hi]
	})
}

func mergeAnnotations(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Tokenize applies rules, in order, to every segment of input, producing
// one output segment per match (Tokenize mode) or per inter-match gap
// (Split mode). See the Rule/TokenizeOptions docs for the exact semantics.
func Tokenize(store *corpus.Store, input *corpus.Segmentation, rules []Rule, label string, opts TokenizeOptions) (*corpus.Segmentation, error) {
	out := corpus.NewSegmentation(store, label)
	var prev *corpus.Segment

	err := input.ForEach(func(_ int, seg corpus.Segment) error {
		content, err := corpus.Content(store, seg)
		if err != nil {
			return err
		}
		base := seg.EffectiveStart()

		var produced []corpus.Segment
		for _, rule := range rules {
			switch rule.Mode {
			case Tokenize:
				matches := rule.Regex.FindAllStringSubmatchIndex(content, -1)
				for _, idx := range matches {
					ann := map[string]string{}
					for k, v := range rule.Annotations {
						ann[expandBackrefs(k, content, idx)] = expandBackrefs(v, content, idx)
					}
					if opts.ImportAnnotations {
						ann = mergeAnnotations(seg.Annotations, ann)
					}
					produced = append(produced, corpus.Segment{
						StrIndex: seg.StrIndex, Start: base + idx[0], End: base + idx[1], Annotations: ann,
					})
				}
			case Split:
				matches := rule.Regex.FindAllStringIndex(content, -1)
				gapStart := 0
				emit := func(lo, hi int) {
					if hi <= lo {
						return
					}
					ann := map[string]string{}
					for k, v := range rule.Annotations {
						ann[k] = v
					}
					if opts.ImportAnnotations {
						ann = mergeAnnotations(seg.Annotations, ann)
					}
					produced = append(produced, corpus.Segment{
						StrIndex: seg.StrIndex, Start: base + lo, End: base + hi, Annotations: ann,
					})
				}
				for _, m := range matches {
					emit(gapStart, m[0])
					gapStart = m[1]
				}
				emit(gapStart, len(content))
			default:
				return errs.ConfigurationErrorf("tokenize: unknown rule mode %d", rule.Mode)
			}
		}

		sort.SliceStable(produced, func(i, j int) bool {
			if produced[i].Start != produced[j].Start {
				return produced[i].Start < produced[j].Start
			}
			return produced[i].End < produced[j].End
		})

		for _, s := range produced {
			if opts.MergeDuplicates && prev != nil && s.Equal(*prev) {
				merged := prev.Deepcopy(s.Annotations, true)
				if err := out.SetLast(merged); err != nil {
					return err
				}
				prevCopy := merged
				prev = &prevCopy
				continue
			}
			if err := out.Append(s); err != nil {
				return err
			}
			sCopy := s
			prev = &sCopy
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
