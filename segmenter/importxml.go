package segmenter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/errs"
)

// tagPattern matches any XML-like tag token: opening, closing, self-closing,
// a comment, or a declaration/processing instruction.
var tagPattern = regexp.MustCompile(`</?[^>]+?/?>`)

var attrPattern = regexp.MustCompile(`([a-zA-Z_:][-a-zA-Z0-9_:.]*)\s*=\s*"([^"]*)"|([a-zA-Z_:][-a-zA-Z0-9_:.]*)\s*=\s*'([^']*)'`)

func parseAttributes(tagBody string) map[string]string {
	attrs := map[string]string{}
	for _, m := range attrPattern.FindAllStringSubmatch(tagBody, -1) {
		if m[1] != "" {
			attrs[m[1]] = m[2]
		} else if m[3] != "" {
			attrs[m[3]] = m[4]
		}
	}
	return attrs
}

var tagNamePattern = regexp.MustCompile(`^</?([a-zA-Z_:][-a-zA-Z0-9_:.]*)`)

func tagName(tag string) string {
	m := tagNamePattern.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	return m[1]
}

type tagKind int

const (
	kindIgnored tagKind = iota
	kindOpening
	kindClosing
	kindSelfClosing
)

func classifyTag(tag string) tagKind {
	if strings.HasPrefix(tag, "<!--") || strings.HasPrefix(tag, "<?") || strings.HasPrefix(tag, "<!") {
		return kindIgnored
	}
	if strings.HasPrefix(tag, "</") {
		return kindClosing
	}
	if strings.HasSuffix(tag, "/>") {
		return kindSelfClosing
	}
	return kindOpening
}

type xmlSpan struct {
	start, end int // -1 end means "still open"
}

type xmlFrame struct {
	spans []xmlSpan
	attrs map[string]string
}

// ImportXMLOptions configures ImportXML.
type ImportXMLOptions struct {
	// Element is the tag name whose content is extracted.
	Element string
	// Conditions, if non-empty, requires the opening tag's attribute under
	// each key to match the given pattern; an element whose attributes
	// fail any condition is dropped.
	Conditions map[string]*regexp.Regexp
	// RemoveMarkup closes the current span at each inner tag's start and
	// reopens a new one past it, so nested markup splits one logical
	// element into several segments instead of being ignored.
	RemoveMarkup bool
	// MergeDuplicates collapses segments that end up sharing the same
	// (str_index,start,end) after nested spans are emitted.
	MergeDuplicates bool
	// PreserveLeaves selects, when MergeDuplicates merges an
	// exactly-nested pair, whether the innermost (true) or outermost
	// (false) element's annotations win on key conflict.
	PreserveLeaves bool
	// AutoNumberAs, if non-empty, adds a 1-based numeric annotation under
	// this key to every output segment, after merging.
	AutoNumberAs string
}

func attrsSatisfy(attrs map[string]string, conditions map[string]*regexp.Regexp) bool {
	for key, pattern := range conditions {
		if !pattern.MatchString(attrs[key]) {
			return false
		}
	}
	return true
}

// ImportXML scans every segment of input for <Element> markup (a
// single-pass, stack-based scan, not a full XML parser) and emits one
// segment per surviving element occurrence, annotated with that element's
// attributes.
func ImportXML(store *corpus.Store, input *corpus.Segmentation, label string, opts ImportXMLOptions) (*corpus.Segmentation, error) {
	type emitted struct {
		seg   corpus.Segment
		depth int
		order int
	}
	var all []emitted
	emitOrder := 0

	err := input.ForEach(func(_ int, seg corpus.Segment) error {
		content, err := corpus.Content(store, seg)
		if err != nil {
			return err
		}
		base := seg.EffectiveStart()

		var stack []xmlFrame
		tags := tagPattern.FindAllStringIndex(content, -1)

		for _, t := range tags {
			tagStart, tagEnd := t[0], t[1]
			tag := content[tagStart:tagEnd]
			name := tagName(tag)
			kind := classifyTag(tag)
			if kind == kindIgnored || name != opts.Element {
				if len(stack) > 0 && kind != kindIgnored {
					top := &stack[len(stack)-1]
					if opts.RemoveMarkup {
						n := len(top.spans)
						top.spans[n-1].end = tagStart
						top.spans = append(top.spans, xmlSpan{start: tagEnd, end: -1})
					}
				}
				continue
			}

			switch kind {
			case kindOpening:
				attrs := parseAttributes(tag)
				stack = append(stack, xmlFrame{
					spans: []xmlSpan{{start: tagEnd, end: -1}},
					attrs: attrs,
				})
			case kindSelfClosing:
				// Zero-width content; filtered out below like any other
				// empty span, so there's nothing to push.
			case kindClosing:
				if len(stack) == 0 {
					return errs.ParseErrorf("import_xml: orphan closing tag </%s> at offset %d", opts.Element, tagStart)
				}
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				n := len(frame.spans)
				frame.spans[n-1].end = tagStart

				if !attrsSatisfy(frame.attrs, opts.Conditions) {
					break
				}
				for _, sp := range frame.spans {
					if sp.end <= sp.start {
						continue
					}
					ann := make(map[string]string, len(frame.attrs))
					for k, v := range frame.attrs {
						ann[k] = v
					}
					all = append(all, emitted{
						seg:   corpus.Segment{StrIndex: seg.StrIndex, Start: base + sp.start, End: base + sp.end, Annotations: ann},
						depth: len(stack),
						order: emitOrder,
					})
					emitOrder++
				}
			}
		}
		if len(stack) > 0 {
			return errs.ParseErrorf("import_xml: missing closing tag for <%s>", opts.Element)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].seg, all[j].seg
		if a.StrIndex != b.StrIndex {
			return a.StrIndex < b.StrIndex
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	out := corpus.NewSegmentation(store, label)
	num := 1
	var prev *emitted
	for i := range all {
		cur := all[i]
		if opts.MergeDuplicates && prev != nil && cur.seg.Equal(prev.seg) {
			var merged corpus.Segment
			// Lower emission order (smaller .order) closed first and is
			// therefore the innermost of an exactly-nested pair.
			if cur.order < prev.order {
				if opts.PreserveLeaves {
					merged = prev.seg.Deepcopy(cur.seg.Annotations, true)
				} else {
					merged = cur.seg.Deepcopy(prev.seg.Annotations, true)
				}
			} else {
				if opts.PreserveLeaves {
					merged = cur.seg.Deepcopy(prev.seg.Annotations, true)
				} else {
					merged = prev.seg.Deepcopy(cur.seg.Annotations, true)
				}
			}
			if err := out.SetLast(merged); err != nil {
				return nil, err
			}
			prevCopy := emitted{seg: merged, depth: cur.depth, order: cur.order}
			prev = &prevCopy
			continue
		}
		seg := cur.seg
		if opts.AutoNumberAs != "" {
			seg = seg.Deepcopy(map[string]string{opts.AutoNumberAs: fmt.Sprintf("%d", num)}, true)
			num++
		}
		if err := out.Append(seg); err != nil {
			return nil, err
		}
		curCopy := emitted{seg: seg, depth: cur.depth, order: cur.order}
		prev = &curCopy
	}
	return out, nil
}
