package corpus

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// MaxSegmentString caps the length of a segment's materialized content
// before it is shown elided ("..." in the middle) in ToString/ToHTML.
const MaxSegmentString = 1000

// NumSegmentsSummary is how many segments are shown at the head and tail of
// a segmentation when rendering it in full would be unwieldy.
const NumSegmentsSummary = 5

func elideMiddle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	half := (max - 3) / 2
	return s[:half] + "..." + s[len(s)-half:]
}

// ToString renders a single segment as "content" (elided if long), or the
// content plus a trailing annotation list when withAnnotations is true.
func ToString(store *Store, seg Segment, withAnnotations bool) (string, error) {
	content, err := Content(store, seg)
	if err != nil {
		return "", err
	}
	shown := elideMiddle(content, MaxSegmentString)
	if !withAnnotations || len(seg.Annotations) == 0 {
		return shown, nil
	}
	keys := make([]string, 0, len(seg.Annotations))
	for k := range seg.Annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, seg.Annotations[k]))
	}
	return fmt.Sprintf("%s [%s]", shown, strings.Join(pairs, ", ")), nil
}

// ToHTML renders a single segment as an HTML <p> containing the escaped,
// elided content followed by an annotation table.
func ToHTML(store *Store, seg Segment) (string, error) {
	content, err := Content(store, seg)
	if err != nil {
		return "", err
	}
	shown := html.EscapeString(elideMiddle(content, MaxSegmentString))
	var b strings.Builder
	b.WriteString("<p>")
	b.WriteString(shown)
	b.WriteString("</p>\n")
	if len(seg.Annotations) > 0 {
		keys := make([]string, 0, len(seg.Annotations))
		for k := range seg.Annotations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("<table class=\"annotations\">\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "<tr><th>%s</th><td>%s</td></tr>\n", html.EscapeString(k), html.EscapeString(seg.Annotations[k]))
		}
		b.WriteString("</table>\n")
	}
	return b.String(), nil
}

// synthesizedAnnotation yields the built-in, synthesized annotation value
// for one of the five reserved keys (__num__, __content__, __str_index__,
// __start__, __end__), or ok=false if key isn't one of them. Offsets are
// reported 0-based as stored; no _raw__ variants are recognized.
func synthesizedAnnotation(store *Store, num int, seg Segment) func(key string) (string, bool) {
	return func(key string) (string, bool) {
		switch key {
		case "__num__":
			return fmt.Sprintf("%d", num), true
		case "__content__":
			c, err := Content(store, seg)
			if err != nil {
				return "", true
			}
			return c, true
		case "__str_index__":
			return fmt.Sprintf("%d", seg.StrIndex), true
		case "__start__":
			return fmt.Sprintf("%d", seg.effectiveStart()), true
		case "__end__":
			str, err := store.Resolve(seg.StrIndex)
			end := seg.End
			if err == nil && end == Unset {
				end = len(str)
			}
			return fmt.Sprintf("%d", end), true
		default:
			return "", false
		}
	}
}

// AnnotationValue resolves key against seg: one of the five synthesized
// keys above, or a literal lookup in seg.Annotations. ok is false if key is
// neither.
func AnnotationValue(store *Store, num int, seg Segment, key string) (string, bool) {
	if v, ok := synthesizedAnnotation(store, num, seg)(key); ok {
		return v, true
	}
	v, ok := seg.Annotations[key]
	return v, ok
}

// ToStringSegmentation renders an entire segmentation as one string per
// segment, separated by sep. If the segmentation has more than
// 2*NumSegmentsSummary segments, only the first and last NumSegmentsSummary
// are shown, joined by an ellipsis line.
func ToStringSegmentation(sg *Segmentation, withAnnotations bool, sep string) (string, error) {
	n := sg.Len()
	if n <= 2*NumSegmentsSummary {
		lines := make([]string, 0, n)
		err := sg.ForEach(func(_ int, seg Segment) error {
			s, err := ToString(sg.store, seg, withAnnotations)
			if err != nil {
				return err
			}
			lines = append(lines, s)
			return nil
		})
		if err != nil {
			return "", err
		}
		return strings.Join(lines, sep), nil
	}
	var lines []string
	for i := 0; i < NumSegmentsSummary; i++ {
		seg, err := sg.Get(i)
		if err != nil {
			return "", err
		}
		s, err := ToString(sg.store, seg, withAnnotations)
		if err != nil {
			return "", err
		}
		lines = append(lines, s)
	}
	lines = append(lines, fmt.Sprintf("[... %d more segments ...]", n-2*NumSegmentsSummary))
	for i := n - NumSegmentsSummary; i < n; i++ {
		seg, err := sg.Get(i)
		if err != nil {
			return "", err
		}
		s, err := ToString(sg.store, seg, withAnnotations)
		if err != nil {
			return "", err
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, sep), nil
}

// htmlPreamble is the fixed CSS block prefixed to every rendered HTML
// segmentation table.
const htmlPreamble = `<style>
table.segmentation { border-collapse: collapse; }
table.segmentation th, table.segmentation td { border: 1px solid #ccc; padding: 2px 6px; }
table.annotations th { text-align: left; color: #555; }
</style>
`

// ToHTMLSegmentation renders a segmentation as an HTML table with one row
// per segment (subject to the same head/tail truncation as
// ToStringSegmentation), each cell holding that segment's ToHTML rendering.
func ToHTMLSegmentation(sg *Segmentation) (string, error) {
	n := sg.Len()
	var b strings.Builder
	b.WriteString(htmlPreamble)
	b.WriteString("<table class=\"segmentation\">\n")

	renderRow := func(i int) error {
		seg, err := sg.Get(i)
		if err != nil {
			return err
		}
		cell, err := ToHTML(sg.store, seg)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "<tr><th>%d</th><td>%s</td></tr>\n", i, cell)
		return nil
	}

	if n <= 2*NumSegmentsSummary {
		for i := 0; i < n; i++ {
			if err := renderRow(i); err != nil {
				return "", err
			}
		}
	} else {
		for i := 0; i < NumSegmentsSummary; i++ {
			if err := renderRow(i); err != nil {
				return "", err
			}
		}
		fmt.Fprintf(&b, "<tr><td colspan=\"2\">... %d more segments ...</td></tr>\n", n-2*NumSegmentsSummary)
		for i := n - NumSegmentsSummary; i < n; i++ {
			if err := renderRow(i); err != nil {
				return "", err
			}
		}
	}
	b.WriteString("</table>\n")
	return b.String(), nil
}
