package table

import (
	"runtime"
	"strconv"
	"strings"
)

// defaultRowDelimiter is CRLF on Windows and LF elsewhere, matching the
// platform line-ending convention external tools (e.g. Orange) expect.
func defaultRowDelimiter() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// RenderOptions configures Table rendering to a delimited text format.
type RenderOptions struct {
	// OutputOrangeHeaders adds the two extra header rows ("type" and
	// "class") that the Orange data-mining tool expects on its own tab
	// files: the type row marks the row-id column "string" and every data
	// column "continuous", and the class row is left empty.
	OutputOrangeHeaders bool
	ColDelimiter        string
	RowDelimiter        string // empty means OS default
	Missing             string
}

func (o RenderOptions) rowDelim() string {
	if o.RowDelimiter != "" {
		return o.RowDelimiter
	}
	return defaultRowDelimiter()
}

func (o RenderOptions) colDelim() string {
	if o.ColDelimiter != "" {
		return o.ColDelimiter
	}
	return "\t"
}

// ToString renders an IntPivotCrosstab as delimited text: a header line of
// column ids (preceded by an empty cell for the row-id column), one row per
// row id, each a row id followed by its cells.
func (t *IntPivotCrosstab) ToString(opts RenderOptions) string {
	var b strings.Builder
	colDelim, rowDelim := opts.colDelim(), opts.rowDelim()

	header := append([]string{""}, t.cols.ids...)
	b.WriteString(strings.Join(header, colDelim))
	b.WriteString(rowDelim)

	if opts.OutputOrangeHeaders {
		types := append([]string{"string"}, repeat("continuous", len(t.cols.ids))...)
		classes := append([]string{""}, repeat("", len(t.cols.ids))...)
		b.WriteString(strings.Join(types, colDelim))
		b.WriteString(rowDelim)
		b.WriteString(strings.Join(classes, colDelim))
		b.WriteString(rowDelim)
	}

	for r, rid := range t.rows.ids {
		cells := make([]string, 0, len(t.cols.ids)+1)
		cells = append(cells, rid)
		for c := range t.cols.ids {
			cells = append(cells, strconv.FormatInt(t.values[r][c], 10))
		}
		b.WriteString(strings.Join(cells, colDelim))
		b.WriteString(rowDelim)
	}
	return b.String()
}

// ToString renders a FloatCrosstab the same way ToString does for
// IntPivotCrosstab, formatting cells with %g.
func (t *FloatCrosstab) ToString(opts RenderOptions) string {
	var b strings.Builder
	colDelim, rowDelim := opts.colDelim(), opts.rowDelim()

	header := append([]string{""}, t.cols.ids...)
	b.WriteString(strings.Join(header, colDelim))
	b.WriteString(rowDelim)

	if opts.OutputOrangeHeaders {
		types := append([]string{"string"}, repeat("continuous", len(t.cols.ids))...)
		classes := append([]string{""}, repeat("", len(t.cols.ids))...)
		b.WriteString(strings.Join(types, colDelim))
		b.WriteString(rowDelim)
		b.WriteString(strings.Join(classes, colDelim))
		b.WriteString(rowDelim)
	}

	for r, rid := range t.rows.ids {
		cells := make([]string, 0, len(t.cols.ids)+1)
		cells = append(cells, rid)
		for c := range t.cols.ids {
			cells = append(cells, strconv.FormatFloat(t.values[r][c], 'g', -1, 64))
		}
		b.WriteString(strings.Join(cells, colDelim))
		b.WriteString(rowDelim)
	}
	return b.String()
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
