// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"html"
	"regexp"
	"strings"
)

// RowIndent precedes every table row written into a template.
const RowIndent = "\t\t\t\t\t\t\t\t"

var linkPattern = regexp.MustCompile(`^(http|https)://\w`)

var highlightTags = []string{"strong", "em"}

// Cell is one table cell. Markup cells are emitted verbatim; all other
// text is escaped.
type Cell struct {
	Text   string
	Markup bool
}

// Text returns an escaped cell.
func Text(s string) Cell { return Cell{Text: s} }

// Markup returns a cell emitted verbatim. Rule labels use it.
func Markup(s string) Cell { return Cell{Text: s, Markup: true} }

// Row renders an indented <tr class="even"> of <td> cells ending in a
// newline. highlight wraps every cell's content in <strong><em>. A text
// cell holding an http(s) URL becomes a link.
func Row(cells []Cell, highlight bool) string {
	var b strings.Builder
	b.WriteString(RowIndent)
	b.WriteString(`<tr class="even">`)
	for _, c := range cells {
		b.WriteString(`<td class="rifFields">`)
		b.WriteString(cellContent(c, highlight))
		b.WriteString("</td>")
	}
	b.WriteString("</tr>\n")
	return b.String()
}

// HeaderRow renders an indented <tr> of <th> cells; header rows carry no
// class.
func HeaderRow(titles ...string) string {
	var b strings.Builder
	b.WriteString(RowIndent)
	b.WriteString("<tr>")
	for _, t := range titles {
		b.WriteString(`<th class="rifFields highlightRifFields" scope="col">`)
		b.WriteString(html.EscapeString(t))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>\n")
	return b.String()
}

func cellContent(c Cell, highlight bool) string {
	if c.Markup {
		return wrap(c.Text, highlight)
	}
	esc := html.EscapeString(c.Text)
	if linkPattern.MatchString(c.Text) {
		return `<a href="` + esc + `">` + wrap(esc, highlight) + "</a>"
	}
	return wrap(esc, highlight)
}

func wrap(s string, highlight bool) string {
	if !highlight {
		return s
	}
	var pre, post string
	for _, t := range highlightTags {
		pre += "<" + t + ">"
		post = "</" + t + ">" + post
	}
	return pre + s + post
}
