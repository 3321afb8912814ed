// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render fills HTML templates and builds the table rows and the
// summary index they contain.
package render

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// Template tags recognised by the default configuration.
const (
	TagPageTitle       = "TAG_PAGE_TITLE"
	TagPageHeading     = "TAG_PAGE_HEADING"
	TagTableRowHeader  = "TAG_TABLE_ROW_HEADER"
	TagTableRowContent = "TAG_TABLE_ROW_CONTENT"
	TagLastUpdated     = "TAG_LAST_UPDATED"
)

// Value keys computed for every page.
const (
	ValuePageTitle       = "page_title"
	ValuePageHeading     = "page_heading"
	ValueTableRowHeader  = "table_row_header"
	ValueTableRowContent = "table_row_content"
	ValueLastUpdated     = "last_updated"
)

// LastUpdatedLayout formats the last-updated stamp, e.g.
// "30 Jan 2013 17:38:57 ACDT".
const LastUpdatedLayout = "02 Jan 2006 15:04:05 MST"

// DefaultTags maps each template tag to the value key that replaces it.
func DefaultTags() map[string]string {
	return map[string]string{
		TagPageTitle:       ValuePageTitle,
		TagPageHeading:     ValuePageHeading,
		TagTableRowHeader:  ValueTableRowHeader,
		TagTableRowContent: ValueTableRowContent,
		TagLastUpdated:     ValueLastUpdated,
	}
}

// Marker returns the placeholder for tag as it appears in a template.
func Marker(tag string) string { return "<!-- [[" + tag + "]] -->" }

// Render copies src to w one line at a time, replacing every marker of a
// tag in tags with values[tags[tag]]. A registered tag with no value is
// replaced by the empty string. Markers of unregistered tags pass through
// unchanged. Line endings are preserved.
func Render(w io.Writer, src io.Reader, tags, values map[string]string) error {
	pairs := make([]string, 0, 2*len(tags))
	for tag, key := range tags {
		pairs = append(pairs, Marker(tag), values[key])
	}
	repl := strings.NewReplacer(pairs...)

	br := bufio.NewReader(src)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if _, werr := io.WriteString(w, repl.Replace(line)); werr != nil {
				return errors.Wrap(werr, "writing page")
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading template")
		}
	}
}

// Template is a template file held in memory with its tag map.
type Template struct {
	Path string
	src  []byte
	tags map[string]string
}

// LoadTemplate reads the template at path. A missing or unreadable file
// is fatal for a run.
func LoadTemplate(path string, tags map[string]string) (*Template, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "reading HTML template"),
			"set render.template and render.summary_template to readable files")
	}
	t := NewTemplate(src, tags)
	t.Path = path
	return t, nil
}

// NewTemplate wraps template source. A nil tags map means DefaultTags.
func NewTemplate(src []byte, tags map[string]string) *Template {
	if tags == nil {
		tags = DefaultTags()
	}
	return &Template{src: src, tags: tags}
}

// Execute renders the template with values.
func (t *Template) Execute(values map[string]string) (string, error) {
	var b strings.Builder
	if err := Render(&b, bytes.NewReader(t.src), t.tags, values); err != nil {
		return "", err
	}
	return b.String(), nil
}
