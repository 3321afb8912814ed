// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rifsite/pkg/types"
)

const pageTemplate = `<html>
<head><title><!-- [[TAG_PAGE_TITLE]] --></title></head>
<body>
<h1><!-- [[TAG_PAGE_HEADING]] --></h1>
<table>
<!-- [[TAG_TABLE_ROW_HEADER]] -->
<!-- [[TAG_TABLE_ROW_CONTENT]] -->
</table>
<p>Last updated: <!-- [[TAG_LAST_UPDATED]] --></p>
</body>
</html>
`

func TestRender_ReplacesEveryOccurrence(t *testing.T) {
	src := "<title><!-- [[A]] --></title><h1><!-- [[A]] --></h1>\r\n<p><!-- [[B]] --></p>"
	var b strings.Builder
	err := Render(&b, strings.NewReader(src),
		map[string]string{"A": "a", "B": "b"},
		map[string]string{"a": "Alpha", "b": "Beta"})
	require.NoError(t, err)
	assert.Equal(t, "<title>Alpha</title><h1>Alpha</h1>\r\n<p>Beta</p>", b.String())
}

func TestRender_UnregisteredTagPassesThrough(t *testing.T) {
	src := "<p><!-- [[TAG_UNKNOWN]] --></p>\n<p><!-- [[TAG_PAGE_TITLE]] --></p>\n"
	tpl := NewTemplate([]byte(src), nil)
	out, err := tpl.Execute(map[string]string{ValuePageTitle: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "<p><!-- [[TAG_UNKNOWN]] --></p>\n<p>Hello</p>\n", out)
}

func TestRender_RegisteredTagWithoutValue(t *testing.T) {
	tpl := NewTemplate([]byte("[<!-- [[TAG_LAST_UPDATED]] -->]"), nil)
	out, err := tpl.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestRender_NoTagsIsIdentity(t *testing.T) {
	tpl := NewTemplate([]byte(pageTemplate), map[string]string{})
	out, err := tpl.Execute(map[string]string{ValuePageTitle: "x"})
	require.NoError(t, err)
	assert.Equal(t, pageTemplate, out)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.tpl.html")
	require.NoError(t, os.WriteFile(path, []byte(pageTemplate), 0o644))

	tpl, err := LoadTemplate(path, DefaultTags())
	require.NoError(t, err)
	assert.Equal(t, path, tpl.Path)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.html"), nil)
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestRow(t *testing.T) {
	got := Row([]Cell{Markup("Record <em>may</em> exist"), Text("a<b"), Text("https://example.org/x?a=1&b=2")}, false)
	want := RowIndent + `<tr class="even">` +
		`<td class="rifFields">Record <em>may</em> exist</td>` +
		`<td class="rifFields">a&lt;b</td>` +
		`<td class="rifFields"><a href="https://example.org/x?a=1&amp;b=2">https://example.org/x?a=1&amp;b=2</a></td>` +
		"</tr>\n"
	assert.Equal(t, want, got)
}

func TestRow_Highlight(t *testing.T) {
	got := Row([]Cell{Markup("Name"), Text(""), Text("Ada")}, true)
	assert.Contains(t, got, `<td class="rifFields"><strong><em>Name</em></strong></td>`)
	assert.Contains(t, got, `<td class="rifFields"><strong><em></em></strong></td>`)
	assert.Contains(t, got, `<td class="rifFields"><strong><em>Ada</em></strong></td>`)
}

func TestRow_NotALink(t *testing.T) {
	got := Row([]Cell{Text("http://")}, false)
	assert.NotContains(t, got, "<a ")
	got = Row([]Cell{Text("see http://example.org")}, false)
	assert.NotContains(t, got, "<a ")
}

func TestHeaderRow(t *testing.T) {
	got := HeaderRow("Field", "Aux. Field", "Value", "")
	assert.Equal(t, RowIndent+"<tr>"+
		`<th class="rifFields highlightRifFields" scope="col">Field</th>`+
		`<th class="rifFields highlightRifFields" scope="col">Aux. Field</th>`+
		`<th class="rifFields highlightRifFields" scope="col">Value</th>`+
		`<th class="rifFields highlightRifFields" scope="col"></th>`+
		"</tr>\n", got)
}

func TestSummary_DeletedLast(t *testing.T) {
	var s Summary
	s.Add(types.SummaryRow{Type: "Collection", Subtype: "Dataset", Key: "k1", Name: "Tides"})
	s.Add(types.SummaryRow{Type: "Any", Subtype: "Deleted", Key: "oai:x:1"})
	s.Add(types.SummaryRow{Type: "Party", Subtype: "Person", Key: "k2", Name: "Ada"})
	s.Add(types.SummaryRow{Type: "Activity", Subtype: "Project", Key: "k3", Name: "Engine"})
	require.Equal(t, 4, s.Len())

	tpl := NewTemplate([]byte(pageTemplate), nil)
	stamp := time.Date(2013, 1, 30, 7, 8, 57, 0, time.UTC)
	out, err := s.Render(tpl, stamp)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, SummaryTitle, doc.Find("title").Text())
	assert.Equal(t, SummaryHeading, doc.Find("h1").Text())
	assert.Contains(t, doc.Find("p").Text(), "30 Jan 2013 07:08:57 UTC")

	var got []string
	doc.Find("tr.even").Each(func(_ int, tr *goquery.Selection) {
		got = append(got, tr.Find("td").First().Text())
	})
	assert.Equal(t, []string{"Activity", "Collection", "Party", "Any"}, got)

	var heads []string
	doc.Find("th").Each(func(_ int, th *goquery.Selection) { heads = append(heads, th.Text()) })
	assert.Equal(t, SummaryColumns, heads)
}

func TestSummary_SortKeys(t *testing.T) {
	var s Summary
	s.Add(types.SummaryRow{Type: "Party", Subtype: "Person", Key: "b", Name: "Same"})
	s.Add(types.SummaryRow{Type: "Party", Subtype: "Person", Key: "a", Name: "Same"})
	s.Add(types.SummaryRow{Type: "Party", Subtype: "Group", Key: "z", Name: "Zed"})
	s.Add(types.SummaryRow{Type: "any", Subtype: "deleted", Key: "0"})
	s.Add(types.SummaryRow{Type: "Party", Subtype: "Person", Key: "c", Name: "Abe"})

	var keys []string
	for _, r := range s.Rows() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"z", "c", "a", "b", "0"}, keys)
}
