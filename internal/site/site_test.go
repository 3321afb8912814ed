// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package site

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/rifsite/internal/extract"
	"github.com/pdiddy/rifsite/internal/feed"
	"github.com/pdiddy/rifsite/internal/httputil"
	"github.com/pdiddy/rifsite/internal/ledger"
	"github.com/pdiddy/rifsite/internal/render"
	"github.com/pdiddy/rifsite/internal/rules"
	"github.com/pdiddy/rifsite/pkg/types"
)

const testTemplate = `<html><head><title><!-- [[TAG_PAGE_TITLE]] --></title></head>
<body><h1><!-- [[TAG_PAGE_HEADING]] --></h1>
<table>
<!-- [[TAG_TABLE_ROW_HEADER]] -->
<!-- [[TAG_TABLE_ROW_CONTENT]] -->
</table>
<p><!-- [[TAG_LAST_UPDATED]] --></p></body></html>
`

func rifRecord(primary, subtype, key, name string) string {
	return fmt.Sprintf(`<record><header><identifier>oai:x:%[3]s</identifier></header><metadata>
<registryObjects xmlns="http://ands.org.au/standards/rif-cs/registryObjects"><registryObject group="G">
<key>%[3]s</key><%[1]s type="%[2]s"><name><namePart>%[4]s</namePart></name></%[1]s>
</registryObject></registryObjects></metadata></record>
`, primary, subtype, key, name)
}

func deletedRecord(id string) string {
	return fmt.Sprintf(`<record><header status="deleted"><identifier>%s</identifier><datestamp>2013-01-30T07:08:57Z</datestamp></header></record>
`, id)
}

func oaiPage(body, token string) string {
	tok := ""
	if token != "" {
		tok = "<resumptionToken>" + token + "</resumptionToken>"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/"><ListRecords>
` + body + tok + `</ListRecords></OAI-PMH>`
}

// testFeed serves two pages. dropCollection removes the collection record
// from page one; failPage2 answers page two with HTTP 500.
type testFeed struct {
	dropCollection bool
	failPage2      bool
	hits           int32
}

func (f *testFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.hits, 1)
	if r.URL.Query().Get("resumptionToken") == "" {
		body := rifRecord("party", "person", "http://example.org/records/p1", "Ada")
		if !f.dropCollection {
			body += rifRecord("collection", "dataset", "http://example.org/records/c1", "Tides")
		}
		body += rifRecord("activity", "award", "http://example.org/records/a1", "Medal")
		fmt.Fprint(w, oaiPage(body, "t2"))
		return
	}
	if f.failPage2 {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	body := rifRecord("service", "create", "not-a-url", "Engine") +
		deletedRecord("http://example.org/records/gone")
	fmt.Fprint(w, oaiPage(body, ""))
}

type fixture struct {
	dest   string
	server *httptest.Server
	feed   *testFeed
	h      *Harvester
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T, store *ledger.Store) *fixture {
	t.Helper()
	f := &fixture{dest: filepath.Join(t.TempDir(), "www"), feed: &testFeed{}}
	f.server = httptest.NewServer(f.feed)
	t.Cleanup(f.server.Close)

	core, logs := observer.New(zapcore.InfoLevel)
	f.logs = logs
	log := zap.New(zapcore.NewTee(zaptest.NewLogger(t).Core(), core))
	client := httputil.NewClient(types.HTTPConfig{}, log)
	reg, err := rules.Builtin()
	require.NoError(t, err)

	profile := types.Profile{Name: "mint", FeedURL: f.server.URL + "/oai", DestRoot: f.dest}
	rcfg := types.RenderConfig{DestSuffix: ".html", SummaryPrefix: "index", ManifestName: "manifest.yaml"}
	tpl := render.NewTemplate([]byte(testTemplate), nil)
	now := func() time.Time { return time.Date(2014, 5, 1, 0, 0, 0, 0, time.UTC) }

	engine, err := extract.NewEngine(reg, extract.NewResolver(client, log), tpl,
		extract.Config{Profile: profile, Render: rcfg, Location: time.UTC, Now: now}, log)
	require.NoError(t, err)

	f.h = &Harvester{
		Fetcher: client,
		Engine:  engine,
		Summary: tpl,
		Ledger:  store,
		Profile: profile,
		Render:  rcfg,
		Now:     now,
		Log:     log,
	}
	return f
}

func TestRun_WritesSite(t *testing.T) {
	f := newFixture(t, nil)
	rep, err := f.h.Run(context.Background())
	require.NoError(t, err)

	st := rep.Stats
	assert.Equal(t, 2, st.PagesFetched)
	assert.Equal(t, 5, st.RecordsSeen)
	assert.Equal(t, 3, st.Written)
	assert.Equal(t, 1, st.SkippedNoRules)
	assert.Equal(t, 1, st.SkippedUnresolved)
	assert.Equal(t, 4, st.SummaryRows)
	assert.NoError(t, rep.DateInvalid)

	for _, name := range []string{"p1.html", "c1.html", "gone.html", "index.html", "manifest.yaml"} {
		_, err := os.Stat(filepath.Join(f.dest, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(f.dest, "a1.html"))
	assert.True(t, os.IsNotExist(err))

	// No temp files left behind.
	entries, err := os.ReadDir(f.dest)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	page, err := os.ReadFile(filepath.Join(f.dest, "p1.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h1>Party - Person</h1>")

	index, err := os.ReadFile(rep.IndexPath)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(index)))
	require.NoError(t, err)
	assert.Equal(t, render.SummaryTitle, doc.Find("title").Text())
	var rows []string
	doc.Find("tr.even").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) { cells = append(cells, td.Text()) })
		rows = append(rows, strings.Join(cells, "|"))
	})
	assert.Equal(t, []string{
		"Collection|Dataset|http://example.org/records/c1|Tides",
		"Party|Person|http://example.org/records/p1|Ada",
		"Service|Create|not-a-url|Engine",
		"Any|Deleted|http://example.org/records/gone|",
	}, rows)

	m, err := ReadManifest(rep.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "mint", m.Profile)
	assert.Equal(t, 3, m.Stats.Written)
	_, err = uuid.Parse(m.Stats.RunID)
	assert.NoError(t, err, "run id %q", m.Stats.RunID)
	require.Len(t, m.Records, 4)
	assert.Equal(t, "c1", m.Records[0].Identifier)
	assert.Empty(t, m.Records[2].Identifier)
	assert.Equal(t, "gone", m.Records[3].Identifier)
}

func TestRun_NumbersRecordsAcrossPages(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.h.Run(context.Background())
	require.NoError(t, err)

	pageOf := map[int64]int64{}
	for _, e := range f.logs.All() {
		fields := e.ContextMap()
		rec, ok := fields["record"].(int64)
		if !ok {
			continue
		}
		pageOf[rec] = fields["page"].(int64)
	}
	assert.Equal(t, map[int64]int64{1: 1, 2: 1, 3: 1, 4: 2, 5: 2}, pageOf)
}

func TestRun_FatalFetchLeavesNoIndex(t *testing.T) {
	f := newFixture(t, nil)
	f.feed.failPage2 = true

	_, err := f.h.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, httputil.ErrUnexpectedStatus))

	_, err = os.Stat(filepath.Join(f.dest, "index.html"))
	assert.True(t, os.IsNotExist(err))
	// Pages from the first page were already written.
	_, err = os.Stat(filepath.Join(f.dest, "p1.html"))
	assert.NoError(t, err)
}

func TestRun_InvalidDateFilter(t *testing.T) {
	f := newFixture(t, nil)
	f.h.Feed = types.FeedConfig{From: "2020-01-01", Until: "2019-01-01"}

	rep, err := f.h.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, errors.Is(rep.DateInvalid, feed.ErrInvertedRange))
	assert.Equal(t, 0, rep.Stats.PagesFetched)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.feed.hits))

	// An empty index is still written.
	_, err = os.Stat(rep.IndexPath)
	assert.NoError(t, err)
}

func TestRun_NoManifest(t *testing.T) {
	f := newFixture(t, nil)
	f.h.Render.ManifestName = ""
	rep, err := f.h.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Manifest)
	_, err = os.Stat(filepath.Join(f.dest, "manifest.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_MissingDestRoot(t *testing.T) {
	f := newFixture(t, nil)
	f.h.Profile.DestRoot = ""
	_, err := f.h.Run(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestRun_LedgerReportsStalePages(t *testing.T) {
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	f := newFixture(t, store)
	rep, err := f.h.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Stale)
	assert.Nil(t, rep.Previous)

	pages, err := store.Pages(context.Background(), "mint")
	require.NoError(t, err)
	assert.Len(t, pages, 3)

	firstRun := rep.Stats.RunID
	f.feed.dropCollection = true
	rep, err = f.h.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Stale, 1)
	assert.Equal(t, "c1", rep.Stale[0].Identifier)
	require.NotNil(t, rep.Previous)
	assert.Equal(t, firstRun, rep.Previous.RunID)
	assert.Equal(t, 3, rep.Previous.Written)

	last, err := store.LastRun(context.Background(), "mint")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Written)
	assert.Equal(t, rep.Stats.RunID, last.RunID)
	assert.NotEqual(t, firstRun, last.RunID)
}

func TestDumpPages(t *testing.T) {
	f := newFixture(t, nil)
	dir := filepath.Join(t.TempDir(), "dump")

	r := feed.NewReader(f.h.Fetcher, f.h.Profile.FeedURL, types.FeedConfig{}, nil)
	paths, err := DumpPages(context.Background(), r, dir, "p", nil)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "p0001.xml"), filepath.Join(dir, "p0002.xml")}, paths)

	body, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(body), "not-a-url")
	assert.NotContains(t, string(body), "resumptionToken")
}

func TestDumpFilename(t *testing.T) {
	assert.Equal(t, "oai_page_0001.xml", DumpFilename(DefaultDumpPrefix, 1))
	assert.Equal(t, "x12345.xml", DumpFilename("x", 12345))
}
