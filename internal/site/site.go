// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package site drives a harvest: it pages through the feed, renders each
// record, writes the pages and the summary index, and records the run.
package site

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/extract"
	"github.com/pdiddy/rifsite/internal/feed"
	"github.com/pdiddy/rifsite/internal/httputil"
	"github.com/pdiddy/rifsite/internal/ledger"
	"github.com/pdiddy/rifsite/internal/render"
	"github.com/pdiddy/rifsite/pkg/types"
)

// Harvester holds everything one run needs. Ledger is optional.
type Harvester struct {
	Fetcher httputil.Fetcher
	Engine  *extract.Engine
	Summary *render.Template
	Ledger  *ledger.Store

	Profile types.Profile
	Feed    types.FeedConfig
	Render  types.RenderConfig

	// Now stamps the index page and the ledger. Nil means time.Now.
	Now func() time.Time
	Log *zap.Logger
}

// Report is the outcome of a run.
type Report struct {
	Stats       types.RunStats
	IndexPath   string
	Manifest    string
	DateInvalid error

	// Stale lists ledger pages this run did not write. Empty without a
	// ledger.
	Stale []ledger.PageEntry

	// Previous is the last finished run of the profile before this one,
	// or nil.
	Previous *types.RunStats
}

// PagePath returns where the page for identifier is written.
func PagePath(destRoot, identifier, suffix string) string {
	return filepath.Join(destRoot, identifier+suffix)
}

// Run harvests the profile's feed into its destination directory. Any
// error aborts the run; pages already written stay on disk and the index
// is not written.
func (h *Harvester) Run(ctx context.Context) (*Report, error) {
	log := h.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := h.Now
	if now == nil {
		now = time.Now
	}
	dest := h.Profile.DestRoot
	if dest == "" {
		return nil, errors.WithHint(errors.New("profile has no destination directory"),
			"set profiles.<name>.dest_root in the config")
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dest)
	}

	rep := &Report{Stats: types.RunStats{
		RunID:   uuid.NewString(),
		Profile: h.Profile.Name,
		FeedURL: h.Profile.FeedURL,
		Started: now(),
	}}
	st := &rep.Stats

	var runID int64
	if h.Ledger != nil {
		prev, err := h.Ledger.LastRun(ctx, h.Profile.Name)
		if err != nil {
			return nil, err
		}
		rep.Previous = prev
		id, err := h.Ledger.BeginRun(ctx, *st)
		if err != nil {
			return nil, err
		}
		runID = id
	}

	var summary render.Summary
	reader := feed.NewReader(h.Fetcher, h.Profile.FeedURL, h.Feed, log)
	rep.DateInvalid = reader.Invalid()
	for {
		page, err := reader.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}

		recs, err := page.Records(h.Profile.NSPrefix)
		if err != nil {
			return nil, err
		}
		log.Info("processing page", zap.Int("page", page.Number), zap.Int("records", len(recs)))

		for _, rec := range recs {
			st.RecordsSeen++
			rec.Index = st.RecordsSeen
			res, err := h.Engine.Render(ctx, rec)
			if err != nil {
				return nil, errors.Wrapf(err, "page %d record %d", page.Number, rec.Index)
			}
			switch res.Outcome {
			case extract.SkippedNoRules:
				st.SkippedNoRules++
				continue
			case extract.SkippedUnresolved:
				st.SkippedUnresolved++
				summary.Add(res.Summary)
				continue
			}

			path := PagePath(dest, res.Identifier, h.Render.DestSuffix)
			log.Info("writing page", zap.String("path", path))
			if err := writeFileAtomic(path, []byte(res.HTML)); err != nil {
				return nil, err
			}
			st.Written++
			summary.Add(res.Summary)

			if h.Ledger != nil {
				if err := h.Ledger.RecordPage(ctx, runID, h.Profile.Name, res.Summary, path, now()); err != nil {
					return nil, err
				}
			}
		}
	}
	st.PagesFetched = reader.PageCount()
	st.SummaryRows = summary.Len()

	html, err := summary.Render(h.Summary, now())
	if err != nil {
		return nil, err
	}
	rep.IndexPath = PagePath(dest, h.Render.SummaryPrefix, h.Render.DestSuffix)
	log.Info("writing summary", zap.String("path", rep.IndexPath), zap.Int("rows", st.SummaryRows))
	if err := writeFileAtomic(rep.IndexPath, []byte(html)); err != nil {
		return nil, err
	}

	st.Finished = now()
	if h.Render.ManifestName != "" {
		rep.Manifest = filepath.Join(dest, h.Render.ManifestName)
		m := Manifest{Profile: h.Profile.Name, Generated: st.Finished, Stats: *st, Records: summary.Rows()}
		if err := writeManifest(rep.Manifest, m); err != nil {
			return nil, err
		}
	}

	if h.Ledger != nil {
		if err := h.Ledger.FinishRun(ctx, runID, *st); err != nil {
			return nil, err
		}
		stale, err := h.Ledger.Stale(ctx, h.Profile.Name, runID)
		if err != nil {
			return nil, err
		}
		rep.Stale = stale
	}
	return rep, nil
}
