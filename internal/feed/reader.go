// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed pages through an OAI-PMH ListRecords feed one response at
// a time, following resumption tokens until the feed reports its last page.
package feed

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/httputil"
	"github.com/pdiddy/rifsite/pkg/types"
)

const verbListRecords = "verb=ListRecords"

// DefaultMetadataPrefix is requested when the config leaves it empty.
const DefaultMetadataPrefix = "rif"

// ErrRedirectedPage is returned when the feed answers a page request with
// a redirect. Feed redirects are not followed.
var ErrRedirectedPage = errors.New("feed page request was redirected")

// Reader fetches successive ListRecords pages. It is not safe for
// concurrent use.
type Reader struct {
	fetcher httputil.Fetcher
	baseURL string
	log     *zap.Logger

	maxPages int
	query    string // continuation parameters for the next request
	pages    int
	done     bool

	// invalid holds the from/until validation failure, if any.
	invalid error
}

// NewReader prepares a reader for the feed at baseURL. A malformed or
// inverted from/until range leaves the reader exhausted before its first
// fetch; the failure is logged and available from Invalid.
func NewReader(f httputil.Fetcher, baseURL string, cfg types.FeedConfig, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reader{
		fetcher:  f,
		baseURL:  baseURL,
		log:      log,
		maxPages: cfg.MaxPages,
	}

	if err := ValidateRange(cfg.From, cfg.Until); err != nil {
		log.Warn("date filter rejected, no pages will be fetched", zap.Error(err))
		r.invalid = err
		r.done = true
		return r
	}

	prefix := cfg.MetadataPrefix
	if prefix == "" {
		prefix = DefaultMetadataPrefix
	}
	q := url.Values{}
	q.Set("metadataPrefix", prefix)
	if cfg.From != "" {
		q.Set("from", cfg.From)
	}
	if cfg.Until != "" {
		q.Set("until", cfg.Until)
	}
	if cfg.Set != "" {
		q.Set("set", cfg.Set)
	}
	r.query = q.Encode()
	return r
}

// NextURL returns the URL the next call to NextPage will fetch, or "" when
// the reader is exhausted.
func (r *Reader) NextURL() string {
	if r.done {
		return ""
	}
	sep := "?"
	if strings.Contains(r.baseURL, "?") {
		sep = "&"
	}
	return r.baseURL + sep + verbListRecords + "&" + r.query
}

// NextPage fetches the next page. It returns a nil page once the previous
// page carried no resumption token, MaxPages pages have been read, or the
// date filter was rejected. Fetch failures are fatal.
func (r *Reader) NextPage(ctx context.Context) (*Page, error) {
	if r.done {
		return nil, nil
	}
	u := r.NextURL()

	resp, err := r.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching page %d", r.pages+1)
	}
	if resp.IsRedirect() {
		return nil, errors.Wrapf(ErrRedirectedPage, "%s -> %s", u, resp.Location)
	}

	p, err := parsePage(r.pages+1, u, resp.Body)
	if err != nil {
		return nil, err
	}
	r.pages++

	if p.Last {
		r.done = true
	} else {
		r.query = "resumptionToken=" + url.QueryEscape(p.Token)
	}
	if r.maxPages > 0 && r.pages >= r.maxPages {
		if !r.done {
			r.log.Info("page limit reached", zap.Int("max_pages", r.maxPages))
		}
		r.done = true
	}
	return p, nil
}

// PageCount returns the number of pages fetched so far.
func (r *Reader) PageCount() int { return r.pages }

// Invalid returns the date filter validation error, or nil.
func (r *Reader) Invalid() error { return r.invalid }
