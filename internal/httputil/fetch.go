// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the single-GET transport shared by the feed
// reader and the handle resolver.
package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/sethgrid/pester"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/rifsite/pkg/types"
)

var (
	// ErrBadScheme is returned for URLs that are not http or https.
	ErrBadScheme = errors.New("URL scheme is not http or https")

	// ErrUnexpectedStatus is returned for responses that are neither a
	// success nor a redirect.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Response is the outcome of one GET. Redirects are reported, never followed.
type Response struct {
	StatusCode int
	Body       []byte
	// Location is the redirect target; empty unless IsRedirect.
	Location string
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect reports a 3xx status.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// Fetcher performs a single GET.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Client is a Fetcher backed by pester with retries disabled. The
// underlying http.Client never follows redirects, so a handle lookup sees
// the first hop only.
type Client struct {
	doer    *pester.Client
	headers map[string]string
	limiter *rate.Limiter // nil when requests are not spaced
	log     *zap.Logger
}

// NewClient builds a Client from cfg. A nil log discards output.
func NewClient(cfg types.HTTPConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	hc := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	doer := pester.NewExtendedClient(hc)
	doer.MaxRetries = 1
	doer.Concurrency = 1

	headers := make(map[string]string, len(cfg.Headers)+1)
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	// Config keys may arrive lower-cased.
	for k, v := range cfg.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	c := &Client{doer: doer, headers: headers, log: log}
	if cfg.RequestInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}
	return c
}

// Fetch GETs rawURL. Network failures and statuses outside 2xx/3xx are
// errors; the caller decides what a redirect means.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Wrapf(ErrBadScheme, "%q", rawURL)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "waiting for request slot")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	c.log.Info("getting URL", zap.String("url", rawURL))
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", rawURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading body of %s", rawURL)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: body}
	switch {
	case out.IsRedirect():
		out.Location = resp.Header.Get("Location")
		c.log.Debug("redirect", zap.String("url", rawURL), zap.String("location", out.Location))
	case out.IsSuccess():
	default:
		return nil, errors.Wrapf(ErrUnexpectedStatus, "HTTP %d from %s", resp.StatusCode, rawURL)
	}
	return out, nil
}
