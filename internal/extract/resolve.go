// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/httputil"
)

// handlePattern matches keys served by the Handle System, which must be
// looked up to learn the repository URL they point at.
var handlePattern = regexp.MustCompile(`^https?://hdl\.handle\.net/.+/.+`)

// urlPattern matches keys that are repository URLs already.
var urlPattern = regexp.MustCompile(`^https?://.+/.+/.+`)

// ErrUnresolved marks a record whose key yields no identifier. Callers
// skip the record's page.
var ErrUnresolved = errors.New("record key does not resolve to an identifier")

// Resolver turns a record key into the identifier used to name its page.
type Resolver struct {
	fetcher httputil.Fetcher
	log     *zap.Logger
}

// NewResolver returns a Resolver that looks handles up through f.
func NewResolver(f httputil.Fetcher, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{fetcher: f, log: log}
}

// Resolve maps key to an identifier. A handle key is fetched once and the
// redirect target used; a handle that does not redirect is unresolved. The
// redirect target is not fetched. A non-handle URL key is used directly.
// Anything else is unresolved. Unresolved keys return ErrUnresolved;
// failures to reach the handle server are returned as-is and are fatal.
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	var target string
	switch {
	case key == "":
		return "", errors.Wrap(ErrUnresolved, "record has no key")
	case handlePattern.MatchString(key):
		resp, err := r.fetcher.Fetch(ctx, key)
		if err != nil {
			return "", errors.Wrapf(err, "resolving handle %s", key)
		}
		if !resp.IsRedirect() || resp.Location == "" {
			r.log.Warn("handle does not redirect", zap.String("key", key))
			return "", errors.Wrapf(ErrUnresolved, "handle %s does not redirect", key)
		}
		target = resp.Location
	case urlPattern.MatchString(key):
		target = key
	default:
		r.log.Warn("key is not a URI", zap.String("key", key))
		return "", errors.Wrapf(ErrUnresolved, "key %q is not a URI", key)
	}

	id := Identifier(target)
	if id == "" {
		return "", errors.Wrapf(ErrUnresolved, "no identifier in %s", target)
	}
	return id, nil
}

// Identifier returns the last path segment of u cut at its first '.', so
// ".../redirect/abc123.html" gives "abc123".
func Identifier(u string) string {
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		u = u[i+1:]
	}
	if i := strings.IndexByte(u, '.'); i >= 0 {
		u = u[:i]
	}
	return u
}
