// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/feed"
)

// DefaultDumpPrefix names dumped pages oai_page_0001.xml and so on.
const DefaultDumpPrefix = "oai_page_"

// DumpFilename returns the file name of page n.
func DumpFilename(prefix string, n int) string {
	return fmt.Sprintf("%s%04d.xml", prefix, n)
}

// DumpPages writes every page r yields, verbatim, into dir. It returns
// the paths written.
func DumpPages(ctx context.Context, r *feed.Reader, dir, prefix string, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	var paths []string
	for {
		p, err := r.NextPage(ctx)
		if err != nil {
			return paths, err
		}
		if p == nil {
			return paths, nil
		}
		path := filepath.Join(dir, DumpFilename(prefix, p.Number))
		log.Info("writing page", zap.String("url", p.URL), zap.String("path", path))
		if err := writeFileAtomic(path, p.Body); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
}
