// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads request-header values that should not live in the
// config file, such as an Authorization header for a feed behind a proxy.
// Each file in the directory is one header: the filename is the header
// name and the trimmed contents are its value.
package secrets

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Load reads all files in dir and returns a map of canonical header name
// to trimmed contents. A missing directory is not an error. Unreadable
// files are logged and skipped.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "reading secrets directory %s", dir)
	}

	headers := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("file", name), zap.Error(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			headers[http.CanonicalHeaderKey(name)] = value
		}
	}
	return headers, nil
}

// Merge adds secret headers to headers without replacing any already set
// there, and returns the names it added.
func Merge(headers map[string]string, secret map[string]string) (map[string]string, []string) {
	out := make(map[string]string, len(headers)+len(secret))
	for k, v := range headers {
		out[http.CanonicalHeaderKey(k)] = v
	}
	var added []string
	for k, v := range secret {
		if _, ok := out[k]; ok {
			continue
		}
		out[k] = v
		added = append(added, k)
	}
	return out, added
}
