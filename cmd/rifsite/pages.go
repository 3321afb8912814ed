// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/feed"
	"github.com/pdiddy/rifsite/internal/httputil"
	"github.com/pdiddy/rifsite/internal/site"
	"github.com/pdiddy/rifsite/pkg/types"
)

var pagesCmd = &cobra.Command{
	Use:   "pages URL",
	Short: "Save raw ListRecords pages from an OAI-PMH feed",
	Long: `Pages follows resumption tokens from the ListRecords feed at URL (a base
URL without a query string) and writes each page verbatim to
PREFIX0001.xml, PREFIX0002.xml and so on. Useful for building test
fixtures and for inspecting what a repository publishes. A malformed or
inverted --from/--until range is logged and no pages are fetched.`,
	Args: cobra.ExactArgs(1),
	RunE: runPages,
}

func init() {
	pagesCmd.Flags().String("out", ".", "directory receiving the pages")
	pagesCmd.Flags().String("filename-prefix", site.DefaultDumpPrefix, "page filename prefix")
	pagesCmd.Flags().String("metadata-prefix", "", "OAI metadataPrefix (default from config)")
	pagesCmd.Flags().String("from", "", "records changed on or after this UTC datestamp")
	pagesCmd.Flags().String("until", "", "records changed on or before this UTC datestamp")
	pagesCmd.Flags().String("set", "", "OAI set")
	pagesCmd.Flags().Int("max-pages", 0, "stop after this many pages (0 = no limit)")

	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	fc, err := withSecrets(cfg.Feed, logger)
	if err != nil {
		return err
	}
	applyFeedFlags(cmd, &fc)
	if mp, _ := cmd.Flags().GetString("metadata-prefix"); mp != "" {
		fc.MetadataPrefix = mp
	}
	out, _ := cmd.Flags().GetString("out")
	prefix, _ := cmd.Flags().GetString("filename-prefix")

	return savePages(cmd.Context(), cmd.OutOrStdout(), args[0], fc, out, prefix, logger)
}

// savePages dumps the feed at baseURL into out. A rejected date filter is
// logged by the reader and leaves nothing to fetch, as in a harvest.
func savePages(ctx context.Context, w io.Writer, baseURL string, fc types.FeedConfig, out, prefix string, log *zap.Logger) error {
	r := feed.NewReader(httputil.NewClient(fc.HTTPConfig, log), baseURL, fc, log)
	paths, err := site.DumpPages(ctx, r, out, prefix, log)
	if err != nil {
		return err
	}
	log.Info("pages saved", zap.Int("count", len(paths)), zap.String("dir", out))
	fmt.Fprintf(w, "%d page(s) written to %s\n", len(paths), out)
	return nil
}
