// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/extract"
	"github.com/pdiddy/rifsite/internal/httputil"
	"github.com/pdiddy/rifsite/internal/ledger"
	"github.com/pdiddy/rifsite/internal/render"
	"github.com/pdiddy/rifsite/internal/rules"
	"github.com/pdiddy/rifsite/internal/site"
	"github.com/pdiddy/rifsite/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest a feed and write its website",
	Long: `Harvest pages through the profile's OAI-PMH ListRecords feed, writes one
HTML page per record into the profile's destination directory, then writes
the summary index and manifest. Any fetch failure stops the run before the
index is written.

Select the profile with --profile NAME, or the --mint / --redbox
shorthands.`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("profile", "", "profile name from the config")
	harvestCmd.Flags().Bool("mint", false, "use the mint profile")
	harvestCmd.Flags().Bool("redbox", false, "use the redbox profile")
	harvestCmd.MarkFlagsMutuallyExclusive("profile", "mint", "redbox")
	harvestCmd.MarkFlagsOneRequired("profile", "mint", "redbox")

	harvestCmd.Flags().String("dest", "", "destination directory (overrides the profile)")
	harvestCmd.Flags().String("from", "", "harvest records changed on or after this UTC datestamp")
	harvestCmd.Flags().String("until", "", "harvest records changed on or before this UTC datestamp")
	harvestCmd.Flags().String("set", "", "OAI set to harvest")
	harvestCmd.Flags().Int("max-pages", 0, "stop after this many feed pages (0 = no limit)")

	rootCmd.AddCommand(harvestCmd)
}

// profileFlag maps the mode switch to a profile name.
func profileFlag(cmd *cobra.Command) string {
	if ok, _ := cmd.Flags().GetBool("mint"); ok {
		return "mint"
	}
	if ok, _ := cmd.Flags().GetBool("redbox"); ok {
		return "redbox"
	}
	name, _ := cmd.Flags().GetString("profile")
	return name
}

// applyFeedFlags copies explicitly set feed flags over cfg.
func applyFeedFlags(cmd *cobra.Command, cfg *types.FeedConfig) {
	if cmd.Flags().Changed("from") {
		cfg.From, _ = cmd.Flags().GetString("from")
	}
	if cmd.Flags().Changed("until") {
		cfg.Until, _ = cmd.Flags().GetString("until")
	}
	if cmd.Flags().Changed("set") {
		cfg.Set, _ = cmd.Flags().GetString("set")
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	prof, err := pickProfile(cfg, profileFlag(cmd))
	if err != nil {
		return err
	}
	if dest, _ := cmd.Flags().GetString("dest"); dest != "" {
		prof.DestRoot = dest
	}
	applyFeedFlags(cmd, &cfg.Feed)
	if cfg.Feed, err = withSecrets(cfg.Feed, logger); err != nil {
		return err
	}

	h, closeFn, err := newHarvester(cfg, prof, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("harvesting", zap.String("profile", prof.Name), zap.String("feed", prof.FeedURL),
		zap.String("dest", prof.DestRoot))
	rep, err := h.Run(cmd.Context())
	if err != nil {
		return err
	}
	if rep.DateInvalid != nil {
		logger.Warn("date filter rejected, nothing harvested", zap.Error(rep.DateInvalid))
	}
	printReport(cmd.OutOrStdout(), rep)
	return nil
}

// buildRegistry returns the built-in rule tables plus those in rulesFile.
func buildRegistry(rulesFile string) (*rules.Registry, error) {
	reg, err := rules.Builtin()
	if err != nil {
		return nil, err
	}
	if rulesFile != "" {
		if err := rules.LoadFile(reg, rulesFile); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// newHarvester wires a harvest for prof. The returned func closes the
// ledger.
func newHarvester(cfg *types.Config, prof types.Profile, log *zap.Logger) (*site.Harvester, func(), error) {
	noop := func() {}

	reg, err := buildRegistry(cfg.Render.RulesFile)
	if err != nil {
		return nil, noop, err
	}
	page, err := render.LoadTemplate(cfg.Render.Template, cfg.Render.Tags)
	if err != nil {
		return nil, noop, err
	}
	summary, err := render.LoadTemplate(cfg.Render.SummaryTemplate, cfg.Render.Tags)
	if err != nil {
		return nil, noop, err
	}
	loc, err := location(cfg.Render.TimeZone)
	if err != nil {
		return nil, noop, err
	}

	client := httputil.NewClient(cfg.Feed.HTTPConfig, log)
	engine, err := extract.NewEngine(reg, extract.NewResolver(client, log), page,
		extract.Config{Profile: prof, Render: cfg.Render, Location: loc, Now: time.Now}, log)
	if err != nil {
		return nil, noop, err
	}

	h := &site.Harvester{
		Fetcher: client,
		Engine:  engine,
		Summary: summary,
		Profile: prof,
		Feed:    cfg.Feed,
		Render:  cfg.Render,
		Now:     time.Now,
		Log:     log,
	}
	if cfg.Ledger.Path == "" {
		return h, noop, nil
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, noop, err
	}
	h.Ledger = store
	return h, func() { store.Close() }, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printReport writes the run statistics, the previous run when the ledger
// has one, then any stale pages.
func printReport(w io.Writer, rep *site.Report) {
	st := rep.Stats
	t := newTable(w)
	t.SetTitle("Harvest of %s", st.Profile)
	t.AppendRows([]table.Row{
		{"Run", st.RunID},
		{"Feed", st.FeedURL},
		{"Pages fetched", st.PagesFetched},
		{"Records seen", st.RecordsSeen},
		{"Pages written", st.Written},
		{"Skipped (no rules)", st.SkippedNoRules},
		{"Skipped (unresolved)", st.SkippedUnresolved},
		{"Summary rows", st.SummaryRows},
		{"Index", rep.IndexPath},
		{"Elapsed", st.Finished.Sub(st.Started).Round(time.Millisecond)},
	})
	if rep.Manifest != "" {
		t.AppendRow(table.Row{"Manifest", rep.Manifest})
	}
	if p := rep.Previous; p != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Previous run", p.RunID},
			{"Previous finish", p.Finished.Format(time.RFC3339)},
			{"Previous pages written", p.Written},
		})
	}
	t.Render()

	if len(rep.Stale) == 0 {
		return
	}
	s := newTable(w)
	s.SetTitle("Pages no longer in the feed")
	s.AppendHeader(table.Row{"Identifier", "Type", "Subtype", "Path", "Last written"})
	for _, p := range rep.Stale {
		s.AppendRow(table.Row{p.Identifier, p.Type, p.Subtype, p.Path, p.UpdatedAt.Format(time.RFC3339)})
	}
	s.Render()
}
