// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rifsite/internal/ledger"
	"github.com/pdiddy/rifsite/internal/site"
	"github.com/pdiddy/rifsite/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status PROFILE",
	Short: "Show the last harvest of a profile and the pages it knows about",
	Long: `Status prints the last finished run of PROFILE and every page recorded
for it. With ledger.path set the ledger is read; otherwise the manifest the
last harvest left in the profile's destination directory is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	prof, err := pickProfile(cfg, args[0])
	if err != nil {
		return err
	}
	return status(cmd.Context(), cmd.OutOrStdout(), cfg, prof)
}

func status(ctx context.Context, w io.Writer, cfg *types.Config, prof types.Profile) error {
	if cfg.Ledger.Path != "" {
		store, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		last, err := store.LastRun(ctx, prof.Name)
		if err != nil {
			return err
		}
		if last == nil {
			return errors.WithHintf(errors.Newf("no finished run of %s in the ledger", prof.Name),
				"run: rifsite harvest --profile %s", prof.Name)
		}
		pages, err := store.Pages(ctx, prof.Name)
		if err != nil {
			return err
		}
		printRun(w, "Last run of "+prof.Name, *last)
		printPages(w, pages)
		return nil
	}

	if cfg.Render.ManifestName == "" {
		return errors.WithHint(errors.New("no ledger and no manifest configured"),
			"set ledger.path or render.manifest_name in the config")
	}
	m, err := site.ReadManifest(filepath.Join(prof.DestRoot, cfg.Render.ManifestName))
	if err != nil {
		return errors.WithHintf(err, "run: rifsite harvest --profile %s", prof.Name)
	}
	printRun(w, "Last run of "+prof.Name, m.Stats)
	t := newTable(w)
	t.SetTitle("Records")
	t.AppendHeader(table.Row{"Type", "Subtype", "Key", "Name", "Identifier"})
	for _, r := range m.Records {
		t.AppendRow(table.Row{r.Type, r.Subtype, r.Key, r.Name, r.Identifier})
	}
	t.Render()
	return nil
}

func printRun(w io.Writer, title string, st types.RunStats) {
	t := newTable(w)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"Run", st.RunID},
		{"Feed", st.FeedURL},
		{"Finished", st.Finished.Format(time.RFC3339)},
		{"Pages fetched", st.PagesFetched},
		{"Records seen", st.RecordsSeen},
		{"Pages written", st.Written},
		{"Summary rows", st.SummaryRows},
	})
	t.Render()
}

func printPages(w io.Writer, pages []ledger.PageEntry) {
	t := newTable(w)
	t.SetTitle("Pages")
	t.AppendHeader(table.Row{"Identifier", "Type", "Subtype", "Name", "Path", "Last written"})
	for _, p := range pages {
		t.AppendRow(table.Row{p.Identifier, p.Type, p.Subtype, p.Name, p.Path, p.UpdatedAt.Format(time.RFC3339)})
	}
	t.Render()
}
