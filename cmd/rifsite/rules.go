// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rifsite/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List rule tables, the record types bound to them, and actions",
	Long: `Rules prints every record type that has a rule table, the table it is
bound to, the record types left without one, and the actions a table entry
may name. Tables from
render.rules_file are included. With --table NAME the entries of one
table are printed in the order they render.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().String("table", "", "print the entries of this table")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	reg, err := buildRegistry(cfg.Render.RulesFile)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("table"); name != "" {
		return printTable(cmd.OutOrStdout(), reg, name)
	}
	printBindings(cmd.OutOrStdout(), reg)
	printUnbound(cmd.OutOrStdout(), reg)
	printActions(cmd.OutOrStdout())
	return nil
}

func printBindings(w io.Writer, reg *rules.Registry) {
	t := newTable(w)
	t.SetTitle("Record types with rules")
	t.AppendHeader(table.Row{"Key", "Table", "Entries"})
	for _, b := range reg.Bindings() {
		t.AppendRow(table.Row{b.Key, b.Table.Name(), b.Table.Len()})
	}
	t.Render()
}

// printUnbound lists catalogued record types that no table serves. Their
// records are skipped during a harvest.
func printUnbound(w io.Writer, reg *rules.Registry) {
	bound := map[string]bool{}
	for _, b := range reg.Bindings() {
		bound[b.Key] = true
	}
	t := newTable(w)
	t.SetTitle("Record types without rules")
	for _, name := range rules.ValidTableNames() {
		if !bound[name] {
			t.AppendRow(table.Row{name})
		}
	}
	t.Render()
}

func printActions(w io.Writer) {
	t := newTable(w)
	t.SetTitle("Actions")
	for _, a := range rules.Actions {
		t.AppendRow(table.Row{a.String()})
	}
	t.Render()
}

func printTable(w io.Writer, reg *rules.Registry, name string) error {
	tbl, ok := reg.Table(name)
	if !ok {
		var names []string
		seen := map[string]bool{}
		for _, b := range reg.Bindings() {
			if !seen[b.Table.Name()] {
				seen[b.Table.Name()] = true
				names = append(names, b.Table.Name())
			}
		}
		return errors.WithHintf(errors.Newf("no rule table %q", name),
			"bound tables: %s", strings.Join(names, ", "))
	}
	t := newTable(w)
	t.SetTitle(tbl.Name())
	t.AppendHeader(table.Row{"Order", "Action", "Label", "XPath"})
	for _, en := range tbl.Entries() {
		t.AppendRow(table.Row{en.Order, en.Action.String(), en.Label, en.XPath})
	}
	t.Render()
	return nil
}
