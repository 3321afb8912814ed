// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStats counts what one harvest did.
type RunStats struct {
	// RunID is unique per run and shared by the manifest and the ledger.
	RunID   string    `json:"run_id" yaml:"run_id"`
	Profile string    `json:"profile" yaml:"profile"`
	FeedURL string    `json:"feed_url" yaml:"feed_url"`
	Started time.Time `json:"started" yaml:"started"`
	// Finished is zero while the run is in progress.
	Finished time.Time `json:"finished" yaml:"finished"`

	PagesFetched      int `json:"pages_fetched" yaml:"pages_fetched"`
	RecordsSeen       int `json:"records_seen" yaml:"records_seen"`
	Written           int `json:"written" yaml:"written"`
	SkippedNoRules    int `json:"skipped_no_rules" yaml:"skipped_no_rules"`
	SkippedUnresolved int `json:"skipped_unresolved" yaml:"skipped_unresolved"`
	SummaryRows       int `json:"summary_rows" yaml:"summary_rows"`
}
