// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by the feed reader and the
// handle resolver.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Headers overrides or adds request headers. Some web servers
	// (ModSecurity rules and the like) reject requests without them.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`

	// RequestInterval spaces successive requests to the same server. Zero
	// sends them back to back.
	RequestInterval time.Duration `json:"request_interval,omitempty" yaml:"request_interval,omitempty" mapstructure:"request_interval"`

	// SecretsDir holds one file per extra header, named after the header.
	// Headers set in Headers win. Empty disables it.
	SecretsDir string `json:"secrets_dir,omitempty" yaml:"secrets_dir,omitempty" mapstructure:"secrets_dir"`
}

// Profile selects one repository feed and where its website is written.
type Profile struct {
	// Name is the profile key, e.g. "mint" or "redbox". Also shown as the
	// repository name on record pages unless RepoName is set.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// FeedURL is the OAI-PMH base URL without a query string.
	FeedURL string `json:"feed_url" yaml:"feed_url" mapstructure:"feed_url"`

	// DestRoot is the directory receiving the generated pages.
	DestRoot string `json:"dest_root" yaml:"dest_root" mapstructure:"dest_root"`

	// NSPrefix is the namespace prefix of RIF-CS elements including the
	// trailing colon ("rif:"), or empty.
	NSPrefix string `json:"ns_prefix" yaml:"ns_prefix" mapstructure:"ns_prefix"`

	// RepoName overrides Name on record pages.
	RepoName string `json:"repo_name,omitempty" yaml:"repo_name,omitempty" mapstructure:"repo_name"`

	// DeletedHeading is the page heading used for deleted records.
	DeletedHeading string `json:"deleted_heading,omitempty" yaml:"deleted_heading,omitempty" mapstructure:"deleted_heading"`
}

// Repository returns the repository label shown on record pages.
func (p Profile) Repository() string {
	if p.RepoName != "" {
		return p.RepoName
	}
	return p.Name
}

// FeedConfig holds the ListRecords request parameters.
type FeedConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MetadataPrefix is sent on the first request (default "rif").
	MetadataPrefix string `json:"metadata_prefix" yaml:"metadata_prefix" mapstructure:"metadata_prefix"`

	// Set restricts harvesting to one OAI set.
	Set string `json:"set,omitempty" yaml:"set,omitempty" mapstructure:"set"`

	// From and Until are UTC datestamps (YYYY-MM-DD or YYYY-MM-DDThh:mm:ssZ).
	From  string `json:"from,omitempty" yaml:"from,omitempty" mapstructure:"from"`
	Until string `json:"until,omitempty" yaml:"until,omitempty" mapstructure:"until"`

	// MaxPages stops pagination after this many pages. Zero means no limit.
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// RenderConfig holds settings for turning records into pages.
type RenderConfig struct {
	// Template is the record page template file.
	Template string `json:"template" yaml:"template" mapstructure:"template"`

	// SummaryTemplate is the index page template file.
	SummaryTemplate string `json:"summary_template" yaml:"summary_template" mapstructure:"summary_template"`

	// DestSuffix is appended to every output filename, dot included.
	DestSuffix string `json:"dest_suffix" yaml:"dest_suffix" mapstructure:"dest_suffix"`

	// SummaryPrefix is the basename of the index page.
	SummaryPrefix string `json:"summary_prefix" yaml:"summary_prefix" mapstructure:"summary_prefix"`

	// ManifestName is the YAML manifest written next to the index page.
	// Empty disables the manifest.
	ManifestName string `json:"manifest_name" yaml:"manifest_name" mapstructure:"manifest_name"`

	// Tags maps a template tag name (TAG_PAGE_TITLE) to the value key
	// (page_title) whose text replaces it.
	Tags map[string]string `json:"tags" yaml:"tags" mapstructure:"tags"`

	// RulesFile is an optional YAML file of extra rule tables and bindings
	// added to the built-in ones.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty" mapstructure:"rules_file"`

	// HighlightLabels lists rule labels whose rows are emphasised.
	HighlightLabels []string `json:"highlight_labels" yaml:"highlight_labels" mapstructure:"highlight_labels"`

	// KeyXPath and DeletedKeyXPath locate the record key of live and
	// deleted records.
	KeyXPath        string `json:"key_xpath" yaml:"key_xpath" mapstructure:"key_xpath"`
	DeletedKeyXPath string `json:"deleted_key_xpath" yaml:"deleted_key_xpath" mapstructure:"deleted_key_xpath"`

	// Registry* and RDA* build deep links into the two external registries.
	RegistryURLPrefix string `json:"registry_url_prefix" yaml:"registry_url_prefix" mapstructure:"registry_url_prefix"`
	RegistryURLSuffix string `json:"registry_url_suffix" yaml:"registry_url_suffix" mapstructure:"registry_url_suffix"`
	RDAURLPrefix      string `json:"rda_url_prefix" yaml:"rda_url_prefix" mapstructure:"rda_url_prefix"`
	RDAURLSuffix      string `json:"rda_url_suffix" yaml:"rda_url_suffix" mapstructure:"rda_url_suffix"`

	// TimeZone is the IANA zone used for local datestamps. Empty means
	// the system zone.
	TimeZone string `json:"time_zone,omitempty" yaml:"time_zone,omitempty" mapstructure:"time_zone"`
}

// LedgerConfig holds settings for the SQLite run ledger.
type LedgerConfig struct {
	// Path is the database file. Empty disables the ledger.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// Config groups everything a harvest run needs.
type Config struct {
	Feed     FeedConfig         `json:"feed" yaml:"feed" mapstructure:"feed"`
	Render   RenderConfig       `json:"render" yaml:"render" mapstructure:"render"`
	Ledger   LedgerConfig       `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Profiles map[string]Profile `json:"profiles" yaml:"profiles" mapstructure:"profiles"`
	LogLevel string             `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}
