// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/extract"
	"github.com/pdiddy/rifsite/internal/feed"
	"github.com/pdiddy/rifsite/internal/secrets"
	"github.com/pdiddy/rifsite/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "rifsite/0.1"
	defaultTemplate  = "~/opt/rifsite/etc/metadata_record.tpl.html"
)

// setDefaults registers the built-in configuration, including the mint
// and redbox profiles.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("feed.timeout", defaultTimeout)
	v.SetDefault("feed.user_agent", defaultUserAgent)
	v.SetDefault("feed.metadata_prefix", feed.DefaultMetadataPrefix)
	v.SetDefault("feed.max_pages", 0)
	v.SetDefault("feed.secrets_dir", ".secrets")

	v.SetDefault("render.template", defaultTemplate)
	v.SetDefault("render.summary_template", defaultTemplate)
	v.SetDefault("render.dest_suffix", ".html")
	v.SetDefault("render.summary_prefix", "index")
	v.SetDefault("render.manifest_name", "manifest.yaml")
	v.SetDefault("render.highlight_labels", []string{"Name"})
	v.SetDefault("render.key_xpath", extract.DefaultKeyXPath)
	v.SetDefault("render.deleted_key_xpath", extract.DefaultDeletedKeyPath)
	v.SetDefault("render.registry_url_prefix", "https://demo.ands.org.au/registry/orca/view.php")
	v.SetDefault("render.registry_url_suffix", "")
	v.SetDefault("render.rda_url_prefix", "http://demo.ands.org.au/view/")
	v.SetDefault("render.rda_url_suffix", "")

	v.SetDefault("profiles.mint.feed_url", "http://localhost:9001/mint/published/feed/oai")
	v.SetDefault("profiles.mint.dest_root", "/var/www/andsdevpub/md/m_temp")
	v.SetDefault("profiles.mint.ns_prefix", "")

	v.SetDefault("profiles.redbox.feed_url", "http://localhost:9000/redbox/published/feed/oai")
	v.SetDefault("profiles.redbox.dest_root", "/var/www/andsdevpub/md/r_temp")
	v.SetDefault("profiles.redbox.ns_prefix", "rif:")
	v.SetDefault("profiles.redbox.deleted_heading",
		"This record is no longer active and the dataset is no longer available")
}

// loadConfig decodes v into a Config and expands '~' in every path.
func loadConfig(v *viper.Viper) (*types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	for _, p := range []*string{
		&cfg.Render.Template, &cfg.Render.SummaryTemplate, &cfg.Render.RulesFile, &cfg.Ledger.Path,
		&cfg.Feed.SecretsDir,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %q", *p)
		}
		*p = expanded
	}

	for name, p := range cfg.Profiles {
		if p.Name == "" {
			p.Name = name
		}
		dest, err := homedir.Expand(p.DestRoot)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding dest_root of profile %s", name)
		}
		p.DestRoot = dest
		cfg.Profiles[name] = p
	}

	// Viper folds keys to lower case; template tags are upper case.
	if len(cfg.Render.Tags) > 0 {
		tags := make(map[string]string, len(cfg.Render.Tags))
		for k, v := range cfg.Render.Tags {
			tags[strings.ToUpper(k)] = v
		}
		cfg.Render.Tags = tags
	}
	return &cfg, nil
}

// withSecrets adds the header files in fc.SecretsDir to fc.Headers.
func withSecrets(fc types.FeedConfig, log *zap.Logger) (types.FeedConfig, error) {
	if fc.SecretsDir == "" {
		return fc, nil
	}
	s, err := secrets.Load(fc.SecretsDir, log)
	if err != nil {
		return fc, err
	}
	headers, added := secrets.Merge(fc.Headers, s)
	if len(added) > 0 {
		sort.Strings(added)
		log.Info("loaded header secrets", zap.Strings("headers", added))
	}
	fc.Headers = headers
	return fc, nil
}

// pickProfile returns the named profile.
func pickProfile(cfg *types.Config, name string) (types.Profile, error) {
	p, ok := cfg.Profiles[strings.ToLower(name)]
	if !ok {
		return types.Profile{}, errors.WithHintf(errors.Newf("unknown profile %q", name),
			"known profiles: %s", strings.Join(profileNames(cfg), ", "))
	}
	if p.FeedURL == "" {
		return types.Profile{}, errors.WithHint(errors.Newf("profile %q has no feed URL", name),
			"set profiles."+p.Name+".feed_url in the config")
	}
	return p, nil
}

func profileNames(cfg *types.Config) []string {
	names := make([]string, 0, len(cfg.Profiles))
	for n := range cfg.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// location loads the configured time zone.
func location(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "loading time zone %q", name),
			"render.time_zone takes an IANA name such as Australia/Adelaide")
	}
	return loc, nil
}
