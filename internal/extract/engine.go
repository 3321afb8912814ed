// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns one feed record into an HTML page by running the
// rule table bound to the record's type.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/rifsite/internal/feed"
	"github.com/pdiddy/rifsite/internal/render"
	"github.com/pdiddy/rifsite/internal/rules"
	"github.com/pdiddy/rifsite/pkg/types"
)

// Record page constants.
const (
	PageTitle             = "Research metadata record"
	DefaultDeletedHeading = "This record is no longer active"
	DefaultKeyXPath       = "registryObjects/registryObject/key"
	DefaultDeletedKeyPath = "header/identifier"

	namePartXPath = "registryObjects/registryObject/" + rules.Placeholder + "/name/namePart"
)

// PageColumns heads every record table.
var PageColumns = []string{"Field", "Aux. Field", "Value", ""}

// Outcome says what Render did with a record.
type Outcome int

const (
	// Rendered means HTML was produced.
	Rendered Outcome = iota
	// SkippedNoRules means no table is bound to the record type. The
	// record is left off the summary.
	SkippedNoRules
	// SkippedUnresolved means the key gave no identifier. No page is
	// produced but the summary row is.
	SkippedUnresolved
)

func (o Outcome) String() string {
	switch o {
	case Rendered:
		return "rendered"
	case SkippedNoRules:
		return "no rules"
	case SkippedUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Result is the product of rendering one record.
type Result struct {
	Outcome    Outcome
	Identifier string
	HTML       string
	Summary    types.SummaryRow
}

// Config carries the settings the engine reads while rendering.
type Config struct {
	Profile types.Profile
	Render  types.RenderConfig

	// Location is used for local datestamps. Nil means time.Local.
	Location *time.Location

	// Now stamps pages. Nil means time.Now.
	Now func() time.Time
}

// Engine renders records one at a time.
type Engine struct {
	registry  *rules.Registry
	resolver  *Resolver
	page      *render.Template
	cfg       Config
	loc       *time.Location
	highlight map[string]bool
	handlers  map[rules.Action]handler
	log       *zap.Logger
}

// NewEngine checks that every action, and therefore every entry of every
// bound table, has a handler, so a bad table fails here rather than
// mid-run.
func NewEngine(reg *rules.Registry, res *Resolver, page *render.Template, cfg Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	handlers := actionHandlers()
	for _, a := range rules.Actions {
		if handlers[a] == nil {
			return nil, errors.Wrapf(rules.ErrUnknownAction, "no handler for action %s", a)
		}
	}
	for _, b := range reg.Bindings() {
		for _, en := range b.Table.Entries() {
			if handlers[en.Action] == nil {
				return nil, errors.Wrapf(rules.ErrUnknownAction, "%s order %d", b.Table.Name(), en.Order)
			}
		}
	}

	if cfg.Render.KeyXPath == "" {
		cfg.Render.KeyXPath = DefaultKeyXPath
	}
	if cfg.Render.DeletedKeyXPath == "" {
		cfg.Render.DeletedKeyXPath = DefaultDeletedKeyPath
	}
	if cfg.Profile.DeletedHeading == "" {
		cfg.Profile.DeletedHeading = DefaultDeletedHeading
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	hl := make(map[string]bool, len(cfg.Render.HighlightLabels))
	for _, l := range cfg.Render.HighlightLabels {
		hl[l] = true
	}
	return &Engine{
		registry:  reg,
		resolver:  res,
		page:      page,
		cfg:       cfg,
		loc:       loc,
		highlight: hl,
		handlers:  handlers,
		log:       log,
	}, nil
}

// subject is a record being rendered plus what has been learned about it.
type subject struct {
	ctx    context.Context
	rec    feed.Record
	prefix string

	resolved bool
	id       string
	idErr    error
}

func (s *subject) query(xpath string) ([]*xmlquery.Node, error) {
	if xpath == "" {
		return nil, nil
	}
	nodes, err := xmlquery.QueryAll(s.rec.Node, xpath)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating xpath %q", xpath)
	}
	return nodes, nil
}

// lastText returns the text of the last node matched by xpath.
func (s *subject) lastText(xpath string) (string, bool, error) {
	nodes, err := s.query(xpath)
	if err != nil || len(nodes) == 0 {
		return "", false, err
	}
	return ownText(nodes[len(nodes)-1]), true, nil
}

func (s *subject) texts(xpath string) ([]string, error) {
	nodes, err := s.query(xpath)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, ownText(n))
	}
	return out, nil
}

// xpath prepares a template for s: placeholder substituted, element steps
// qualified with the namespace prefix of live records.
func (s *subject) xpath(template string) string {
	return rules.Qualify(rules.Substitute(template, s.rec.PrimaryType), s.prefix)
}

// objectID resolves the record's identifier once and caches the outcome.
func (e *Engine) objectID(s *subject) (string, error) {
	if s.resolved {
		return s.id, s.idErr
	}
	keyPath := e.cfg.Render.KeyXPath
	if s.rec.Deleted {
		keyPath = e.cfg.Render.DeletedKeyXPath
	}
	key, _, err := s.lastText(s.xpath(keyPath))
	if err != nil {
		return "", err
	}
	s.id, s.idErr = e.resolver.Resolve(s.ctx, key)
	s.resolved = true
	return s.id, s.idErr
}

// Render runs rec's rule table. Records without a table and records whose
// key does not resolve are skipped, not errors. Errors are fatal: failed
// handle lookups and xpaths that do not compile.
func (e *Engine) Render(ctx context.Context, rec feed.Record) (Result, error) {
	log := e.log.With(zap.Int("page", rec.Page), zap.Int("record", rec.Index), zap.String("type", rec.Kind()))

	table, err := e.registry.Lookup(rec.PrimaryType, rec.Subtype)
	if errors.Is(err, rules.ErrNoRules) {
		log.Info("bypassing record, no rules for type", zap.String("table", rules.TableName(rec.PrimaryType, rec.Subtype)))
		return Result{Outcome: SkippedNoRules}, nil
	}
	if err != nil {
		return Result{}, err
	}
	log.Info("processing record", zap.String("table", table.Name()))

	s := &subject{ctx: ctx, rec: rec}
	if !rec.Deleted {
		s.prefix = e.cfg.Profile.NSPrefix
	}

	summary, err := e.summarize(s)
	if err != nil {
		return Result{}, err
	}

	id, err := e.objectID(s)
	if errors.Is(err, ErrUnresolved) {
		log.Warn("skipping record, identifier not resolved", zap.String("key", summary.Key), zap.Error(err))
		return Result{Outcome: SkippedUnresolved, Summary: summary}, nil
	}
	if err != nil {
		return Result{}, err
	}
	summary.Identifier = id

	var body strings.Builder
	for _, en := range table.Entries() {
		frag, err := e.handlers[en.Action](e, s, en.Label, s.xpath(en.XPath))
		if err != nil {
			return Result{}, errors.Wrapf(err, "%s order %d (%s)", table.Name(), en.Order, en.Action)
		}
		body.WriteString(frag)
	}

	html, err := e.page.Execute(map[string]string{
		render.ValuePageTitle:       PageTitle,
		render.ValuePageHeading:     e.heading(rec),
		render.ValueTableRowHeader:  render.HeaderRow(PageColumns...),
		render.ValueTableRowContent: body.String(),
		render.ValueLastUpdated:     e.cfg.Now().In(e.loc).Format(render.LastUpdatedLayout),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Rendered, Identifier: id, HTML: html, Summary: summary}, nil
}

// heading is "Party - Person" for live records.
func (e *Engine) heading(rec feed.Record) string {
	if rec.Deleted {
		return e.cfg.Profile.DeletedHeading
	}
	return capFirst(rec.PrimaryType) + " - " + capFirst(rec.Subtype)
}

func (e *Engine) summarize(s *subject) (types.SummaryRow, error) {
	row := types.SummaryRow{Type: capFirst(s.rec.PrimaryType), Subtype: capFirst(s.rec.Subtype)}

	keyPath, namePath := e.cfg.Render.KeyXPath, namePartXPath
	if s.rec.Deleted {
		keyPath, namePath = e.cfg.Render.DeletedKeyXPath, ""
	}
	keys, err := s.texts(s.xpath(keyPath))
	if err != nil {
		return row, err
	}
	names, err := s.texts(s.xpath(namePath))
	if err != nil {
		return row, err
	}
	row.Key = strings.Join(keys, ", ")
	row.Name = strings.Join(names, ", ")
	return row, nil
}

func capFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
