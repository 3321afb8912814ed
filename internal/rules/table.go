// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules holds the declarative rule tables that drive extraction,
// and dispatches a record's (primary type, subtype) pair to its table.
package rules

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoRules is returned by Lookup when no table is bound to a record
	// type. Callers skip the record.
	ErrNoRules = errors.New("no rules defined for record type")

	// ErrUnknownAction is returned when an entry names an action outside
	// the closed set.
	ErrUnknownAction = errors.New("unknown rule action")

	// ErrDuplicateOrder is returned when two entries of one table share a
	// sort order.
	ErrDuplicateOrder = errors.New("duplicate sort order in rule table")

	// ErrUnknownTableName is returned when binding a dispatch name that
	// no RIF-CS record type produces.
	ErrUnknownTableName = errors.New("table name matches no record type")
)

// Entry is one rule: run Action with Label against XPath. Order fixes the
// position of the produced rows on the page.
type Entry struct {
	Order  int
	Action Action
	Label  string
	XPath  string
}

// Table is an immutable, order-sorted list of entries.
type Table struct {
	name    string
	entries []Entry
}

// NewTable validates entries and returns them sorted by Order. Declaration
// order is irrelevant.
func NewTable(name string, entries ...Entry) (*Table, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	for i, e := range sorted {
		if !e.Action.Valid() {
			return nil, errors.Wrapf(ErrUnknownAction, "table %s order %d", name, e.Order)
		}
		if i > 0 && sorted[i-1].Order == e.Order {
			return nil, errors.Wrapf(ErrDuplicateOrder, "table %s order %d", name, e.Order)
		}
	}
	return &Table{name: name, entries: sorted}, nil
}

// Name returns the table's name, e.g. "CollectionDatasetRules".
func (t *Table) Name() string { return t.name }

// Entries returns a copy of the entries in ascending Order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// TableName builds the dispatch name for a record type: the capitalised
// primary type and subtype followed by "Rules", with '-' in the subtype
// replaced by '_'. ("service", "harvest-oaipmh") gives
// "ServiceHarvest_oaipmhRules".
func TableName(primary, subtype string) string {
	return capFirst(primary) + capFirst(strings.ReplaceAll(subtype, "-", "_")) + "Rules"
}

// capFirst upper-cases the first letter only; "catalogueOrIndex" becomes
// "CatalogueOrIndex".
func capFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Registry maps dispatch names to tables. Several names may share one
// table. A Registry is built once at startup and only read afterwards.
type Registry struct {
	tables map[string]*Table
	keys   map[string]*Table
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: map[string]*Table{}, keys: map[string]*Table{}}
}

// Define adds t under its own name. Redefining a name is an error.
func (r *Registry) Define(t *Table) error {
	if _, ok := r.tables[t.name]; ok {
		return errors.Newf("rule table %s already defined", t.name)
	}
	r.tables[t.name] = t
	return nil
}

// Table returns the table defined under name.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Bind routes the dispatch name key to the table called tableName. key
// must be a name TableName can produce for a catalogued record type.
func (r *Registry) Bind(key, tableName string) error {
	if !IsValidTableName(key) {
		return errors.Wrapf(ErrUnknownTableName, "%s", key)
	}
	t, ok := r.tables[tableName]
	if !ok {
		return errors.Newf("binding %s: rule table %s not defined", key, tableName)
	}
	r.keys[key] = t
	return nil
}

// Lookup returns the table for a record type. Matching is case-sensitive
// after the first letters are capitalised.
func (r *Registry) Lookup(primary, subtype string) (*Table, error) {
	name := TableName(primary, subtype)
	t, ok := r.keys[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoRules, "%s,%s (%s)", primary, subtype, name)
	}
	return t, nil
}

// Binding is one dispatch name and the table it resolves to.
type Binding struct {
	Key   string
	Table *Table
}

// Bindings returns every bound dispatch name sorted by key.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, 0, len(r.keys))
	for k, t := range r.keys {
		out = append(out, Binding{Key: k, Table: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
