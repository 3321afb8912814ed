// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_SortsByOrder(t *testing.T) {
	tbl, err := NewTable("PartyPersonRules",
		Entry{2100, ActionAttrAndElementValues, "Identifier", "a"},
		Entry{2040, ActionAttrAndElementValues, "Name", "b"},
		Entry{2300, ActionRelatedInfo, "Related", "c"},
	)
	require.NoError(t, err)

	var orders []int
	for _, e := range tbl.Entries() {
		orders = append(orders, e.Order)
	}
	assert.Equal(t, []int{2040, 2100, 2300}, orders)
	assert.Equal(t, 3, tbl.Len())
}

func TestNewTable_Rejects(t *testing.T) {
	_, err := NewTable("X",
		Entry{10, ActionRepoName, "a", ""},
		Entry{10, ActionRepoObjectID, "b", ""},
	)
	assert.True(t, errors.Is(err, ErrDuplicateOrder))

	_, err = NewTable("X", Entry{10, Action(99), "a", ""})
	assert.True(t, errors.Is(err, ErrUnknownAction))

	_, err = NewTable("X", Entry{10, ActionUnknown, "a", ""})
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestEntries_ReturnsCopy(t *testing.T) {
	tbl, err := NewTable("X", Entry{1, ActionRepoName, "a", ""})
	require.NoError(t, err)
	e := tbl.Entries()
	e[0].Label = "changed"
	assert.Equal(t, "a", tbl.Entries()[0].Label)
}

func TestTableName(t *testing.T) {
	tests := []struct {
		primary, subtype, want string
	}{
		{"party", "person", "PartyPersonRules"},
		{"collection", "catalogueOrIndex", "CollectionCatalogueOrIndexRules"},
		{"service", "harvest-oaipmh", "ServiceHarvest_oaipmhRules"},
		{"any", "deleted", "AnyDeletedRules"},
		{"party", "", "PartyRules"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableName(tt.primary, tt.subtype))
	}
}

func TestCatalogue(t *testing.T) {
	assert.True(t, IsValidTableName("ServiceSearch_z3950Rules"))
	assert.True(t, IsValidTableName("PartyAdministrativePositionRules"))
	assert.False(t, IsValidTableName("PartyRobotRules"))
	assert.False(t, IsValidTableName("GenericRules_ActivityPartyService"))

	names := ValidTableNames()
	assert.Len(t, names, 5+5+3+14+1)
	assert.Contains(t, names, "AnyDeletedRules")
}

func TestBuiltin_Lookup(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	tests := []struct {
		primary, subtype, table string
	}{
		{"party", "person", TableGeneric},
		{"party", "group", TableGeneric},
		{"activity", "project", TableGeneric},
		{"service", "create", TableGeneric},
		{"collection", "dataset", TableCollections},
		{"collection", "repository", TableCollections},
		{"collection", "catalogueOrIndex", TableCollections},
		{"any", "deleted", TableAnyDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.primary+","+tt.subtype, func(t *testing.T) {
			tbl, err := r.Lookup(tt.primary, tt.subtype)
			require.NoError(t, err)
			assert.Equal(t, tt.table, tbl.Name())
		})
	}

	// Shared tables are one instance.
	a, _ := r.Lookup("party", "person")
	b, _ := r.Lookup("service", "create")
	assert.Same(t, a, b)
}

func TestBuiltin_NoRules(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	for _, k := range [][2]string{{"party", "administrativePosition"}, {"activity", "award"}, {"Party", "Person "}} {
		_, err := r.Lookup(k[0], k[1])
		assert.True(t, errors.Is(err, ErrNoRules), "%v", k)
	}
}

func TestBuiltin_Contents(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	del, _ := r.Lookup("any", "deleted")
	assert.Equal(t, 8, del.Len())
	assert.Equal(t, ActionHeaderStatus, del.Entries()[0].Action)

	coll, _ := r.Lookup("collection", "dataset")
	assert.Equal(t, 17, coll.Len())
	entries := coll.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Order, entries[i].Order)
	}
	assert.Equal(t, "Related Information", entries[12].Label)
	assert.Equal(t, 2300, entries[12].Order)
}

func TestBindings(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	b := r.Bindings()
	require.Len(t, b, 10)
	assert.Equal(t, "ActivityProjectRules", b[0].Key)

	tbl, ok := r.Table(TableGeneric)
	require.True(t, ok)
	assert.Same(t, tbl, b[0].Table)
	_, ok = r.Table("NoSuchRules")
	assert.False(t, ok)
}

func TestBind_Errors(t *testing.T) {
	r := NewRegistry()
	tbl, _ := NewTable("Mine", Entry{1, ActionRepoName, "a", ""})
	require.NoError(t, r.Define(tbl))
	assert.Error(t, r.Define(tbl))

	assert.True(t, errors.Is(r.Bind("PartyRobotRules", "Mine"), ErrUnknownTableName))
	assert.Error(t, r.Bind("PartyPersonRules", "Missing"))
	assert.NoError(t, r.Bind("PartyPersonRules", "Mine"))
}

func TestSubstitute(t *testing.T) {
	got := Substitute("registryObjects/registryObject/"+Placeholder+"/name/"+Placeholder, "collection")
	assert.Equal(t, "registryObjects/registryObject/collection/name/collection", got)
	assert.Equal(t, "header/identifier", Substitute("header/identifier", "party"))
}

func TestQualify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"registryObjects/registryObject/key", "rif:registryObjects/rif:registryObject/rif:key"},
		{"registryObjects/registryObject/party/@type", "rif:registryObjects/rif:registryObject/rif:party/@type"},
		{"a/*/b", "rif:a/*/rif:b"},
		{"name[@type='primary']/namePart", "rif:name[@type='primary']/rif:namePart"},
		{"x:a/b", "x:a/rif:b"},
		{"./a/../b", "./rif:a/../rif:b"},
		{"//key", "//rif:key"},
		{"identifier[@type='http://purl.org/doi']", "rif:identifier[@type='http://purl.org/doi']"},
		{`a[@href="x/y/z"]/b`, `rif:a[@href="x/y/z"]/rif:b`},
		{"relatedInfo[title]/notes", "rif:relatedInfo[rif:title]/rif:notes"},
		{"a[b/c and @d='e/f']", "rif:a[rif:b/rif:c and @d='e/f']"},
		{"a[not(b) or count(c) > 1]", "rif:a[not(rif:b) or count(rif:c) > 1]"},
		{"a[2]/text()", "rif:a[2]/text()"},
		{"child::a/attribute::b", "child::rif:a/attribute::b"},
		{"a[x:b]/@*", "rif:a[x:b]/@*"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Qualify(tt.in, "rif:"), tt.in)
	}
	assert.Equal(t, "a/b", Qualify("a/b", ""))
}

func TestAction_String(t *testing.T) {
	for _, a := range Actions {
		assert.True(t, a.Valid())
		assert.NotEqual(t, "unknown", a.String())
		assert.Equal(t, a, ParseAction(a.String()))
	}
	assert.Equal(t, "unknown", ActionUnknown.String())
	assert.Equal(t, ActionUnknown, ParseAction("show_tavalues_tevalues"))
}

func TestLoad(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	src := `
tables:
  - name: PartyAdministrativePositionRules
    bind: [PartyAdministrativePositionRules]
    entries:
      - order: 2100
        action: attr-and-element-values
        label: Identifier
        xpath: registryObjects/registryObject/[[PRIMARY_RECORD_TYPE_TAG]]/identifier
      - order: 2040
        action: attr-and-element-values
        label: Name (part)
        xpath: registryObjects/registryObject/[[PRIMARY_RECORD_TYPE_TAG]]/name/namePart
bind:
  ActivityAwardRules: GenericRules_ActivityPartyService
`
	require.NoError(t, Load(r, strings.NewReader(src)))

	tbl, err := r.Lookup("party", "administrativePosition")
	require.NoError(t, err)
	want := []Entry{
		{2040, ActionAttrAndElementValues, "Name (part)", "registryObjects/registryObject/" + Placeholder + "/name/namePart"},
		{2100, ActionAttrAndElementValues, "Identifier", "registryObjects/registryObject/" + Placeholder + "/identifier"},
	}
	if diff := cmp.Diff(want, tbl.Entries()); diff != "" {
		t.Errorf("loaded entries mismatch (-want +got):\n%s", diff)
	}

	tbl, err = r.Lookup("activity", "award")
	require.NoError(t, err)
	assert.Equal(t, TableGeneric, tbl.Name())
}

func TestLoad_UnknownAction(t *testing.T) {
	src := `
tables:
  - name: Broken
    entries:
      - {order: 1, action: show_everything, label: x, xpath: y}
`
	err := Load(NewRegistry(), strings.NewReader(src))
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestLoadFile_Missing(t *testing.T) {
	err := LoadFile(NewRegistry(), "/nonexistent/rules.yaml")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}
