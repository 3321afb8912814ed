// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import "github.com/cockroachdb/errors"

const (
	labelRDA      = "Record <em>may</em> exist at Research Data Australia"
	labelRegistry = "Record <em>may</em> exist at the ANDS Online Services Collections Registry"

	// objectPath is the element of the record's primary type.
	objectPath = "registryObjects/registryObject/" + Placeholder
	keyPath    = "registryObjects/registryObject/key"
)

// Built-in table names.
const (
	TableAnyDeleted  = "AnyDeletedRules"
	TableGeneric     = "GenericRules_ActivityPartyService"
	TableCollections = "CollectionDatasetRules"
)

var anyDeletedEntries = []Entry{
	{2020, ActionHeaderStatus, "Status", ""},
	{2030, ActionAttrAndElementValues, "Deletion datestamp", "header/datestamp"},
	{2040, ActionHeaderLocalDatestamp, "Deletion datestamp (local time)", "header/datestamp"},
	{2060, ActionAttrAndElementValues, "Identifier (OAI)", "header/identifier"},
	{2470, ActionRepoName, "Repository name", ""},
	{2480, ActionRepoObjectID, "Repository object ID", ""},
	{2490, ActionRDAURL, labelRDA, "header/identifier"},
	{2495, ActionRegistryURL, labelRegistry, "header/identifier"},
}

var genericEntries = []Entry{
	{2040, ActionAttrAndElementValues, "Name (part)", objectPath + "/name/namePart"},
	{2060, ActionAttrAndElementValues, "Key", keyPath},
	{2100, ActionAttrAndElementValues, "Identifier", objectPath + "/identifier"},
	{2200, ActionAttrValuesAndChildValues, "Address (electronic)", objectPath + "/location/address/electronic"},
	{2202, ActionAttrAndElementValues, "Address (physical)", objectPath + "/location/address/physical/addressPart"},
	{2220, ActionAttrAndElementValues, "Subject", objectPath + "/subject"},
	{2240, ActionAttrAndElementValues, "Description", objectPath + "/description"},
	{2260, ActionRelatedObject, "Related Object", objectPath + "/relatedObject"},
	{2360, ActionAttrNamesAndValues, "Registry Object", "registryObjects/registryObject"},
	{2470, ActionRepoName, "Repository name", ""},
	{2480, ActionRepoObjectID, "Repository object ID", ""},
	{2490, ActionRDAURL, labelRDA, keyPath},
}

var collectionEntries = append(append([]Entry{}, genericEntries...),
	Entry{2204, ActionAttrAndElementValues, "Coverage (spatial)", objectPath + "/coverage/spatial"},
	Entry{2206, ActionAttrAndElementValues, "Coverage (temporal)", objectPath + "/coverage/temporal/date"},
	Entry{2280, ActionAttrAndElementValues, "Rights Statement", objectPath + "/rights/rightsStatement"},
	Entry{2290, ActionAttrAndElementValues, "Access Rights", objectPath + "/rights/accessRights"},
	Entry{2300, ActionRelatedInfo, "Related Information", objectPath + "/relatedInfo"},
)

// builtinBindings maps each built-in table to the dispatch names that use it.
var builtinBindings = []struct {
	table   string
	entries []Entry
	keys    []string
}{
	{TableAnyDeleted, anyDeletedEntries, []string{"AnyDeletedRules"}},
	{TableGeneric, genericEntries, []string{
		"PartyPersonRules", "PartyGroupRules", "ActivityProjectRules", "ServiceCreateRules",
	}},
	{TableCollections, collectionEntries, []string{
		"CollectionDatasetRules", "CollectionCollectionRules", "CollectionCatalogueOrIndexRules",
		"CollectionRegistryRules", "CollectionRepositoryRules",
	}},
}

// Builtin returns a registry holding the standard tables for deleted
// records, collections, and party/activity/service records.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	for _, b := range builtinBindings {
		t, err := NewTable(b.table, b.entries...)
		if err != nil {
			return nil, err
		}
		if err := r.Define(t); err != nil {
			return nil, err
		}
		for _, k := range b.keys {
			if err := r.Bind(k, b.table); err != nil {
				return nil, errors.Wrap(err, "built-in rules")
			}
		}
	}
	return r, nil
}
