// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import "sort"

// Catalogue lists the capitalised RIF-CS subtypes for each capitalised
// primary type, plus the pseudo-type used for deleted records.
var Catalogue = map[string][]string{
	"Activity":   {"Award", "Course", "Event", "Program", "Project"},
	"Collection": {"CatalogueOrIndex", "Collection", "Dataset", "Registry", "Repository"},
	"Party":      {"AdministrativePosition", "Group", "Person"},
	"Service": {
		"Annotate", "Assemble", "Create", "Generate", "Report", "Transform",
		"Harvest-oaipmh", "Search-http", "Search-opensearch", "Search-sru", "Search-srw",
		"Search-z3950", "Syndicate-atom", "Syndicate-rss",
	},
	"Any": {"Deleted"},
}

var validTableNames = func() map[string]bool {
	m := map[string]bool{}
	for primary, subtypes := range Catalogue {
		for _, s := range subtypes {
			m[TableName(primary, s)] = true
		}
	}
	return m
}()

// IsValidTableName reports whether name is the dispatch name of a
// catalogued record type.
func IsValidTableName(name string) bool { return validTableNames[name] }

// ValidTableNames returns every catalogued dispatch name, sorted.
func ValidTableNames() []string {
	out := make([]string, 0, len(validTableNames))
	for n := range validTableNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
