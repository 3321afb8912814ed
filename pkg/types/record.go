// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// RIF-CS primary record types.
const (
	TypeParty      = "party"
	TypeActivity   = "activity"
	TypeService    = "service"
	TypeCollection = "collection"

	// TypeAny and SubtypeDeleted form the key of records that only exist
	// as an OAI-PMH header with status="deleted".
	TypeAny        = "any"
	SubtypeDeleted = "deleted"
)

// PrimaryTypes lists the element names recognised under registryObject.
var PrimaryTypes = []string{TypeParty, TypeActivity, TypeService, TypeCollection}

// IsPrimaryType reports whether name is one of PrimaryTypes.
func IsPrimaryType(name string) bool {
	for _, t := range PrimaryTypes {
		if t == name {
			return true
		}
	}
	return false
}

// SummaryRow represents one processed record on the index page.
type SummaryRow struct {
	// Type and Subtype are capitalised ("Collection", "Dataset").
	Type    string `json:"type" yaml:"type"`
	Subtype string `json:"subtype" yaml:"subtype"`

	// Key is the RIF-CS key, or the OAI identifier of a deleted record.
	Key string `json:"key" yaml:"key"`

	// Name joins every name part of the record.
	Name string `json:"name" yaml:"name"`

	// Identifier is the output basename. Empty when the key could not be
	// resolved and no page was written.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

// IsDeleted reports whether the row describes a deleted record.
func (r SummaryRow) IsDeleted() bool {
	return strings.EqualFold(r.Type, TypeAny) && strings.EqualFold(r.Subtype, SubtypeDeleted)
}
