// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

// Action names an extraction behaviour a rule entry invokes. The set is
// closed; the extraction engine must provide a handler for every value in
// Actions.
type Action int

const (
	ActionUnknown Action = iota

	// ActionAttrAndElementValues emits one row per matched node: label,
	// sorted attribute values, element text.
	ActionAttrAndElementValues

	// ActionAttrNamesAndValues emits label, attribute names, attribute values.
	ActionAttrNamesAndValues

	// ActionAttrValuesAndChildValues emits label, attribute values, the
	// texts of the node's child elements.
	ActionAttrValuesAndChildValues

	// ActionRelatedObject emits label, "relation (description)", key for
	// each <relatedObject>.
	ActionRelatedObject

	// ActionRelatedInfo emits a header row and up to three detail rows for
	// each <relatedInfo>.
	ActionRelatedInfo

	ActionRepoName
	ActionRepoObjectID

	// ActionRDAURL and ActionRegistryURL link the text found at the xpath
	// into Research Data Australia and the ANDS collections registry.
	ActionRDAURL
	ActionRegistryURL

	// Header actions are only meaningful for deleted records.
	ActionHeaderStatus
	ActionHeaderLocalDatestamp
)

// Actions lists every valid action in declaration order.
var Actions = []Action{
	ActionAttrAndElementValues,
	ActionAttrNamesAndValues,
	ActionAttrValuesAndChildValues,
	ActionRelatedObject,
	ActionRelatedInfo,
	ActionRepoName,
	ActionRepoObjectID,
	ActionRDAURL,
	ActionRegistryURL,
	ActionHeaderStatus,
	ActionHeaderLocalDatestamp,
}

var actionNames = map[Action]string{
	ActionAttrAndElementValues:     "attr-and-element-values",
	ActionAttrNamesAndValues:       "attr-names-and-values",
	ActionAttrValuesAndChildValues: "attr-values-and-child-values",
	ActionRelatedObject:            "related-object",
	ActionRelatedInfo:              "related-info",
	ActionRepoName:                 "repo-name",
	ActionRepoObjectID:             "repo-object-id",
	ActionRDAURL:                   "rda-url",
	ActionRegistryURL:              "registry-url",
	ActionHeaderStatus:             "header-status",
	ActionHeaderLocalDatestamp:     "header-local-datestamp",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether a is one of Actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ParseAction returns the action called name, or ActionUnknown.
func ParseAction(name string) Action {
	for a, s := range actionNames {
		if s == name {
			return a
		}
	}
	return ActionUnknown
}
