// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"
)

// rulesFile is the YAML form of additional rule tables.
//
//	tables:
//	  - name: PartyAdministrativePositionRules
//	    bind: [PartyAdministrativePositionRules]
//	    entries:
//	      - {order: 2040, action: attr-and-element-values, label: Name, xpath: "..."}
//	bind:
//	  ActivityAwardRules: GenericRules_ActivityPartyService
type rulesFile struct {
	Tables []struct {
		Name    string      `yaml:"name"`
		Bind    []string    `yaml:"bind"`
		Entries []fileEntry `yaml:"entries"`
	} `yaml:"tables"`
	Bind map[string]string `yaml:"bind"`
}

type fileEntry struct {
	Order  int    `yaml:"order"`
	Action string `yaml:"action"`
	Label  string `yaml:"label"`
	XPath  string `yaml:"xpath"`
}

// LoadFile reads extra tables and bindings from a YAML file into r.
func LoadFile(r *Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "opening rules file"),
			"check render.rules_file in the config")
	}
	defer f.Close()
	return errors.Wrapf(Load(r, f), "rules file %s", path)
}

// Load reads extra tables and bindings from YAML into r. Tables are
// defined before bindings are applied, so a binding may name a table
// declared in the same document. Action names are validated here, before
// any record is processed.
func Load(r *Registry, src io.Reader) error {
	var rf rulesFile
	if err := yaml.NewDecoder(src).Decode(&rf); err != nil && err != io.EOF {
		return errors.Wrap(err, "decoding rules")
	}

	for _, ft := range rf.Tables {
		entries := make([]Entry, 0, len(ft.Entries))
		for _, fe := range ft.Entries {
			a := ParseAction(fe.Action)
			if a == ActionUnknown {
				return errors.Wrapf(ErrUnknownAction, "table %s order %d: %q", ft.Name, fe.Order, fe.Action)
			}
			entries = append(entries, Entry{Order: fe.Order, Action: a, Label: fe.Label, XPath: fe.XPath})
		}
		t, err := NewTable(ft.Name, entries...)
		if err != nil {
			return err
		}
		if err := r.Define(t); err != nil {
			return err
		}
	}

	for _, ft := range rf.Tables {
		for _, k := range ft.Bind {
			if err := r.Bind(k, ft.Name); err != nil {
				return err
			}
		}
	}
	for k, name := range rf.Bind {
		if err := r.Bind(k, name); err != nil {
			return err
		}
	}
	return nil
}
