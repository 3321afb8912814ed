// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/rifsite/pkg/types"
)

// Summary page constants.
const (
	SummaryTitle   = "List of metadata records"
	SummaryHeading = "Summary"
)

// SummaryColumns heads the index table.
var SummaryColumns = []string{"Type", "Subtype", "Key", "Name"}

// Summary collects one row per processed record for the index page. It
// is append-only and not safe for concurrent use.
type Summary struct {
	rows []types.SummaryRow
}

// Add appends a row.
func (s *Summary) Add(r types.SummaryRow) { s.rows = append(s.rows, r) }

// Len returns the number of rows collected.
func (s *Summary) Len() int { return len(s.rows) }

// Rows returns the rows in index order: ascending by type, subtype, name
// and key, with deleted records after all others.
func (s *Summary) Rows() []types.SummaryRow {
	out := make([]types.SummaryRow, len(s.rows))
	copy(out, s.rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if da, db := a.IsDeleted(), b.IsDeleted(); da != db {
			return db
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Subtype != b.Subtype {
			return a.Subtype < b.Subtype
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key < b.Key
	})
	return out
}

// Render fills tpl with the sorted rows. now stamps the page.
func (s *Summary) Render(tpl *Template, now time.Time) (string, error) {
	var b strings.Builder
	for _, r := range s.Rows() {
		b.WriteString(Row([]Cell{Text(r.Type), Text(r.Subtype), Text(r.Key), Text(r.Name)}, false))
	}
	return tpl.Execute(map[string]string{
		ValuePageTitle:       SummaryTitle,
		ValuePageHeading:     SummaryHeading,
		ValueTableRowHeader:  HeaderRow(SummaryColumns...),
		ValueTableRowContent: b.String(),
		ValueLastUpdated:     now.Format(LastUpdatedLayout),
	})
}
