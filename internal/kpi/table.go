// Package kpi holds the tabular KPI model and the reconciliation policy
// that decides which KPI source is authoritative for display.
package kpi

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/udexvinda/process-flow-dashboard/internal/bpmn"
)

// KeyColumn is the join key between an external KPI table and the
// annotation rows extracted from a diagram.
const KeyColumn = "kpi_key"

// Table is a simple value-type table: a header plus rows of strings. The
// schema is not fixed beyond kpi_key acting as the join key when present;
// additional columns pass through untouched.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Lookup returns the index of a column, or -1 when absent.
func (t Table) Lookup(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// cell returns the value at (row, col), tolerating ragged rows.
func (t Table) cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// ParseCSV reads comma-separated text with a required header row into a
// Table. Ragged records are tolerated; short rows are padded on access.
func ParseCSV(text string) (Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("kpi: parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("kpi: parse csv: missing header row")
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(col)
	}
	return Table{Columns: header, Rows: records[1:]}, nil
}

// EncodeCSV serializes the table back to comma-separated text with a
// header row.
func (t Table) EncodeCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(t.Columns)
	for _, row := range t.Rows {
		w.Write(row)
	}
	w.Flush()
	return sb.String()
}

// AnnotationColumns is the header of a table built from diagram
// annotations alone.
var AnnotationColumns = []string{"element_id", "element_name", "kpi_key", "kpi_target", "owner"}

// FromAnnotations builds a table from extracted annotation rows, one table
// row per annotation row, in the order given.
func FromAnnotations(rows []bpmn.AnnotationRow) Table {
	t := Table{Columns: AnnotationColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ElementID, r.ElementName, r.KPIKey, r.KPITarget, r.Owner})
	}
	return t
}
