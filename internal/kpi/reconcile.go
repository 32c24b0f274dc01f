package kpi

import "github.com/udexvinda/process-flow-dashboard/internal/bpmn"

// ViewSource identifies which data source the reconciled view came from.
type ViewSource string

const (
	// SourceExternal means the repository CSV was presented as-is.
	SourceExternal ViewSource = "external"
	// SourceMerged means the repository CSV was enriched with annotation columns.
	SourceMerged ViewSource = "merged"
	// SourceAnnotations means no CSV existed and annotation rows were shown.
	SourceAnnotations ViewSource = "annotations"
	// SourceNone is the explicit no-data state, distinct from an empty table.
	SourceNone ViewSource = "none"
)

// View is the KPI table ultimately presented for one pipeline run. It is
// recomputed on every run and never cached beyond the run that produced it.
type View struct {
	Source ViewSource
	Table  Table
}

// Reconcile applies the decision policy, in strict order:
//
//  1. An external table, when fetched, is authoritative. If it carries a
//     kpi_key column it is left-joined against the annotation rows; every
//     external row is preserved and unmatched annotation rows are dropped.
//     Without a kpi_key column the table is presented unmodified.
//  2. Otherwise, at least one annotation row yields the annotation-only table.
//  3. Otherwise the explicit no-data state.
//
// Annotations are a fallback source of truth; they never override an
// explicit external table.
func Reconcile(external *Table, annotations []bpmn.AnnotationRow) View {
	if external != nil {
		if external.Lookup(KeyColumn) < 0 {
			return View{Source: SourceExternal, Table: *external}
		}
		return View{Source: SourceMerged, Table: leftJoin(*external, annotations)}
	}
	if len(annotations) > 0 {
		return View{Source: SourceAnnotations, Table: FromAnnotations(annotations)}
	}
	return View{Source: SourceNone}
}

// leftJoin preserves every external row and appends the annotation-derived
// columns the external header lacks, filling them for rows whose kpi_key
// matches an annotation. The first annotation per key wins.
func leftJoin(external Table, annotations []bpmn.AnnotationRow) Table {
	byKey := make(map[string]bpmn.AnnotationRow, len(annotations))
	for _, a := range annotations {
		if a.KPIKey == "" {
			continue
		}
		if _, ok := byKey[a.KPIKey]; !ok {
			byKey[a.KPIKey] = a
		}
	}

	type extra struct {
		name  string
		value func(bpmn.AnnotationRow) string
	}
	candidates := []extra{
		{"element_id", func(a bpmn.AnnotationRow) string { return a.ElementID }},
		{"element_name", func(a bpmn.AnnotationRow) string { return a.ElementName }},
		{"kpi_target", func(a bpmn.AnnotationRow) string { return a.KPITarget }},
		{"owner", func(a bpmn.AnnotationRow) string { return a.Owner }},
	}
	var extras []extra
	for _, cand := range candidates {
		if external.Lookup(cand.name) < 0 {
			extras = append(extras, cand)
		}
	}

	merged := Table{Columns: append([]string(nil), external.Columns...)}
	for _, e := range extras {
		merged.Columns = append(merged.Columns, e.name)
	}

	keyIdx := external.Lookup(KeyColumn)
	for i := range external.Rows {
		row := make([]string, 0, len(merged.Columns))
		for col := range external.Columns {
			row = append(row, external.cell(i, col))
		}
		ann, matched := byKey[external.cell(i, keyIdx)]
		for _, e := range extras {
			if matched {
				row = append(row, e.value(ann))
			} else {
				row = append(row, "")
			}
		}
		merged.Rows = append(merged.Rows, row)
	}
	return merged
}
