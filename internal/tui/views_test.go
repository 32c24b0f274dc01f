package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/udexvinda/process-flow-dashboard/internal/bpmn"
	"github.com/udexvinda/process-flow-dashboard/internal/kpi"
	"github.com/udexvinda/process-flow-dashboard/internal/pipeline"
	"github.com/udexvinda/process-flow-dashboard/internal/source"
	"github.com/udexvinda/process-flow-dashboard/internal/suggest"
)

func TestStatusForDistinguishesErrorKinds(t *testing.T) {
	network := pipeline.Result{
		Kind: pipeline.KindSourceUnavailable,
		Err:  &source.UnavailableError{URL: "u", StatusCode: 503},
	}
	malformed := pipeline.Result{
		Kind: pipeline.KindMalformedDiagram,
		Err:  &bpmn.MalformedError{Err: errors.New("unexpected EOF")},
	}
	noFiles := pipeline.Result{NoFiles: true}

	messages := []string{statusFor(network), statusFor(malformed), statusFor(noFiles)}
	seen := map[string]bool{}
	for _, msg := range messages {
		if msg == "" {
			t.Fatalf("empty user-facing message")
		}
		if seen[msg] {
			t.Fatalf("two conditions share the message %q", msg)
		}
		seen[msg] = true
	}
	if !strings.Contains(statusFor(malformed), "fix the file") {
		t.Fatalf("malformed message should point at the file, got %q", statusFor(malformed))
	}
	if !strings.Contains(statusFor(network), "press r") {
		t.Fatalf("network message should suggest retry, got %q", statusFor(network))
	}
}

func TestSuggestStatusDistinguishesFailures(t *testing.T) {
	empty := suggestStatus(suggest.ErrNoNamedElements)
	unparseable := suggestStatus(&suggest.UnparseableError{Err: errors.New("prose")})
	service := suggestStatus(&suggest.ServiceError{Err: errors.New("401")})

	if empty == unparseable || unparseable == service || empty == service {
		t.Fatalf("suggestion failure messages must be distinct: %q / %q / %q", empty, unparseable, service)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	table := kpi.Table{
		Columns: []string{"kpi_key", "owner"},
		Rows:    [][]string{{"a", "HR Ops"}, {"longer_key", "X"}},
	}
	out := renderTable(table, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "kpi_key") || !strings.Contains(lines[0], "owner") {
		t.Fatalf("header missing columns: %q", lines[0])
	}
}

func TestRenderTableEmptyRows(t *testing.T) {
	table := kpi.Table{Columns: []string{"kpi_key"}}
	out := renderTable(table, 80)
	if !strings.Contains(out, "(no rows)") {
		t.Fatalf("empty table should be marked, got %q", out)
	}
}
