package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/udexvinda/process-flow-dashboard/internal/kpi"
	"github.com/udexvinda/process-flow-dashboard/internal/pipeline"
	"github.com/udexvinda/process-flow-dashboard/internal/suggest"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Italic(true)
)

// View renders the current screen.
func (a *App) View() string {
	var body string
	switch a.state {
	case stateFolders:
		body = a.folderMenu.View()
	case stateFiles:
		body = a.fileMenu.View()
	case stateBoard:
		body = a.boardView()
	case stateSuggest:
		body = a.suggestView()
	case stateHelp:
		body = a.helpView
	}

	footer := dimStyle.Render(a.footerHints())
	status := ""
	if a.statusMsg != "" {
		status = "\n" + a.statusLine()
	}
	return body + status + "\n" + footer
}

func (a *App) footerHints() string {
	switch a.state {
	case stateFolders:
		return "enter: open folder · r: refresh · ?: help · q: quit"
	case stateFiles:
		return "enter: open diagram · esc: folders · r: refresh · q: quit"
	case stateBoard:
		return "f: diagrams · g: propose KPIs · r: refresh · esc: folders · ?: help · q: quit"
	case stateSuggest:
		return "s: save CSV · esc: back"
	case stateHelp:
		return "esc: back"
	}
	return ""
}

func (a *App) statusLine() string {
	if a.loaded && a.result.Failed() {
		return errorStyle.Render(a.statusMsg)
	}
	if a.result.Warning != "" && a.statusMsg == statusFor(a.result) {
		return warnStyle.Render(a.statusMsg)
	}
	return captionStyle.Render(a.statusMsg)
}

// boardView shows the selected diagram's summary and the reconciled KPI
// table. The interactive diagram rendering itself belongs to an embeddable
// viewer outside this program; the board shows the extracted structure.
func (a *App) boardView() string {
	if !a.loaded {
		return captionStyle.Render("Loading…")
	}
	res := a.result

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Process Dashboard — "+res.DiagramPath) + "\n\n")

	if res.Failed() {
		sb.WriteString(errorStyle.Render(statusFor(res)) + "\n")
		return sb.String()
	}
	if res.NoFiles {
		sb.WriteString(warnStyle.Render("No .bpmn files found in this folder.") + "\n")
		sb.WriteString(captionStyle.Render("Choose another folder or press r after committing a diagram.") + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%s %d named elements · %d annotated\n\n",
		okStyle.Render("Diagram loaded:"), len(res.Names), len(res.Annotations))

	sb.WriteString(headerStyle.Render("KPI Mapping") + "\n")
	switch res.View.Source {
	case kpi.SourceExternal:
		sb.WriteString(captionStyle.Render("Loaded from existing CSV in repo.") + "\n")
		sb.WriteString(renderTable(res.View.Table, a.width))
	case kpi.SourceMerged:
		sb.WriteString(captionStyle.Render("Loaded from existing CSV in repo, enriched with diagram annotations.") + "\n")
		sb.WriteString(renderTable(res.View.Table, a.width))
	case kpi.SourceAnnotations:
		sb.WriteString(captionStyle.Render("No CSV found. Showing element → KPI tags from diagram annotations.") + "\n")
		sb.WriteString(renderTable(res.View.Table, a.width))
	case kpi.SourceNone:
		sb.WriteString(warnStyle.Render("No KPI CSV and no KPI tags in the diagram.") + "\n")
		sb.WriteString(captionStyle.Render("Press g to propose KPIs, or add kpi_key properties to tasks.") + "\n")
	}

	if res.Warning != "" {
		sb.WriteString("\n" + warnStyle.Render("Warning: "+res.Warning) + "\n")
	}
	return sb.String()
}

func (a *App) suggestView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Proposed KPIs — "+a.result.File) + "\n\n")
	sb.WriteString(captionStyle.Render("Review, save, and commit the CSV next to the diagram; it will be auto-detected on the next load.") + "\n")
	sb.WriteString(renderTable(a.proposal, a.width))
	return sb.String()
}

// renderTable lays out a KPI table with padded columns. Wide tables are
// clipped to the window rather than wrapped.
func renderTable(t kpi.Table, width int) string {
	if len(t.Columns) == 0 {
		return ""
	}
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, row := range t.Rows {
		for i := range t.Columns {
			if i < len(row) && len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(renderRow(t.Columns, widths, headerStyle, width))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i := range t.Columns {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		sb.WriteString(renderRow(cells, widths, cellStyle, width))
	}
	if len(t.Rows) == 0 {
		sb.WriteString(dimStyle.Render("(no rows)") + "\n")
	}
	return sb.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style, maxWidth int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	line := strings.Join(parts, "  ")
	if maxWidth > 4 && len(line) > maxWidth-2 {
		line = line[:maxWidth-2] + "…"
	}
	return style.Render(line) + "\n"
}

// statusFor maps a run result onto a distinct, actionable message per
// error kind. Absence of data and presence-with-error stay visually
// distinguishable.
func statusFor(res pipeline.Result) string {
	if res.NoFiles {
		return "No .bpmn files found in this folder."
	}
	switch res.Kind {
	case pipeline.KindSourceUnavailable:
		return "Repository unreachable: " + res.Err.Error() + " — check the network or token, then press r."
	case pipeline.KindMalformedDiagram:
		return "Diagram is not well-formed XML: " + res.Err.Error() + " — fix the file; retrying the network will not help."
	}
	if res.Warning != "" {
		return res.Warning
	}
	return "Loaded " + res.DiagramPath + "."
}

// suggestStatus maps suggestion failures, which never disturb the already
// rendered KPI view.
func suggestStatus(err error) string {
	if errors.Is(err, suggest.ErrNoNamedElements) {
		return "No named tasks found in the diagram; nothing to propose KPIs for."
	}
	var unparseable *suggest.UnparseableError
	if errors.As(err, &unparseable) {
		return "The model's reply was not a usable CSV table — try again."
	}
	var service *suggest.ServiceError
	if errors.As(err, &service) {
		return "KPI suggestion service failed: " + service.Err.Error()
	}
	return "KPI suggestion failed: " + err.Error()
}
