package tui

import "github.com/charmbracelet/glamour"

const helpMarkdown = `# How this works

- **Source of truth**: the dashboard reads BPMN XML and KPI CSVs from your
  GitHub repository (selected Folder → BPMN file).
- **KPI CSV name**: ` + "`<bpmn_file_name>_kpis.csv`" + ` in the **same folder**
  (e.g. ` + "`hr/hr_recruitment_kpis.csv`" + `).
- **Binding rule**: if no CSV exists, tasks and events carrying annotation
  properties with ` + "`kpi_key`" + ` are shown instead.
- **Update flow**: commit a new .bpmn or CSV, then press **r** (or enable
  auto-refresh in .bpmnboard/config.yaml).
- **Private repos**: set ` + "`repository.private: true`" + ` and export
  **GITHUB_TOKEN**.
- **AI proposals**: export **OPENAI_API_KEY**, press **g** on a diagram, and
  save the proposed CSV from the review screen. Committing it to the
  repository stays a manual step.
`

// renderHelp renders the help markdown for the current terminal width.
// Falls back to the raw markdown if the renderer cannot be built.
func renderHelp(width int) string {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
