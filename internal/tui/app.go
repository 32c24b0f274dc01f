// internal/tui/app.go
//
// This is the main TUI for the BPMN + KPI dashboard. It uses bubbletea,
// which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// The TUI owns selection and refresh triggers only; all binding and
// reconciliation logic lives in internal/pipeline and below.

package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/udexvinda/process-flow-dashboard/internal/artifact"
	"github.com/udexvinda/process-flow-dashboard/internal/cache"
	"github.com/udexvinda/process-flow-dashboard/internal/config"
	"github.com/udexvinda/process-flow-dashboard/internal/kpi"
	"github.com/udexvinda/process-flow-dashboard/internal/logging"
	"github.com/udexvinda/process-flow-dashboard/internal/pipeline"
	"github.com/udexvinda/process-flow-dashboard/internal/source"
	"github.com/udexvinda/process-flow-dashboard/internal/suggest"
)

// appState represents which "screen" we're on
type appState int

const (
	stateFolders appState = iota // Folder picker
	stateFiles                   // Diagram picker within the folder
	stateBoard                   // Diagram summary + reconciled KPI table
	stateSuggest                 // Proposed KPI table from the LLM
	stateHelp                    // "How this works" screen
)

// Proposer is the suggestion contract the TUI depends on; tests substitute
// a canned implementation.
type Proposer interface {
	Propose(ctx context.Context, names []string) (kpi.Table, error)
}

// folderItem implements list.Item for the folder picker
type folderItem struct {
	name string
}

func (i folderItem) Title() string       { return i.name }
func (i folderItem) Description() string { return "repository folder" }
func (i folderItem) FilterValue() string { return i.name }

// fileItem implements list.Item for the diagram picker
type fileItem struct {
	name string
}

func (i fileItem) Title() string       { return i.name }
func (i fileItem) Description() string { return "BPMN diagram" }
func (i fileItem) FilterValue() string { return i.name }

type foldersLoadedMsg struct {
	folders []string
}

type runFinishedMsg struct {
	result pipeline.Result
}

type suggestFinishedMsg struct {
	table kpi.Table
	err   error
}

type proposalSavedMsg struct {
	result artifact.SaveResult
	err    error
}

type autoRefreshMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state  appState
	config *config.Config
	logger *logging.Logger

	runner   *pipeline.Runner
	fetches  *cache.Cache
	proposer Proposer
	store    *artifact.Store

	folderMenu list.Model
	fileMenu   list.Model

	folder string
	file   string
	result pipeline.Result
	loaded bool

	proposal    kpi.Table
	hasProposal bool
	suggesting  bool

	statusMsg string
	helpView  string

	width  int
	height int
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRunner overrides the pipeline runner.
func WithRunner(r *pipeline.Runner) AppOption {
	return func(a *App) {
		if r != nil {
			a.runner = r
		}
	}
}

// WithProposer overrides the suggestion backend.
func WithProposer(p Proposer) AppOption {
	return func(a *App) {
		if p != nil {
			a.proposer = p
		}
	}
}

// NewApp creates a new App instance wired to the remote repository named in
// the configuration.
func NewApp(cfg *config.Config, logger *logging.Logger, opts ...AppOption) *App {
	fetches := cache.New(cfg.CacheTTL)
	client := source.NewClient(cfg, fetches, source.WithLogger(logger))
	runner := pipeline.NewRunner(client, fetches, pipeline.WithLogger(logger))

	folderMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	folderMenu.Title = "⬡ FOLDERS"
	folderMenu.SetShowStatusBar(false)
	folderMenu.SetFilteringEnabled(false)
	fileMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	fileMenu.Title = "⬡ DIAGRAMS"
	fileMenu.SetShowStatusBar(false)
	fileMenu.SetFilteringEnabled(false)

	app := &App{
		state:      stateFolders,
		config:     cfg,
		logger:     logger,
		runner:     runner,
		fetches:    fetches,
		proposer:   suggest.NewService(cfg.SuggestionAPIKey(), cfg.SuggestionModel()),
		store:      artifact.NewStore(cfg.DownloadsDir()),
		folderMenu: folderMenu,
		fileMenu:   fileMenu,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Init kicks off the folder listing and, when configured, the auto-refresh
// ticker.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.loadFoldersCmd()}
	if interval := a.config.RefreshInterval(); interval > 0 {
		cmds = append(cmds, autoRefreshTick(interval))
	}
	return tea.Batch(cmds...)
}

func (a *App) loadFoldersCmd() tea.Cmd {
	runner := a.runner
	return func() tea.Msg {
		return foldersLoadedMsg{folders: runner.Folders(context.Background())}
	}
}

func (a *App) runPipelineCmd(folder, file string) tea.Cmd {
	runner := a.runner
	return func() tea.Msg {
		return runFinishedMsg{result: runner.Run(context.Background(), folder, file)}
	}
}

func (a *App) suggestCmd(names []string) tea.Cmd {
	proposer := a.proposer
	return func() tea.Msg {
		table, err := proposer.Propose(context.Background(), names)
		return suggestFinishedMsg{table: table, err: err}
	}
}

func (a *App) saveProposalCmd() tea.Cmd {
	store := a.store
	file := a.result.File
	table := a.proposal
	return func() tea.Msg {
		result, err := store.SaveProposal(file, table)
		return proposalSavedMsg{result: result, err: err}
	}
}

func autoRefreshTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return autoRefreshMsg{}
	})
}

// Update handles all incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.folderMenu.SetSize(msg.Width-4, msg.Height-6)
		a.fileMenu.SetSize(msg.Width-4, msg.Height-6)
		return a, nil

	case foldersLoadedMsg:
		items := make([]list.Item, 0, len(msg.folders))
		for _, f := range msg.folders {
			items = append(items, folderItem{name: f})
		}
		a.folderMenu.SetItems(items)
		if len(msg.folders) == 0 {
			a.statusMsg = "No folders found at the repository root."
		}
		return a, nil

	case runFinishedMsg:
		a.result = msg.result
		a.loaded = true
		a.hasProposal = false
		a.statusMsg = statusFor(msg.result)
		items := make([]list.Item, 0, len(msg.result.Files))
		for _, f := range msg.result.Files {
			items = append(items, fileItem{name: f})
		}
		a.fileMenu.SetItems(items)
		if !msg.result.Failed() && !msg.result.NoFiles {
			a.file = msg.result.File
			a.state = stateBoard
		}
		return a, nil

	case suggestFinishedMsg:
		a.suggesting = false
		if msg.err != nil {
			a.statusMsg = suggestStatus(msg.err)
			return a, nil
		}
		a.proposal = msg.table
		a.hasProposal = true
		a.state = stateSuggest
		a.statusMsg = "Proposed KPI table generated. Press s to save the CSV."
		return a, nil

	case proposalSavedMsg:
		if msg.err != nil {
			a.statusMsg = "Could not save proposal: " + msg.err.Error()
			return a, nil
		}
		a.statusMsg = "Saved " + msg.result.Path + " — commit it to " + a.folder + "/ to auto-detect on next load."
		return a, nil

	case autoRefreshMsg:
		cmds := []tea.Cmd{autoRefreshTick(a.config.RefreshInterval())}
		if a.folder != "" {
			// Timed refresh: rerun without explicit invalidation, letting
			// cache entries expire on their own bound.
			a.runner.Refresh(false)
			cmds = append(cmds, a.runPipelineCmd(a.folder, a.file))
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if a.state == stateHelp || a.state == stateSuggest {
			break // fall through to per-state handling below
		}
		return a, tea.Quit

	case "r":
		// Manual refresh invalidates the whole cache before re-running.
		a.runner.Refresh(true)
		a.statusMsg = "Refreshing…"
		cmds := []tea.Cmd{a.loadFoldersCmd()}
		if a.folder != "" {
			cmds = append(cmds, a.runPipelineCmd(a.folder, a.file))
		}
		return a, tea.Batch(cmds...)

	case "?":
		if a.state != stateHelp {
			a.helpView = renderHelp(a.width)
			a.state = stateHelp
			return a, nil
		}
	}

	switch a.state {
	case stateFolders:
		return a.handleFolderKey(msg)
	case stateFiles:
		return a.handleFileKey(msg)
	case stateBoard:
		return a.handleBoardKey(msg)
	case stateSuggest:
		return a.handleSuggestKey(msg)
	case stateHelp:
		if msg.String() == "esc" || msg.String() == "q" {
			a.state = stateBoard
			if !a.loaded {
				a.state = stateFolders
			}
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleFolderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if item, ok := a.folderMenu.SelectedItem().(folderItem); ok {
			a.folder = item.name
			a.file = ""
			a.statusMsg = "Loading " + a.folder + "…"
			return a, a.runPipelineCmd(a.folder, "")
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.folderMenu, cmd = a.folderMenu.Update(msg)
	return a, cmd
}

func (a *App) handleFileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = stateFolders
		return a, nil
	case "enter":
		if item, ok := a.fileMenu.SelectedItem().(fileItem); ok {
			a.file = item.name
			a.statusMsg = "Loading " + a.file + "…"
			return a, a.runPipelineCmd(a.folder, a.file)
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.fileMenu, cmd = a.fileMenu.Update(msg)
	return a, cmd
}

func (a *App) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = stateFolders
		return a, nil
	case "f":
		a.state = stateFiles
		return a, nil
	case "g":
		if a.suggesting {
			return a, nil
		}
		if len(a.result.Names) == 0 {
			a.statusMsg = "No named tasks found in the diagram; nothing to propose KPIs for."
			return a, nil
		}
		a.suggesting = true
		a.statusMsg = "Asking the model for KPI proposals…"
		return a, a.suggestCmd(a.result.Names)
	}
	return a, nil
}

func (a *App) handleSuggestKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.state = stateBoard
		return a, nil
	case "s":
		if a.hasProposal {
			return a, a.saveProposalCmd()
		}
	}
	return a, nil
}
