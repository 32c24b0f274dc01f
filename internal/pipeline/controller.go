// internal/pipeline/controller.go
//
// The refresh/selection controller. One Run resolves a folder/file
// selection into a reconciled KPI view:
//
//	Idle -> FolderSelected -> FileSelected -> PathsResolved ->
//	DiagramLoaded -> {KpiResolved | KpiAbsent} -> Rendered
//
// Every run recomputes everything; the only state shared between runs is
// the URL-keyed fetch cache. A failed run reports a typed, state-scoped
// error and the controller simply waits for the next trigger.

package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/udexvinda/process-flow-dashboard/internal/bpmn"
	"github.com/udexvinda/process-flow-dashboard/internal/cache"
	"github.com/udexvinda/process-flow-dashboard/internal/kpi"
	"github.com/udexvinda/process-flow-dashboard/internal/source"
)

// DiagramExt is the filename extension selecting diagram files.
const DiagramExt = ".bpmn"

// ArtifactSuffix is appended to a diagram's stem to derive its companion
// KPI table path.
const ArtifactSuffix = "_kpis.csv"

// State tracks how far a pipeline run progressed.
type State string

const (
	StateIdle           State = "idle"
	StateFolderSelected State = "folder-selected"
	StateFileSelected   State = "file-selected"
	StatePathsResolved  State = "paths-resolved"
	StateDiagramLoaded  State = "diagram-loaded"
	StateKpiResolved    State = "kpi-resolved"
	StateKpiAbsent      State = "kpi-absent"
	StateRendered       State = "rendered"
)

// ErrorKind classifies run failures so the presentation layer can show a
// distinct, actionable message per kind.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindSourceUnavailable ErrorKind = "source-unavailable"
	KindMalformedDiagram  ErrorKind = "malformed-diagram"
)

// Accessor is the remote-source contract the controller depends on.
type Accessor interface {
	ListEntries(ctx context.Context, path string) ([]source.Entry, error)
	FetchText(ctx context.Context, path string) (string, error)
	Exists(ctx context.Context, path string) bool
	Folders(ctx context.Context) []string
}

// Logger is the minimal logging contract the controller needs.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Result is the outcome of one pipeline run. It is a value object; nothing
// in it is retained by the controller.
type Result struct {
	Folder       string
	File         string
	Files        []string
	DiagramPath  string
	ArtifactPath string

	DiagramXML  string
	Annotations []bpmn.AnnotationRow
	Names       []string
	View        kpi.View

	// NoFiles marks the terminal "no diagram files in folder" state. It is
	// guidance, not an error; the run halts until the selection changes.
	NoFiles bool

	// Warning carries a non-fatal note, e.g. a KPI CSV that exists but
	// could not be loaded.
	Warning string

	State State
	Kind  ErrorKind
	Err   error
}

// Failed reports whether the run halted on an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// DeriveArtifactPath maps a diagram path to its conventional KPI artifact
// path: same directory, filename stem plus the fixed suffix. The mapping is
// pure; stem uniqueness within a directory is a caller responsibility.
func DeriveArtifactPath(diagramPath string) string {
	dir := ""
	name := diagramPath
	if idx := strings.LastIndex(diagramPath, "/"); idx >= 0 {
		dir = diagramPath[:idx+1]
		name = diagramPath[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return dir + name + ArtifactSuffix
}

// Runner executes pipeline runs against a remote source.
type Runner struct {
	src    Accessor
	cache  *cache.Cache
	logger Logger
}

// RunnerOption customizes Runner construction.
type RunnerOption func(*Runner)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner wires a Runner to its source accessor and the shared fetch
// cache.
func NewRunner(src Accessor, fetchCache *cache.Cache, opts ...RunnerOption) *Runner {
	r := &Runner{
		src:    src,
		cache:  fetchCache,
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Folders lists selectable folders, falling back to the configured static
// list when the root listing fails.
func (r *Runner) Folders(ctx context.Context) []string {
	return r.src.Folders(ctx)
}

// Refresh prepares for the next run. A manual refresh invalidates the
// entire fetch cache before any fetch begins; a timed refresh leaves
// entries to expire on their own time bound.
func (r *Runner) Refresh(manual bool) {
	if manual && r.cache != nil {
		r.cache.InvalidateAll()
	}
}

// Run executes one full pipeline pass for a folder and, optionally, a
// specific diagram file within it. When file is empty the first diagram in
// the folder is selected. Run never panics; failures come back inside the
// Result.
func (r *Runner) Run(ctx context.Context, folder, file string) Result {
	res := Result{Folder: folder, State: StateFolderSelected}

	entries, err := r.src.ListEntries(ctx, folder)
	if err != nil {
		return r.fail(res, err)
	}
	res.Files = diagramFiles(entries)
	if len(res.Files) == 0 {
		res.NoFiles = true
		r.logger.Printf("pipeline: no %s files in folder %q", DiagramExt, folder)
		return res
	}

	if file == "" {
		file = res.Files[0]
	} else if !containsFile(res.Files, file) {
		// Selection went stale, e.g. the file was renamed upstream.
		file = res.Files[0]
	}
	res.File = file
	res.State = StateFileSelected

	res.DiagramPath = folder + "/" + file
	res.ArtifactPath = DeriveArtifactPath(res.DiagramPath)
	res.State = StatePathsResolved

	// The diagram fetch and the artifact existence probe are independent;
	// the CSV fetch itself stays gated on the probe result.
	var (
		diagramXML string
		csvExists  bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := r.src.FetchText(gctx, res.DiagramPath)
		diagramXML = text
		return err
	})
	g.Go(func() error {
		csvExists = r.src.Exists(gctx, res.ArtifactPath)
		return nil
	})
	if err := g.Wait(); err != nil {
		return r.fail(res, err)
	}
	res.DiagramXML = diagramXML
	res.State = StateDiagramLoaded

	annotations, err := bpmn.ExtractAnnotations(diagramXML)
	if err != nil {
		return r.fail(res, err)
	}
	res.Annotations = annotations
	names, err := bpmn.ExtractNamedElements(diagramXML)
	if err != nil {
		return r.fail(res, err)
	}
	res.Names = names

	var external *kpi.Table
	if csvExists {
		if table, warn := r.loadArtifact(ctx, res.ArtifactPath); warn != "" {
			res.Warning = warn
		} else {
			external = &table
		}
	}

	res.View = kpi.Reconcile(external, annotations)
	res.State = StateKpiResolved
	if res.View.Source == kpi.SourceNone {
		res.State = StateKpiAbsent
	}
	r.logger.Printf("pipeline: %s for %s (view=%s, %d annotation rows)",
		res.State, res.DiagramPath, res.View.Source, len(annotations))

	res.State = StateRendered
	return res
}

// loadArtifact fetches and parses the external KPI table. A CSV that exists
// but cannot be loaded is a warning, not a run failure; the annotation
// fallback still applies.
func (r *Runner) loadArtifact(ctx context.Context, path string) (kpi.Table, string) {
	text, err := r.src.FetchText(ctx, path)
	if err != nil {
		r.logger.Printf("pipeline: KPI CSV %s exists but fetch failed: %v", path, err)
		return kpi.Table{}, "found KPI CSV but could not load it: " + err.Error()
	}
	table, err := kpi.ParseCSV(text)
	if err != nil {
		r.logger.Printf("pipeline: KPI CSV %s exists but parse failed: %v", path, err)
		return kpi.Table{}, "found KPI CSV but could not parse it: " + err.Error()
	}
	return table, ""
}

func (r *Runner) fail(res Result, err error) Result {
	res.Err = err
	res.Kind = classify(err)
	r.logger.Printf("pipeline: run halted at %s: %v", res.State, err)
	return res
}

// classify maps boundary errors onto the presentation taxonomy. Nothing
// leaves the pipeline as an unstructured failure.
func classify(err error) ErrorKind {
	var unavailable *source.UnavailableError
	if errors.As(err, &unavailable) {
		return KindSourceUnavailable
	}
	var malformed *bpmn.MalformedError
	if errors.As(err, &malformed) {
		return KindMalformedDiagram
	}
	return KindSourceUnavailable
}

// diagramFiles filters a listing down to diagram filenames, sorted for a
// stable selection order.
func diagramFiles(entries []source.Entry) []string {
	var files []string
	for _, e := range entries {
		if e.Type != source.TypeFile {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name), DiagramExt) {
			files = append(files, e.Name)
		}
	}
	sort.Strings(files)
	return files
}

func containsFile(files []string, name string) bool {
	for _, f := range files {
		if f == name {
			return true
		}
	}
	return false
}
