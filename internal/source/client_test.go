package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/udexvinda/process-flow-dashboard/internal/cache"
	"github.com/udexvinda/process-flow-dashboard/internal/config"
)

func testConfig(host string, private bool) *config.Config {
	return &config.Config{
		Project: config.ProjectConfig{
			Version: 1,
			Repository: config.RepositoryConfig{
				Owner:   "udexvinda",
				Name:    "process-flow-dashboard",
				Branch:  "main",
				Private: private,
				APIHost: host,
				RawHost: host,
			},
			DefaultFolders: []string{"hr", "finance", "claims"},
			TokenEnv:       "TEST_GITHUB_TOKEN",
		},
		RequestTimeout: 2 * time.Second,
		ProbeTimeout:   2 * time.Second,
		CacheTTL:       time.Minute,
	}
}

func TestListEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/repos/udexvinda/process-flow-dashboard/contents/hr" {
			t.Errorf("unexpected path %q", got)
		}
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("ref = %q, want main", got)
		}
		w.Write([]byte(`[{"name":"hr_recruitment.bpmn","path":"hr/hr_recruitment.bpmn","type":"file"},{"name":"archive","path":"hr/archive","type":"dir"}]`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, false), cache.New(time.Minute))
	entries, err := client.ListEntries(context.Background(), "hr")
	if err != nil {
		t.Fatalf("ListEntries returned error: %v", err)
	}
	want := []Entry{
		{Name: "hr_recruitment.bpmn", Path: "hr/hr_recruitment.bpmn", Type: TypeFile},
		{Name: "archive", Path: "hr/archive", Type: TypeDir},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestListEntriesUnavailableOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, false), cache.New(time.Minute))
	_, err := client.ListEntries(context.Background(), "hr")
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %T: %v", err, err)
	}
	if unavailable.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", unavailable.StatusCode)
	}
}

func TestFetchTextCachesWithinWindow(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<definitions/>"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, false), cache.New(time.Minute))
	for i := 0; i < 3; i++ {
		text, err := client.FetchText(context.Background(), "hr/hr_recruitment.bpmn")
		if err != nil {
			t.Fatalf("FetchText returned error: %v", err)
		}
		if text != "<definitions/>" {
			t.Fatalf("unexpected body %q", text)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single upstream fetch, saw %d", hits.Load())
	}
}

func TestExistsProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe used %s, want HEAD", r.Method)
		}
		if strings.HasSuffix(r.URL.Path, "_kpis.csv") {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, false), cache.New(time.Minute))
	if !client.Exists(context.Background(), "hr/hr_recruitment.bpmn") {
		t.Fatalf("expected probe hit for existing file")
	}
	if client.Exists(context.Background(), "hr/hr_recruitment_kpis.csv") {
		t.Fatalf("expected probe miss for 404")
	}
}

func TestAuthHeaderOnlyInPrivateMode(t *testing.T) {
	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	t.Setenv("TEST_GITHUB_TOKEN", "tok-123")

	public := NewClient(testConfig(srv.URL, false), cache.New(time.Minute))
	public.ListEntries(context.Background(), "")
	if lastAuth != "" {
		t.Fatalf("public mode sent auth header %q", lastAuth)
	}

	private := NewClient(testConfig(srv.URL, true), cache.New(time.Minute))
	private.ListEntries(context.Background(), "")
	if lastAuth != "Bearer tok-123" {
		t.Fatalf("private mode auth = %q, want bearer token", lastAuth)
	}
}

func TestFoldersFallsBackToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, false), cache.New(time.Minute))
	folders := client.Folders(context.Background())
	if diff := cmp.Diff([]string{"hr", "finance", "claims"}, folders); diff != "" {
		t.Fatalf("fallback folders mismatch (-want +got):\n%s", diff)
	}
}
