// internal/source/client.go
//
// Remote source accessor for the GitHub Contents API and raw file host.
// Everything the dashboard displays comes through here: directory listings,
// diagram XML, and KPI CSVs. Raw fetches are cached for a bounded window so
// auto-refresh does not hammer the host.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/udexvinda/process-flow-dashboard/internal/cache"
	"github.com/udexvinda/process-flow-dashboard/internal/config"
)

// EntryType discriminates listing entries.
type EntryType string

const (
	TypeFile EntryType = "file"
	TypeDir  EntryType = "dir"
)

// Entry is one item from a repository contents listing.
type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        EntryType `json:"type"`
	DownloadURL string    `json:"download_url"`
}

// Logger is the minimal logging contract the client needs.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Client reads directory listings and raw file contents from a GitHub
// repository, with optional bearer-token authentication for private repos.
type Client struct {
	repo           config.RepositoryConfig
	token          string
	defaultFolders []string
	httpClient     *http.Client
	probeClient    *http.Client
	cache          *cache.Cache
	logger         Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for listings and fetches.
// Tests use this to point the client at an httptest server transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
			c.probeClient = hc
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a source accessor from the runtime configuration. The
// fetch cache is injected so the controller can invalidate it on manual
// refresh.
func NewClient(cfg *config.Config, fetchCache *cache.Cache, opts ...Option) *Client {
	if fetchCache == nil {
		fetchCache = cache.New(cache.DefaultTTL)
	}
	token := ""
	if cfg.Repository().Private {
		token = cfg.Token()
	}
	c := &Client{
		repo:           cfg.Repository(),
		token:          token,
		defaultFolders: cfg.DefaultFolders(),
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout},
		probeClient:    &http.Client{Timeout: cfg.ProbeTimeout},
		cache:          fetchCache,
		logger:         nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentsURL resolves the Contents API URL for a repository path.
func (c *Client) ContentsURL(path string) string {
	path = strings.Trim(path, "/")
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.repo.APIHost, c.repo.Owner, c.repo.Name, path, url.QueryEscape(c.repo.Branch))
}

// RawURL resolves the raw-host URL for a repository path.
func (c *Client) RawURL(path string) string {
	path = strings.Trim(path, "/")
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		c.repo.RawHost, c.repo.Owner, c.repo.Name, c.repo.Branch, path)
}

// ListEntries lists files and folders at a repository path.
// Fails with *UnavailableError on any transport error or non-2xx status.
func (c *Client) ListEntries(ctx context.Context, path string) ([]Entry, error) {
	target := c.ContentsURL(path)
	body, err := c.get(ctx, c.httpClient, target)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &UnavailableError{URL: target, Err: fmt.Errorf("decode listing: %w", err)}
	}
	return entries, nil
}

// Folders returns directory names at the repository root, falling back to
// the configured static folder list when the listing cannot be fetched.
func (c *Client) Folders(ctx context.Context) []string {
	entries, err := c.ListEntries(ctx, "")
	if err != nil {
		c.logger.Printf("source: root listing failed, using default folders: %v", err)
		return append([]string(nil), c.defaultFolders...)
	}
	var folders []string
	for _, e := range entries {
		if e.Type == TypeDir {
			folders = append(folders, e.Name)
		}
	}
	return folders
}

// FetchText fetches a raw file as text. Results are cached by resolved URL
// for the cache's TTL, so repeated calls within the window skip the network.
func (c *Client) FetchText(ctx context.Context, path string) (string, error) {
	target := c.RawURL(path)
	if text, ok := c.cache.Get(target); ok {
		return text, nil
	}
	body, err := c.get(ctx, c.httpClient, target)
	if err != nil {
		return "", err
	}
	text := string(body)
	c.cache.Put(target, text)
	return text, nil
}

// Exists performs a lightweight HEAD probe against the raw host. It returns
// false on any non-success status or transport failure, never an error.
func (c *Client) Exists(ctx context.Context, path string) bool {
	target := c.RawURL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)
	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *Client) get(ctx context.Context, hc *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &UnavailableError{URL: target, Err: err}
	}
	c.setHeaders(req)
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &UnavailableError{URL: target, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &UnavailableError{URL: target, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{URL: target, Err: err}
	}
	c.logger.Printf("source: GET %s (%d bytes, %s)", target, len(body), time.Since(start).Round(time.Millisecond))
	return body, nil
}

// setHeaders attaches the Accept header plus, for private repositories with
// a resolved token, the bearer credential. Public mode never sends auth,
// even when a token is present in the environment.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
