// Package suggest builds KPI-proposal prompts from extracted task names,
// calls a text-generation service, and parses the response back into a
// table. Failures here are isolated from the main diagram/KPI display,
// which has already succeeded independently by the time this runs.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/udexvinda/process-flow-dashboard/internal/kpi"
)

// ErrNoNamedElements is returned when prompt construction is attempted with
// no task names. Callers must not invoke the generation service in that
// case; it is an explicit empty state, not a failure.
var ErrNoNamedElements = errors.New("suggest: diagram has no named elements")

// UnparseableError reports that the service response could not be read as
// tabular data, for example when the model returned prose.
type UnparseableError struct {
	Err error
}

func (e *UnparseableError) Error() string {
	return "suggest: response is not parseable as a KPI table: " + e.Err.Error()
}

func (e *UnparseableError) Unwrap() error {
	return e.Err
}

// ServiceError reports a failure reaching the generation service itself
// (authentication, quota, transport), distinguishable from parse errors.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "suggest: generation service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// BuildPrompt renders the KPI-design prompt for a list of task names.
func BuildPrompt(names []string) (string, error) {
	if len(names) == 0 {
		return "", ErrNoNamedElements
	}
	var sb strings.Builder
	sb.WriteString("You are a BPM KPI designer. Given this process's task names, ")
	sb.WriteString("propose 6-12 KPI rows as CSV with columns:\n")
	sb.WriteString("kpi_key (snake_case), current_value (guess if unknown), ")
	sb.WriteString("target_value (reasonable goal), last_updated (YYYY-MM-DD). ")
	sb.WriteString("Only output CSV rows, no commentary.\n\nTasks:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	return sb.String(), nil
}

// ParseResponse interprets the response body as comma-separated tabular
// text with a header row that must include kpi_key. It validates structure
// only, never the semantic correctness of values.
func ParseResponse(text string) (kpi.Table, error) {
	table, err := kpi.ParseCSV(stripFences(text))
	if err != nil {
		return kpi.Table{}, &UnparseableError{Err: err}
	}
	if table.Lookup(kpi.KeyColumn) < 0 {
		return kpi.Table{}, &UnparseableError{Err: fmt.Errorf("header lacks %s column", kpi.KeyColumn)}
	}
	return table, nil
}

// stripFences removes a surrounding markdown code fence, which models emit
// despite being told not to.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// completer is the slice of the OpenAI client the service uses; tests
// substitute a canned implementation.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service proposes KPI tables for a diagram via a chat-completion call.
type Service struct {
	client completer
	model  string
}

// Option customizes service construction.
type Option func(*Service)

// WithCompleter overrides the completion backend, for tests.
func WithCompleter(c completer) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// NewService builds a suggestion service for the given credential and model.
func NewService(apiKey, model string, opts ...Option) *Service {
	s := &Service{
		client: openai.NewClient(apiKey),
		model:  model,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Propose asks the service for KPI rows covering the named tasks and parses
// the reply. Returns ErrNoNamedElements before any network activity when
// names is empty.
func (s *Service) Propose(ctx context.Context, names []string) (kpi.Table, error) {
	prompt, err := BuildPrompt(names)
	if err != nil {
		return kpi.Table{}, err
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return kpi.Table{}, &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return kpi.Table{}, &ServiceError{Err: errors.New("no response choices returned")}
	}
	return ParseResponse(resp.Choices[0].Message.Content)
}
