package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestBuildPromptRequiresNames(t *testing.T) {
	if _, err := BuildPrompt(nil); !errors.Is(err, ErrNoNamedElements) {
		t.Fatalf("expected ErrNoNamedElements, got %v", err)
	}
}

func TestBuildPromptListsTasks(t *testing.T) {
	prompt, err := BuildPrompt([]string{"Screen Candidates", "Interview"})
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	for _, want := range []string{"kpi_key", "Screen Candidates", "Interview", "CSV"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestParseResponse(t *testing.T) {
	table, err := ParseResponse("kpi_key,current_value,target_value,last_updated\ntime_to_hire,40,30,2025-01-01\noffer_rate,0.2,0.3,2025-01-01\n")
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected one row per data line, got %d", len(table.Rows))
	}
}

func TestParseResponseRejectsMissingKeyColumn(t *testing.T) {
	_, err := ParseResponse("metric,value\ncycle_time,9\n")
	var unparseable *UnparseableError
	if !errors.As(err, &unparseable) {
		t.Fatalf("expected UnparseableError, got %T: %v", err, err)
	}
}

func TestParseResponseRejectsProse(t *testing.T) {
	_, err := ParseResponse("Here are some KPIs you could use:\nfirst, measure \"time to hire\" because...\n")
	var unparseable *UnparseableError
	if !errors.As(err, &unparseable) {
		t.Fatalf("expected UnparseableError for prose, got %T: %v", err, err)
	}
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	table, err := ParseResponse("```csv\nkpi_key,target_value\ntime_to_hire,30\n```")
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
}

type fakeCompleter struct {
	content string
	err     error
}

func (f fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestProposeWrapsServiceFailure(t *testing.T) {
	svc := NewService("key", "model", WithCompleter(fakeCompleter{err: errors.New("quota exceeded")}))
	_, err := svc.Propose(context.Background(), []string{"Interview"})
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
}

func TestProposeParsesReply(t *testing.T) {
	svc := NewService("key", "model", WithCompleter(fakeCompleter{content: "kpi_key,target_value\ntime_to_hire,30\n"}))
	table, err := svc.Propose(context.Background(), []string{"Interview"})
	if err != nil {
		t.Fatalf("Propose returned error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
}

func TestProposeNeverCallsServiceWithoutNames(t *testing.T) {
	svc := NewService("key", "model", WithCompleter(fakeCompleter{err: errors.New("should not be reached")}))
	_, err := svc.Propose(context.Background(), nil)
	if !errors.Is(err, ErrNoNamedElements) {
		t.Fatalf("expected ErrNoNamedElements before any call, got %v", err)
	}
}
