package openai

import (
	"testing"
	"time"

	"github.com/mzaiser/dictee/pkg/provider/llm"
)

// TestNew_MissingAPIKey ensures constructor rejects an empty API key.
func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New("", "gpt-4o")
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
}

// TestNew_MissingModel ensures constructor rejects an empty model.
func TestNew_MissingModel(t *testing.T) {
	_, err := New("sk-test", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

// TestNew_Options checks that optional settings are accepted without error.
func TestNew_Options(t *testing.T) {
	_, err := New("sk-test", "gpt-4o",
		WithBaseURL("https://custom.example.com"),
		WithOrganization("org-123"),
		WithTimeout(30*time.Second),
	)
	if err != nil {
		t.Fatalf("unexpected error with valid options: %v", err)
	}
}

// TestBuildParams_SystemPrompt checks the system prompt becomes the first message.
func TestBuildParams_SystemPrompt(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You generate dictation sentences.",
		Messages: []llm.Message{
			{Role: "user", Content: "One sentence in French, please."},
		},
	})
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Fatal("expected first message to be a system message")
	}
	if params.Messages[1].OfUser == nil {
		t.Fatal("expected second message to be a user message")
	}
}

// TestBuildParams_RoleMapping checks each role maps to the right union member.
func TestBuildParams_RoleMapping(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "rules"},
			{Role: "assistant", Content: "Le chat dort."},
			{Role: "user", Content: "another"},
		},
	})
	if len(params.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected system message")
	}
	if params.Messages[1].OfAssistant == nil {
		t.Error("expected assistant message")
	}
	if params.Messages[2].OfUser == nil {
		t.Error("expected user message")
	}
}

// TestBuildParams_UnknownRoleFallsBackToUser checks unrecognised roles are sent as user.
func TestBuildParams_UnknownRoleFallsBackToUser(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "narrator", Content: "hello"}},
	})
	if len(params.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(params.Messages))
	}
	if params.Messages[0].OfUser == nil {
		t.Fatal("expected unknown role to map to a user message")
	}
}

// TestBuildParams_Tuning checks temperature and max tokens are only set when given.
func TestBuildParams_Tuning(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params := p.buildParams(llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: "hi"}},
		Temperature: 0.9,
		MaxTokens:   256,
	})
	if got := params.Temperature.Or(-1); got != 0.9 {
		t.Errorf("expected temperature 0.9, got %v", got)
	}
	if got := params.MaxCompletionTokens.Or(-1); got != 256 {
		t.Errorf("expected max completion tokens 256, got %d", got)
	}

	params = p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if params.Temperature.Valid() {
		t.Error("expected temperature to be unset when zero")
	}
	if params.MaxCompletionTokens.Valid() {
		t.Error("expected max completion tokens to be unset when zero")
	}
}
