package config_test

import (
	"strings"
	"testing"

	"github.com/mzaiser/dictee/internal/config"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_StaticRequiresPacks(t *testing.T) {
	t.Parallel()
	yaml := `
sentences:
  source: static
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for static source without packs, got nil")
	}
	if !strings.Contains(err.Error(), "packs") {
		t.Errorf("error should mention packs, got: %v", err)
	}
}

func TestValidate_LLMSourceRequiresProviderName(t *testing.T) {
	t.Parallel()
	yaml := `
sentences:
  source: llm
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for llm source without provider name, got nil")
	}
	if !strings.Contains(err.Error(), "sentences.llm.name") {
		t.Errorf("error should mention sentences.llm.name, got: %v", err)
	}
}

func TestValidate_InvalidSourceKind(t *testing.T) {
	t.Parallel()
	yaml := `
sentences:
  source: database
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown source kind, got nil")
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
spoken:
  enabled: true
  threshold: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for threshold 1.5, got nil")
	}
	if !strings.Contains(err.Error(), "threshold") {
		t.Errorf("error should mention threshold, got: %v", err)
	}
}

func TestValidate_ProgressEndpointMustBeHTTP(t *testing.T) {
	t.Parallel()
	yaml := `
progress:
  endpoint: "ftp://tracker.example.com"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for non-http endpoint, got nil")
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: "/etc/dictee/cert.pem"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key_file, got nil")
	}
}

func TestValidate_CompleteConfigIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: info
comparison:
  strict_case: false
  strict_punctuation: false
spoken:
  enabled: true
  threshold: 0.85
sentences:
  source: static
  packs:
    - "/etc/dictee/packs/fr-a1.yaml"
  wrap: true
progress:
  endpoint: "https://tracker.example.com/v1/attempts"
  token: "secret"
  timeout: 5s
mcp:
  enabled: true
  path: /mcp
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := cfg.Spoken.Threshold, 0.85; got != want {
		t.Errorf("Spoken.Threshold = %v, want %v", got, want)
	}
	if !cfg.Spoken.PhoneticEnabled() {
		t.Error("PhoneticEnabled() = false, want true by default")
	}
	if got, want := cfg.Sentences.Source, config.SourceStatic; got != want {
		t.Errorf("Sentences.Source = %q, want %q", got, want)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
spoken:
  threshold: -1
sentences:
  source: static
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	for _, want := range []string{"log_level", "threshold", "packs"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
databse:
  dsn: "oops"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level key, got nil")
	}
}

func TestValidLLMProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidLLMProviderNames) == 0 {
		t.Fatal("ValidLLMProviderNames should not be empty")
	}
	found := false
	for _, n := range config.ValidLLMProviderNames {
		if n == "openai" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidLLMProviderNames should contain \"openai\"")
	}
}
