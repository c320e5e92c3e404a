package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviderNames lists known LLM provider names. Used by [Validate]
// to warn about unrecognised names.
var ValidLLMProviderNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Spoken answer check
	if cfg.Spoken.Threshold < 0 || cfg.Spoken.Threshold > 1 {
		errs = append(errs, fmt.Errorf("spoken.threshold %.2f is out of range [0, 1]", cfg.Spoken.Threshold))
	}

	// Sentence source
	if cfg.Sentences.Source != "" && !cfg.Sentences.Source.IsValid() {
		errs = append(errs, fmt.Errorf("sentences.source %q is invalid; valid values: static, llm", cfg.Sentences.Source))
	}
	switch cfg.Sentences.Source {
	case SourceStatic:
		if len(cfg.Sentences.Packs) == 0 {
			errs = append(errs, errors.New("sentences.packs is required when sentences.source is static"))
		}
	case SourceLLM:
		if cfg.Sentences.LLM.Name == "" {
			errs = append(errs, errors.New("sentences.llm.name is required when sentences.source is llm"))
		}
		validateLLMProviderName(cfg.Sentences.LLM.Name)
		for i, fb := range cfg.Sentences.LLMFallbacks {
			if fb.Name == "" {
				errs = append(errs, fmt.Errorf("sentences.llm_fallbacks[%d] has no name", i))
			}
			validateLLMProviderName(fb.Name)
		}
	case "":
		slog.Warn("no sentence source configured; GET /v1/next and live sessions will be unavailable")
	}

	// Progress tracker
	if cfg.Progress.Endpoint != "" && !strings.HasPrefix(cfg.Progress.Endpoint, "http://") && !strings.HasPrefix(cfg.Progress.Endpoint, "https://") {
		errs = append(errs, fmt.Errorf("progress.endpoint %q must be an http(s) URL", cfg.Progress.Endpoint))
	}
	if cfg.Progress.Timeout < 0 {
		errs = append(errs, fmt.Errorf("progress.timeout %v must not be negative", cfg.Progress.Timeout))
	}

	// MCP
	if cfg.MCP.Enabled && cfg.MCP.Path != "" && !strings.HasPrefix(cfg.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path %q must start with /", cfg.MCP.Path))
	}

	return errors.Join(errs...)
}

// validateLLMProviderName logs a warning if name is non-empty and not found
// in [ValidLLMProviderNames].
func validateLLMProviderName(name string) {
	if name == "" {
		return
	}
	if slices.Contains(ValidLLMProviderNames, name) {
		return
	}
	slog.Warn("unknown LLM provider name, may be a typo or third-party provider",
		"name", name,
		"known", ValidLLMProviderNames,
	)
}
