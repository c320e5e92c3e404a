// Package config provides the configuration schema, loader, file watcher,
// and provider registry for the Dictee dictation service.
package config

import (
	"time"

	"github.com/mzaiser/dictee/internal/dictation"
)

// LogLevel controls log verbosity for the Dictee server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SourceKind selects the sentence source implementation.
type SourceKind string

const (
	// SourceStatic serves sentences from curated YAML pack files.
	SourceStatic SourceKind = "static"

	// SourceLLM generates sentences on demand with a language model.
	SourceLLM SourceKind = "llm"
)

// IsValid reports whether s is a recognised source kind.
func (s SourceKind) IsValid() bool {
	return s == SourceStatic || s == SourceLLM
}

// Config is the root configuration structure for Dictee.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Comparison ComparisonConfig `yaml:"comparison"`
	Spoken     SpokenConfig     `yaml:"spoken"`
	Sentences  SentencesConfig  `yaml:"sentences"`
	Progress   ProgressConfig   `yaml:"progress"`
	MCP        MCPConfig        `yaml:"mcp"`
}

// ServerConfig holds network and logging settings for the Dictee server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ComparisonConfig holds the default dictation comparison options. Requests
// may override them per call.
type ComparisonConfig struct {
	// StrictCase makes letter case significant.
	StrictCase bool `yaml:"strict_case"`

	// StrictPunctuation makes punctuation significant.
	StrictPunctuation bool `yaml:"strict_punctuation"`
}

// Options converts the config block into comparison options.
func (c ComparisonConfig) Options() dictation.Options {
	return dictation.Options{
		StrictCase:        c.StrictCase,
		StrictPunctuation: c.StrictPunctuation,
	}
}

// SpokenConfig configures the spoken-answer similarity check.
type SpokenConfig struct {
	// Enabled turns the /v1/spoken endpoint and MCP tool on.
	Enabled bool `yaml:"enabled"`

	// Threshold is the minimum similarity in [0, 1] for an answer to count
	// as correct. Zero means the built-in default of 0.80.
	Threshold float64 `yaml:"threshold"`

	// Phonetic disables the phonetic (sounds-alike) fallback when false.
	// Defaults to true when the block is present and the field is omitted.
	Phonetic *bool `yaml:"phonetic"`
}

// PhoneticEnabled resolves the Phonetic pointer with its default.
func (c SpokenConfig) PhoneticEnabled() bool {
	if c.Phonetic == nil {
		return true
	}
	return *c.Phonetic
}

// SentencesConfig selects and configures the sentence source.
type SentencesConfig struct {
	// Source selects the implementation ("static" or "llm"). Empty disables
	// sentence serving; grading endpoints keep working.
	Source SourceKind `yaml:"source"`

	// Packs lists YAML pack file paths for the static source. With the llm
	// source they are optional and serve as a degraded-mode fallback when
	// the model is unavailable.
	Packs []string `yaml:"packs"`

	// Wrap makes the static source start over instead of reporting
	// exhaustion.
	Wrap bool `yaml:"wrap"`

	// LLM configures the model used by the llm source.
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks lists additional models tried in order when the primary
	// LLM fails or its circuit breaker is open.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
}

// ProviderEntry is the configuration block for an LLM provider.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// ProgressConfig configures reporting of graded attempts to an external
// progress tracker. An empty endpoint disables recording.
type ProgressConfig struct {
	// Endpoint is the URL graded attempts are POSTed to.
	Endpoint string `yaml:"endpoint"`

	// Token is a static Bearer token sent with every request.
	Token string `yaml:"token"`

	// Timeout bounds each recording request. Zero means the built-in
	// default of 10 seconds.
	Timeout time.Duration `yaml:"timeout"`
}

// MCPConfig configures the embedded Model Context Protocol server that
// exposes grading as tools.
type MCPConfig struct {
	// Enabled mounts the MCP endpoint on the HTTP server.
	Enabled bool `yaml:"enabled"`

	// Path is the mount path. Empty means "/mcp".
	Path string `yaml:"path"`
}
