// Command dictee is the main entry point for the Dictee dictation server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/mzaiser/dictee/internal/answercheck"
	"github.com/mzaiser/dictee/internal/config"
	"github.com/mzaiser/dictee/internal/health"
	"github.com/mzaiser/dictee/internal/mcpserver"
	"github.com/mzaiser/dictee/internal/observe"
	"github.com/mzaiser/dictee/internal/practice"
	"github.com/mzaiser/dictee/internal/progress/httprecorder"
	"github.com/mzaiser/dictee/internal/resilience"
	"github.com/mzaiser/dictee/internal/server"
	"github.com/mzaiser/dictee/pkg/provider/llm"
	"github.com/mzaiser/dictee/pkg/provider/llm/anyllm"
	"github.com/mzaiser/dictee/pkg/provider/sentences"
	"github.com/mzaiser/dictee/pkg/provider/sentences/llmgen"
	"github.com/mzaiser/dictee/pkg/provider/sentences/static"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "dictee: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "dictee: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so config hot-reload can adjust it
	// without swapping the logger.
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("dictee starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	// Must run before any instrument is created so metrics bind to the real
	// meter provider.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "dictee"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	// staticSrc tracks the current static source so the readiness probe and
	// pack hot-reload see the same pool.
	var staticSrc atomic.Pointer[static.Source]

	var src sentences.Source
	if kind := cfg.Sentences.Source; kind != "" {
		src, err = reg.CreateSource(cfg.Sentences)
		if err != nil {
			slog.Error("failed to build sentence source", "kind", kind, "err", err)
			return 1
		}
		if s, ok := src.(*static.Source); ok {
			staticSrc.Store(s)
			slog.Info("sentence source ready", "kind", kind, "sentences", s.Len())
		} else {
			slog.Info("sentence source ready", "kind", kind, "model", cfg.Sentences.LLM.Model)
		}
	}

	// ── Practice service ──────────────────────────────────────────────────────
	svcOpts := []practice.Option{
		practice.WithDefaults(cfg.Comparison.Options()),
		practice.WithLogger(logger),
	}
	if src != nil {
		svcOpts = append(svcOpts, practice.WithSource(string(cfg.Sentences.Source), src))
	}
	if cfg.Spoken.Enabled {
		svcOpts = append(svcOpts, practice.WithChecker(buildChecker(cfg.Spoken)))
	}
	if cfg.Progress.Endpoint != "" {
		var recOpts []httprecorder.Option
		if cfg.Progress.Token != "" {
			recOpts = append(recOpts, httprecorder.WithToken(cfg.Progress.Token))
		}
		if cfg.Progress.Timeout > 0 {
			recOpts = append(recOpts, httprecorder.WithTimeout(cfg.Progress.Timeout))
		}
		rec, err := httprecorder.New(cfg.Progress.Endpoint, recOpts...)
		if err != nil {
			slog.Error("failed to build progress recorder", "err", err)
			return 1
		}
		svcOpts = append(svcOpts, practice.WithRecorder(rec))
	}
	svc := practice.New(svcOpts...)

	// ── HTTP server ───────────────────────────────────────────────────────────
	srvOpts := []server.Option{server.WithLogger(logger)}
	if cfg.Server.TLS != nil {
		srvOpts = append(srvOpts, server.WithTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile))
	}
	if staticSrc.Load() != nil {
		srvOpts = append(srvOpts, server.WithHealthCheckers(health.SentencePool("sentences", func() int {
			if s := staticSrc.Load(); s != nil {
				return s.Len()
			}
			return 0
		})))
	}
	if cfg.Progress.Endpoint != "" {
		srvOpts = append(srvOpts, server.WithHealthCheckers(health.Endpoint("progress", cfg.Progress.Endpoint, nil)))
	}
	if cfg.MCP.Enabled {
		srvOpts = append(srvOpts, server.WithMCP(cfg.MCP.Path, mcpserver.New(svc, observe.DefaultMetrics()).Handler()))
	}
	srv := server.New(cfg.Server.ListenAddr, svc, srvOpts...)

	// ── Config hot-reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.ComparisonChanged {
			svc.SetDefaults(d.NewComparison.Options())
			slog.Info("comparison defaults changed",
				"strict_case", d.NewComparison.StrictCase,
				"strict_punctuation", d.NewComparison.StrictPunctuation)
		}
		if d.SpokenChanged {
			if d.NewSpoken.Enabled {
				svc.SetChecker(buildChecker(d.NewSpoken))
			} else {
				svc.SetChecker(nil)
			}
			slog.Info("spoken-answer settings changed",
				"enabled", d.NewSpoken.Enabled,
				"threshold", d.NewSpoken.Threshold)
		}
		if d.PacksChanged && new.Sentences.Source == config.SourceStatic {
			fresh, err := reg.CreateSource(new.Sentences)
			if err != nil {
				slog.Error("pack reload failed, keeping previous packs", "err", err)
				return
			}
			if s, ok := fresh.(*static.Source); ok {
				staticSrc.Store(s)
				slog.Info("sentence packs reloaded", "sentences", s.Len())
			}
			svc.SetSource(string(config.SourceStatic), fresh)
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Serve ─────────────────────────────────────────────────────────────────
	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in LLM and sentence-source
// factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			p, err := anyllm.New(providerName, entry.Model, opts...)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		p, err := anyllm.New("ollama", entry.Model, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	// ── Sentence sources ──────────────────────────────────────────────────────

	reg.RegisterSource(config.SourceStatic, func(cfg config.SentencesConfig) (sentences.Source, error) {
		var opts []static.Option
		if cfg.Wrap {
			opts = append(opts, static.WithWrap())
		}
		return static.New(cfg.Packs, opts...)
	})

	reg.RegisterSource(config.SourceLLM, func(cfg config.SentencesConfig) (sentences.Source, error) {
		p, err := reg.CreateLLM(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", cfg.LLM.Name, err)
		}

		// Additional models become failover backends behind per-model
		// circuit breakers.
		if len(cfg.LLMFallbacks) > 0 {
			group := resilience.NewLLMFallback(p, cfg.LLM.Name, resilience.FallbackConfig{})
			for _, entry := range cfg.LLMFallbacks {
				fb, err := reg.CreateLLM(entry)
				if err != nil {
					return nil, fmt.Errorf("create fallback llm provider %q: %w", entry.Name, err)
				}
				group.AddFallback(entry.Name, fb)
			}
			p = group
		}

		var opts []llmgen.Option
		if temp, ok := optFloat(cfg.LLM.Options, "temperature"); ok {
			opts = append(opts, llmgen.WithTemperature(float32(temp)))
		}
		gen, err := llmgen.New(p, opts...)
		if err != nil {
			return nil, err
		}

		// Packs configured alongside the llm source serve as a degraded
		// mode when generation keeps failing.
		if len(cfg.Packs) > 0 {
			packs, err := static.New(cfg.Packs, static.WithWrap())
			if err != nil {
				return nil, err
			}
			sf := resilience.NewSourceFallback(gen, "llm", resilience.FallbackConfig{})
			sf.AddFallback("static", packs)
			return sf, nil
		}
		return gen, nil
	})
}

// buildChecker constructs the spoken-answer checker from its config block.
func buildChecker(cfg config.SpokenConfig) *answercheck.Checker {
	opts := []answercheck.Option{
		answercheck.WithPhoneticFallback(cfg.PhoneticEnabled()),
	}
	if cfg.Threshold > 0 {
		opts = append(opts, answercheck.WithThreshold(cfg.Threshold))
	}
	return answercheck.New(opts...)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Dictee — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Listen addr", cfg.Server.ListenAddr)
	printField("TLS", enabledString(cfg.Server.TLS != nil))
	printSource(cfg.Sentences)
	printField("Spoken check", enabledString(cfg.Spoken.Enabled))
	if cfg.Progress.Endpoint != "" {
		printField("Progress", cfg.Progress.Endpoint)
	} else {
		printField("Progress", "(disabled)")
	}
	if cfg.MCP.Enabled {
		path := cfg.MCP.Path
		if path == "" {
			path = "/mcp"
		}
		printField("MCP tools", path)
	} else {
		printField("MCP tools", "(disabled)")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printSource(cfg config.SentencesConfig) {
	switch cfg.Source {
	case config.SourceStatic:
		printField("Sentences", fmt.Sprintf("static / %d packs", len(cfg.Packs)))
	case config.SourceLLM:
		printField("Sentences", "llm / "+cfg.LLM.Name)
	default:
		printField("Sentences", "(disabled)")
	}
}

func printField(name, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", name, value)
}

func enabledString(on bool) string {
	if on {
		return "enabled"
	}
	return "(disabled)"
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optFloat extracts a numeric value from a provider Options map[string]any.
// YAML decodes numbers as int or float64 depending on their spelling.
func optFloat(opts map[string]any, key string) (float64, bool) {
	v, ok := opts[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
