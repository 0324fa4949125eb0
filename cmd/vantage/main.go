// Vantage is a single-operator admin console for a vector-database
// service. It signs in to the service's REST API, keeps the session in
// a local SQLite store, polls status, collections, and telemetry on a
// configurable cadence, and serves server-rendered dashboard pages.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	vantage serve            Start the console server
//	vantage init [dir]       Write a starter config.yaml
//	vantage version          Print version and build information
//	vantage -o json version  Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vdbops/vantage/internal/activity"
	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/buildinfo"
	"github.com/vdbops/vantage/internal/config"
	"github.com/vdbops/vantage/internal/events"
	"github.com/vdbops/vantage/internal/refresh"
	"github.com/vdbops/vantage/internal/session"
	"github.com/vdbops/vantage/internal/web"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the vantage command. All OS-level
// dependencies are injected as parameters: ctx controls the process
// lifetime, stdout and stderr receive all output, and args is
// os.Args[1:]. Arguments are parsed by hand — the flag package relies
// on package-level globals, which makes it impossible to call run()
// concurrently from tests, and our argument surface is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var commandArg string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		case !strings.HasPrefix(args[i], "-") && commandArg == "":
			commandArg = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := commandArg
		if dir == "" {
			dir = "."
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Vantage - Vector Database Admin Console")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: vantage [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the console server")
	fmt.Fprintln(w, "  init [dir]   Write a starter config.yaml (default: current directory)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/vantage/config.yaml, /etc/vantage/config.yaml")
	return nil
}

// runServe is the primary operating mode: loads config, opens the
// session store, restores any persisted session, starts the refresh
// poller and activity recorder, and serves the console until a
// shutdown signal arrives.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")
	logger.Info("starting Vantage",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", cfgPath, err)
	}

	// Reconfigure the logger now that the desired level and format are
	// known. The initial Info-level text logger only covers the startup
	// banner and config errors.
	{
		level := slog.LevelInfo
		if cfg.LogLevel != "" {
			// Already validated above.
			level, _ = config.ParseLogLevel(cfg.LogLevel)
		}
		logger = newLogger(stdout, level, cfg.LogFormat)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"backend", cfg.Backend.URL,
		"refresh_interval", cfg.Refresh.Interval(),
	)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	// --- Core components ---
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.TLSInsecureSkipVerify, logger)

	store, err := session.NewStore(filepath.Join(cfg.DataDir, "vantage.db"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	sessions := session.NewManager(store, client, logger)
	bus := events.New()
	feed := activity.NewLog(activity.DefaultCapacity)

	// Restore a persisted session so a daemon restart does not force a
	// re-login while the token is still good.
	if sessions.Resume(ctx) {
		logger.Info("session restored", "username", sessions.Username())
	} else {
		logger.Info("no session to restore, login required")
	}

	interval := sessions.RefreshInterval(cfg.Refresh.Interval())
	poller := refresh.NewPoller(refresh.Config{
		Backend:  client,
		Auth:     sessions,
		Bus:      bus,
		Interval: interval,
		Logger:   logger,
	})

	console := web.NewWebServer(web.Config{
		BrandName:       cfg.BrandName,
		Session:         sessions,
		Backend:         client,
		Poller:          poller,
		Activity:        feed,
		Bus:             bus,
		DefaultInterval: cfg.Refresh.Interval(),
		Logger:          logger,
	})

	mux := http.NewServeMux()
	console.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Signal handling and graceful shutdown ---
	// NotifyContext wraps the parent context so that SIGINT/SIGTERM
	// cancellation flows through the same ctx used by all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go feed.Record(ctx, bus)
	go poller.Start(ctx)

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("console listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Vantage stopped")
	return nil
}

// newLogger creates a structured logger that writes to w at the given
// level in either text or JSON format.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// loadConfig locates and parses the YAML configuration file. If
// explicit is non-empty it must exist; otherwise the default search
// paths are tried in order.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
