package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/iedon/quickhtml/config"
	"github.com/iedon/quickhtml/site"
)

var CLI struct {
	Src      string           `arg:"" optional:"" default:"." type:"path" help:"Source folder holding the layout, or a project folder with a src sub-folder"`
	Dist     string           `arg:"" optional:"" type:"path" help:"Output folder (default: dist next to the source folder)"`
	Config   string           `short:"c" type:"path" help:"Site configuration file (default: site.yaml, site.yml or site.json in the source folder)"`
	LogLevel string           `name:"log-level" help:"Log level: debug, info, warn or error"`
	Minify   bool             `help:"Minify generated HTML and XML"`
	Workers  int              `short:"w" help:"Number of files processed in parallel"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("quickhtml"),
		kong.Description("Builds a static HTML site from markdown pages and a shared layout."),
		kong.Vars{"version": SERVER_SIGNATURE},
	)

	logger := newLogger(CLI.LogLevel)

	cfg, src, err := loadConfig(CLI.Src, CLI.Config)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if CLI.LogLevel == "" {
		logger = newLogger(cfg.LogLevel)
	}
	if CLI.Minify {
		cfg.Minify = true
	}
	if CLI.Workers > 0 {
		cfg.Workers = CLI.Workers
	}

	dist := CLI.Dist
	if dist == "" {
		dist = config.DefaultOutput(src)
	}
	dist, err = site.ResolveOutput(dist)
	if err != nil {
		logger.Error("output", "error", err)
		os.Exit(1)
	}
	logger.Info("starting", "version", SERVER_VERSION, "src", src, "dist", dist, "language", cfg.Language, "workers", cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := site.NewService(cfg, src, dist).Build(ctx)
	if err != nil {
		logger.Error("build", "error", err)
		stop()
		os.Exit(1)
	}
	logReport(logger, report)
}

// loadConfig resolves the source folder and reads the site configuration:
// the explicit file if given, else one discovered in the source folder.
func loadConfig(dir, path string) (*config.Config, string, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	src, err := config.ResolveSource(dir, cfg.Layout)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		if found, ok := config.Discover(src); ok {
			loaded, err := config.Load(found)
			if err != nil {
				return nil, "", err
			}
			cfg = loaded
		}
	}
	return cfg, src, nil
}

func logReport(logger *slog.Logger, report *site.Report) {
	for _, e := range report.Entries {
		attrs := []any{"path", e.Path}
		if e.Output != "" && e.Output != e.Path {
			attrs = append(attrs, "output", e.Output)
		}
		if e.Detail != "" {
			attrs = append(attrs, "detail", e.Detail)
		}
		if e.Status == site.Problem {
			logger.Warn(e.Status.String(), attrs...)
			continue
		}
		logger.Info(e.Status.String(), attrs...)
	}

	logger.Info("build completed",
		"output", report.Output,
		"written", report.Count(site.Written),
		"copied", report.Count(site.Copied),
		"skipped", report.Count(site.Skipped),
		"problems", report.Count(site.Problem))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
