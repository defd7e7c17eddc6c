// aivid analyzes video files for AI-generation provenance.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aivid/internal/analyze"
	"aivid/internal/config"
	"aivid/internal/logging"
	"aivid/internal/report"
	"aivid/internal/watcher"
)

var (
	// Version information (set at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var flags struct {
	configPath string
	format     string
	verbose    bool
	noCache    bool
	exitCode   bool
	debounce   time.Duration
}

func main() {
	args := parseArgs(os.Args[1:])

	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "analyze":
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: aivid analyze <file> [file...]")
			os.Exit(2)
		}
		cmdAnalyze(rest)
	case "watch":
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: aivid watch <dir> [dir...]")
			os.Exit(2)
		}
		cmdWatch(rest)
	case "extractors":
		cmdExtractors()
	case "rules":
		cmdRules()
	case "version":
		fmt.Printf("aivid %s (commit: %s, built: %s)\n", version, commit, buildTime)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(2)
	}
}

// parseArgs handles global flags in any position so both
// "aivid -format json analyze f.mp4" and "aivid analyze -format json
// f.mp4" work.
func parseArgs(args []string) []string {
	flags.format = "text"
	flags.exitCode = true
	flags.debounce = 2 * time.Second

	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-config", "--config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -config requires a path")
				os.Exit(2)
			}
			flags.configPath = args[i]
		case "-format", "--format":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -format requires a value")
				os.Exit(2)
			}
			flags.format = args[i]
		case "-json", "--json":
			flags.format = "json"
		case "-v", "-verbose", "--verbose":
			flags.verbose = true
		case "-no-cache", "--no-cache":
			flags.noCache = true
		case "-no-exit-code", "--no-exit-code":
			flags.exitCode = false
		case "-debounce", "--debounce":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -debounce requires a duration")
				os.Exit(2)
			}
			d, err := time.ParseDuration(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid debounce duration: %v\n", err)
				os.Exit(2)
			}
			flags.debounce = d
		default:
			rest = append(rest, arg)
		}
	}
	return rest
}

func usage() {
	fmt.Fprintln(os.Stderr, `aivid - AI-generated video provenance analyzer

Usage: aivid [options] <command> [args]

Commands:
  analyze <file>...   Analyze video files and report a verdict
  watch <dir>...      Watch directories and analyze arriving videos
  extractors          List extractors and their availability
  rules               Print the detection rule table as JSON
  version             Print version information
  help                Show this help message

Options:
  -config <path>      Path to config file (default: platform config dir)
  -format <fmt>       Output format: text, json, markdown (default: text)
  -json               Shorthand for -format json
  -v                  Verbose output with per-evidence detail
  -no-cache           Skip the verdict cache for this run
  -no-exit-code       Always exit 0, even when AI generation is detected
  -debounce <dur>     Watch-mode stabilization window (default: 2s)

Exit codes:
  0  no AI generation detected (or -no-exit-code)
  1  AI generation detected in at least one file
  2  usage or configuration error
  3  a file could not be analyzed`)
}

func loadConfig() *config.Config {
	path := flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}
	if flags.noCache {
		cfg.Cache.Enabled = false
	}
	return cfg
}

func newAnalyzer(cfg *config.Config) *analyze.Analyzer {
	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	a, err := analyze.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return a
}

func cmdAnalyze(paths []string) {
	cfg := loadConfig()
	a := newAnalyzer(cfg)
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	generator := report.NewGenerator(report.Format(flags.format)).WithVerbose(flags.verbose)

	detected := false
	failed := false
	for _, res := range a.AnalyzeBatch(ctx, paths) {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", res.Path, res.Err)
			failed = true
			continue
		}
		if err := generator.Generate(res.Report, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if res.Report.Verdict.IsAIGenerated {
			detected = true
		}
	}

	switch {
	case failed:
		os.Exit(3)
	case detected && flags.exitCode:
		os.Exit(1)
	}
}

func cmdWatch(dirs []string) {
	cfg := loadConfig()
	a := newAnalyzer(cfg)
	defer a.Close()

	w, err := watcher.New(dirs, flags.debounce)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	generator := report.NewGenerator(report.Format(flags.format)).WithVerbose(flags.verbose)

	fmt.Fprintf(os.Stderr, "Watching %d path(s), press Ctrl-C to stop\n", len(dirs))
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case err := <-w.Errors():
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		case ev := <-w.Events():
			r, err := a.AnalyzeFile(ctx, ev.Path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", ev.Path, err)
				continue
			}
			if flags.format == "text" {
				fmt.Println(r.Summary())
			} else if err := generator.Generate(r, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

func cmdExtractors() {
	cfg := loadConfig()
	a := newAnalyzer(cfg)
	defer a.Close()

	statuses := a.Registry().All()
	if flags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(statuses); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		return
	}

	fmt.Printf("%-12s %-10s %s\n", "NAME", "PRIORITY", "AVAILABLE")
	for _, st := range statuses {
		avail := "yes"
		if !st.Available {
			avail = "no"
		}
		fmt.Printf("%-12s %-10d %s\n", st.Name, st.Priority, avail)
	}
}

func cmdRules() {
	cfg := loadConfig()
	a := newAnalyzer(cfg)
	defer a.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Engine().Rules()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
