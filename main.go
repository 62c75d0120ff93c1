package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bootprof/internal/config"
	"bootprof/internal/model"
	"bootprof/internal/report"
	"bootprof/internal/runner"
	"bootprof/internal/tui"
	"bootprof/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "abulka",
		Repository: "bootprof",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/abulka/bootprof/releases")
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bootprof [options] [dir]\n\n")
		fmt.Fprintf(os.Stderr, "bootprof measures the cold-start latency of a modular app.\n")
		fmt.Fprintf(os.Stderr, "It boots the app once in profiling mode, times every module import\n")
		fmt.Fprintf(os.Stderr, "and plugin lifecycle phase, and attributes the cost as a dependency tree.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bootprof                 # Profile the app in . and open the TUI\n")
		fmt.Fprintf(os.Stderr, "  bootprof --report ~/app  # Print a diagnostic report to stdout\n")
		fmt.Fprintf(os.Stderr, "  bootprof -r -o r.txt     # Save report to file\n")
		fmt.Fprintf(os.Stderr, "  bootprof --json --deps   # JSON output including third-party modules\n")
	}

	jsonFlag := pflag.BoolP("json", "j", false, "Output the raw profile as JSON")
	reportFlag := pflag.BoolP("report", "r", false, "Generate a detailed diagnostic report (CLI mode)")
	outputFlag := pflag.StringP("output", "o", "", "Save report to the specified file (combined with --report)")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include every module in the report and enable debug logging")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode on http://localhost:8080")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")

	entryFlag := pflag.StringP("entry", "e", "", "Entry executable relative to dir (default bin/server)")
	markerFlag := pflag.String("marker", "", "Stdout substring marking readiness (default \""+runner.DefaultReadyMarker+"\")")
	timeoutFlag := pflag.Int("timeout", 0, "Overall timeout in seconds (default 30)")
	topFlag := pflag.IntP("top", "n", 0, "How many slowest modules to show (default 15)")
	minMsFlag := pflag.Float64("min-ms", 0, "Hide modules below this effective time in ms")
	depsFlag := pflag.BoolP("deps", "d", false, "Include third-party and framework modules")
	groupFlag := pflag.BoolP("group", "g", false, "Group modules by package in the report")
	quietFlag := pflag.BoolP("quiet", "q", false, "Suppress the app's own boot output")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("bootprof version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	level := slog.LevelWarn
	if *verboseFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dir := "."
	if args := pflag.Args(); len(args) > 0 {
		dir = args[0]
	}

	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", config.FileName, err)
		os.Exit(1)
	}

	profileOpts := runner.Options{
		Entry:            firstOf(*entryFlag, cfg.Entry),
		ReadyMarker:      firstOf(*markerFlag, cfg.ReadyMarker),
		Quiet:            *quietFlag,
		Roles:            report.RolesWith(cfg.Roles),
		FrameworkMarkers: cfg.FrameworkMarkers,
	}
	if *timeoutFlag > 0 {
		profileOpts.Timeout = time.Duration(*timeoutFlag) * time.Second
	} else if cfg.TimeoutSeconds > 0 {
		profileOpts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	includeDeps := *depsFlag
	if !pflag.Lookup("deps").Changed && cfg.IncludeDeps != nil {
		includeDeps = *cfg.IncludeDeps
	}
	groupPackages := *groupFlag
	if !pflag.Lookup("group").Changed && cfg.GroupPackages != nil {
		groupPackages = *cfg.GroupPackages
	}
	minMs := *minMsFlag
	if !pflag.Lookup("min-ms").Changed && cfg.MinTimeMs > 0 {
		minMs = cfg.MinTimeMs
	}
	top := *topFlag
	if top == 0 {
		top = cfg.Top
	}

	reportOpts := report.Options{
		Top:           top,
		GroupPackages: groupPackages,
		Verbose:       *verboseFlag,
		Filter: report.FilterOptions{
			MinTime:          minMs,
			IncludeDeps:      includeDeps,
			FrameworkMarkers: cfg.FrameworkMarkers,
		},
	}

	if *webFlag {
		web.StartServer(dir, profileOpts, reportOpts)
		return
	}

	if *reportFlag {
		runReportMode(dir, profileOpts, reportOpts, *outputFlag)
		return
	}

	if *jsonFlag {
		runJsonMode(dir, profileOpts)
		return
	}

	// Default: TUI
	runTuiMode(dir, profileOpts, reportOpts.Filter)
}

func runReportMode(dir string, profileOpts runner.Options, reportOpts report.Options, outputFile string) {
	res, err := runner.Profile(dir, profileOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error profiling boot: %v\n", err)
		os.Exit(1)
	}

	text := report.Generate(res, reportOpts)

	if outputFile != "" {
		err := os.WriteFile(outputFile, []byte(text), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report to %s: %v\n", outputFile, err)
			os.Exit(1)
		}
		fmt.Printf("Report saved to %s\n", outputFile)
	} else {
		fmt.Println(text)
	}
}

func runJsonMode(dir string, profileOpts runner.Options) {
	profileOpts.Quiet = true
	res, err := runner.Profile(dir, profileOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error profiling boot: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(res)
}

func runTuiMode(dir string, profileOpts runner.Options, filterOpts report.FilterOptions) {
	profileOpts.Quiet = true
	m := tui.InitialModel(dir, profileOpts, filterOpts)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
