// fsanalyze reads a Freeswitch logfile, extracts structured call events,
// correlates them per channel, and prints raw events, a call summary, or
// both. Results can optionally be persisted into an SQLite database for
// later querying.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/setevik/fsanalyze/internal/classifier"
	"github.com/setevik/fsanalyze/internal/config"
	"github.com/setevik/fsanalyze/internal/correlator"
	"github.com/setevik/fsanalyze/internal/format"
	"github.com/setevik/fsanalyze/internal/report"
	"github.com/setevik/fsanalyze/internal/store"
	"github.com/setevik/fsanalyze/internal/stream"
	"github.com/setevik/fsanalyze/internal/summary"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "query":
			runQuery(os.Args[2:])
			return
		case "version":
			fmt.Println("fsanalyze", version)
			return
		}
	}

	runAnalyze(os.Args[1:])
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("fsanalyze", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	output := fs.String("output", "", "what to print: all, events, summary")
	outFormat := fs.String("format", "", "output format: text, json")
	database := fs.String("database", "", "store results into an SQLite database at this path")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fsanalyze [flags] <logfile>\n\n")
		fmt.Fprintf(fs.Output(), "Pass \"-\" as logfile to read from stdin.\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *showVersion {
		fmt.Println("fsanalyze", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	mode := cfg.Output.Mode
	if *output != "" {
		mode = *output
	}
	formatName := cfg.Output.Format
	if *outFormat != "" {
		formatName = *outFormat
	}
	dbPath := cfg.DB.Path
	if *database != "" {
		dbPath = *database
	}

	formatter, err := newFormatter(formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	switch report.Mode(mode) {
	case report.ModeAll, report.ModeEvents, report.ModeSummary:
	default:
		fmt.Fprintf(os.Stderr, "error: invalid output mode %q\n", mode)
		os.Exit(2)
	}

	in, closeIn, err := openInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening logfile: %v\n", err)
		os.Exit(1)
	}
	defer closeIn()

	rep, err := analyze(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading logfile: %v\n", err)
		os.Exit(1)
	}

	if err := formatter.Format(rep, report.Mode(mode), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error writing output: %v\n", err)
		os.Exit(1)
	}

	if dbPath != "" {
		if err := persist(dbPath, rep.Calls); err != nil {
			fmt.Fprintf(os.Stderr, "error storing results: %v\n", err)
			os.Exit(1)
		}
		slog.Info("results stored", "path", dbPath, "calls", len(rep.Calls))
	}
}

// analyze runs the single-pass pipeline: lines -> events -> calls -> summary.
func analyze(in io.Reader) (*report.Report, error) {
	builder := stream.New(in, classifier.New())
	corr := correlator.New()

	for {
		ev, ok := builder.Next()
		if !ok {
			break
		}
		corr.Process(ev)
	}
	if err := builder.Err(); err != nil {
		return nil, err
	}

	calls := corr.Calls()

	slog.Debug("stream consumed",
		"lines", builder.Lines(),
		"skipped", builder.Skipped(),
		"calls", len(calls),
	)

	return &report.Report{
		Calls:        calls,
		Summary:      summary.Build(calls),
		LinesRead:    builder.Lines(),
		SkippedLines: builder.Skipped(),
		Uncorrelated: corr.Uncorrelated(),
	}, nil
}

func persist(path string, calls []*correlator.Call) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, call := range calls {
		if err := db.SaveCall(call); err != nil {
			return err
		}
	}
	return nil
}

func newFormatter(name string) (report.Formatter, error) {
	switch name {
	case "text", "":
		return report.NewText(), nil
	case "json":
		return report.NewJSON(), nil
	default:
		return nil, fmt.Errorf("invalid output format %q", name)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// --- query subcommand ---

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	database := fs.String("database", "", "path to a database written by a previous run")
	state := fs.String("state", "", "filter by call state (e.g. DESTROYED)")
	cause := fs.String("cause", "", "filter by hangup cause (e.g. NORMAL_CLEARING)")
	last := fs.String("last", "", "time window, e.g. 24h, 7d (empty = all)")
	limit := fs.Int("limit", 50, "max calls to show")
	fs.Parse(args)

	if *database == "" {
		fmt.Fprintln(os.Stderr, "error: --database is required")
		os.Exit(2)
	}

	setupLogging("error") // quiet for CLI output

	db, err := store.Open(*database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	filter := store.QueryFilter{
		State: strings.ToUpper(*state),
		Cause: strings.ToUpper(*cause),
		Limit: *limit,
	}
	if *last != "" {
		d, err := parseDuration(*last)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --last value %q: %v\n", *last, err)
			os.Exit(1)
		}
		filter.Since = time.Now().Add(-d)
	}

	calls, err := db.QueryCalls(filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query error: %v\n", err)
		os.Exit(1)
	}

	if len(calls) == 0 {
		fmt.Println("No calls found.")
		return
	}

	printCalls(calls)
}

func printCalls(calls []*store.CallRecord) {
	for _, c := range calls {
		ts := "unknown time"
		if !c.FirstSeen.IsZero() {
			ts = c.FirstSeen.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %-15s %s\n", ts, c.State, c.ID)

		var detail []string
		if c.DurationKnown {
			detail = append(detail, "duration "+format.Seconds(c.Duration))
		}
		if c.HangupCause != "" {
			detail = append(detail, "cause "+c.HangupCause)
		}
		if c.Direction != "" {
			detail = append(detail, c.Direction)
		}
		if c.Caller != "" {
			detail = append(detail, "from "+c.Caller)
		}
		if c.Anomalies > 0 {
			detail = append(detail, fmt.Sprintf("%d anomalies", c.Anomalies))
		}
		if len(detail) > 0 {
			fmt.Printf("             %s\n", strings.Join(detail, ", "))
		}
		fmt.Println()
	}
	fmt.Printf("Total: %d call(s)\n", len(calls))
}

// parseDuration extends time.ParseDuration with support for "d" (days) suffix.
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		s = strings.TrimSuffix(s, "d")
		var days int
		if _, err := fmt.Sscanf(s, "%d", &days); err != nil {
			return 0, fmt.Errorf("invalid days format: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// --- utilities ---

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
