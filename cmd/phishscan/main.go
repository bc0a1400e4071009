package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Bahjat/phishguard/backend/internal/pipeline"
	"github.com/Bahjat/phishguard/backend/internal/platform/config"
	"github.com/Bahjat/phishguard/backend/internal/platform/logger"
)

var errNoTargets = errors.New("no URLs given; pass them as arguments or with -f")

type options struct {
	file        string
	concurrency int
	timeout     time.Duration
	modelPath   string
	modelURL    string
	jsonOut     bool
	quiet       bool
	logLevel    string
}

func main() {
	opts := parseFlags()
	if !opts.quiet && !opts.jsonOut {
		printBanner(os.Stdout)
	}
	if err := run(opts, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.file, "f", "", "File with one URL per line")
	flag.IntVar(&opts.concurrency, "t", 0, "Concurrent analyses (default BATCH_CONCURRENCY)")
	flag.DurationVar(&opts.timeout, "timeout", 0, "Fetch timeout per URL (default SCRAPING_TIMEOUT)")
	flag.StringVar(&opts.modelPath, "model", "", "Linear model JSON file (overrides MODEL_PATH)")
	flag.StringVar(&opts.modelURL, "model-url", "", "Model server URL (overrides MODEL_URL)")
	flag.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	flag.BoolVar(&opts.quiet, "q", false, "Hide the banner")
	flag.StringVar(&opts.logLevel, "log", "", "Log level on stderr (default LOG_LEVEL)")
	flag.Parse()
	return opts
}

func run(opts options, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(&cfg, opts)

	targets, err := collectTargets(opts.file, args)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	engine, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes := pipeline.NewBatch(engine, cfg.BatchConcurrency).Run(ctx, targets)

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toBatchItems(outcomes))
	}
	for _, o := range outcomes {
		printOutcome(os.Stdout, o)
	}
	printSummary(os.Stdout, outcomes)
	return nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.concurrency > 0 {
		cfg.BatchConcurrency = opts.concurrency
	}
	if opts.timeout > 0 {
		cfg.ScrapingTimeout = opts.timeout
	}
	if opts.modelPath != "" {
		cfg.ModelPath = opts.modelPath
		cfg.ModelURL = ""
	}
	if opts.modelURL != "" {
		cfg.ModelURL = opts.modelURL
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
}

// collectTargets merges URLs from the command line and from file, skipping
// blank lines and # comments.
func collectTargets(file string, args []string) ([]string, error) {
	targets := append([]string(nil), args...)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()

		fromFile, err := readTargets(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		targets = append(targets, fromFile...)
	}
	if len(targets) == 0 {
		return nil, errNoTargets
	}
	return targets, nil
}

func readTargets(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
