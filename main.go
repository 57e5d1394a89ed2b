package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/insightdelivered/statement-extractor/internal/api"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/docsource"
	"github.com/insightdelivered/statement-extractor/internal/logger"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/pipeline"
	"github.com/insightdelivered/statement-extractor/internal/writer"
	"github.com/rs/zerolog"
)

const version = "2.0.0"

func main() {
	configFlag := flag.String("config", "", "Path to a YAML config file (optional)")
	formatFlag := flag.String("format", "json", "Output format: json, csv or xlsx")
	outputFlag := flag.String("output", "", "Output file path (defaults to the input name with the format's extension; '-' for stdout)")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	addrFlag := flag.String("addr", "", "Listen address for -serve (overrides config)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Extractor
by Insight Delivered

Extracts dated transactions with running balances from any financial
statement document: digital PDFs, scans (via OCR) or damaged files.

Usage:
  statement-extractor [flags] <input> [input2 ...]
  statement-extractor -serve

Inputs are local paths or gs://bucket/object URIs. A URI ending in '/'
converts every PDF under that prefix.

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # JSON next to the input
  statement-extractor statement.pdf

  # Spreadsheet from a file in Cloud Storage
  statement-extractor -format=xlsx -output=jan.xlsx gs://statements/2024/jan.pdf

  # HTTP API on :8080
  statement-extractor -serve

Environment:
  OCR_API_KEY       enables the OCR stage for scanned documents
  LLM_API_KEY       structuring fallback key (defaults to OCR_API_KEY)
  LLM_PROVIDER      openai (any compatible endpoint) or gemini
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-extractor v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || (!*serveFlag && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("Invalid configuration: %v\n", err)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveFlag {
		log := logger.NewJSON(os.Stdout, cfg.LogLevel)
		if err := serve(ctx, cfg, log); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	log := logger.New(cfg.LogLevel)
	p, err := pipeline.NewFromConfig(ctx, cfg, log)
	if err != nil {
		fatalf("Failed to set up pipeline: %v\n", err)
	}
	w, err := writer.ForFormat(*formatFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	loader := docsource.NewLoader()
	var inputs []string
	for _, arg := range flag.Args() {
		expanded, err := loader.Expand(ctx, arg)
		if err != nil {
			fatalf("%v\n", err)
		}
		inputs = append(inputs, expanded...)
	}
	if *outputFlag != "" && *outputFlag != "-" && len(inputs) > 1 {
		fatalf("-output can only be used with a single input\n")
	}

	for _, input := range inputs {
		if err := processFile(ctx, loader, p, w, input, *outputFlag, strings.ToLower(*formatFlag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", input, err)
			os.Exit(1)
		}
	}
}

func processFile(ctx context.Context, loader *docsource.Loader, p *pipeline.Pipeline, w writer.Writer, input, outputPath, format string) error {
	fmt.Fprintf(os.Stderr, "Processing: %s\n", input)

	doc, err := loader.Load(ctx, input)
	if err != nil {
		return err
	}
	if len(doc.Data) == 0 {
		return fmt.Errorf("input is empty")
	}

	res, err := p.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extraction aborted: %w", err)
	}

	printSummary(res)

	if outputPath == "-" {
		return w.Write(os.Stdout, res)
	}
	outPath := outputPath
	if outPath == "" {
		base := doc.Filename
		if !docsource.IsGCSURI(input) {
			base = input
		}
		outPath = strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
	}
	if err := writer.WriteToFile(w, outPath, res); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  Output: %s\n", outPath)
	return nil
}

func printSummary(res *models.StatementResult) {
	q := res.Quality
	fmt.Fprintf(os.Stderr, "  Text source: %s (%d chars)\n", q.Text.Source, q.Text.Length)
	fmt.Fprintf(os.Stderr, "  Found %d transaction(s)\n", res.Summary.TransactionCount)
	if q.StructuredByModel {
		fmt.Fprintln(os.Stderr, "  Transactions were structured by the language model")
	}
	if q.Synthetic {
		fmt.Fprintln(os.Stderr, "  Warning: No transactions found. The output holds sample rows only.")
	}
	fmt.Fprintf(os.Stderr, "  Bank: %s  Account: %s\n", res.AccountInfo.BankName, res.AccountInfo.AccountNumber)
	fmt.Fprintf(os.Stderr, "  Period: %s to %s\n", res.DateRange.StartDate, res.DateRange.EndDate)
	fmt.Fprintf(os.Stderr, "  Credits: %s  Debits: %s\n", res.Summary.TotalCredits.StringFixed(2), res.Summary.TotalDebits.StringFixed(2))
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	p, err := pipeline.NewFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	app := api.NewApp(api.NewHandler(p, log), cfg.Server.BodyLimit)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("version", version).Msg("listening")
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
