package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/app"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/ingest"
	"github.com/joseph-ayodele/loan-intake/internal/pipeline"
	"github.com/joseph-ayodele/loan-intake/internal/provision"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem    = flag.Bool("inmem", false, "use in-memory SQLite database")
		file     = flag.String("file", "", "single document to process")
		dir      = flag.String("dir", "", "directory of documents to process")
		docType  = flag.String("type", string(constants.DocLoanApplication), "document type")
		account  = flag.String("account", "", "account id of the uploading user (empty = anonymous)")
		out      = flag.String("out", "", "write an applications XLSX export to this path")
		fromStr  = flag.String("from", "", "export from date YYYY-MM-DD")
		toStr    = flag.String("to", "", "export to date YYYY-MM-DD")
		envFiles = flag.String("env", ".env", "dotenv file to load if present")
	)
	flag.Parse()

	if (*file == "") == (*dir == "") {
		printError("Error: exactly one of --file or --dir is required\n")
		os.Exit(1)
	}
	category, err := constants.ParseDocumentType(*docType)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	identity := provision.Identity{}
	var owner *uuid.UUID
	if *account != "" {
		if err := common.NewValidator().Field("account", *account, common.UUID).Error(); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		id := uuid.MustParse(*account)
		identity = provision.Identity{Authenticated: true, AccountID: &id}
		owner = &id
	}
	from, err := parseDate(*fromStr)
	if err != nil {
		printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}
	to, err := parseDate(*toStr)
	if err != nil {
		printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}

	if err := godotenv.Load(*envFiles); err != nil && !os.IsNotExist(err) {
		printError("Warning: could not load %s: %v\n", *envFiles, err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()

	db, err := app.OpenDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	publisher, err := app.NewPublisher(cfg.Broker, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	a := app.New(db.Driver, cfg, nil, publisher, logger)

	var registered []ingest.IngestionResult
	if *file != "" {
		r, err := a.Intake.Register(ctx, owner, category, *file)
		if err != nil {
			logger.Error("failed to register document", "path", *file, "error", err)
			os.Exit(1)
		}
		registered = append(registered, r)
	} else {
		results, stats, err := a.Intake.RegisterDirectory(ctx, owner, category, *dir, true)
		if err != nil {
			logger.Error("failed to ingest directory", "error", err)
			os.Exit(1)
		}
		for _, r := range results {
			if r.Err == "" {
				registered = append(registered, r)
			}
		}
		logger.Info("ingestion complete",
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
			"deduplicated", stats.Deduplicated)
	}

	counts := map[constants.OutcomeStatus]int{}
	failures := 0
	for _, r := range registered {
		runCtx, cancel := common.WithTimeout(ctx, cfg.Pipeline.Timeout)
		outcome, err := a.Processor.Process(runCtx, pipeline.Request{DocumentID: r.DocumentID, Identity: identity})
		cancel()
		if err != nil {
			logger.Error("failed to process document",
				"document_id", r.DocumentID,
				"path", r.SourcePath,
				"code", common.ErrorCode(err),
				"error", err)
			failures++
			continue
		}
		counts[outcome.Status]++
		fmt.Printf("%s\t%s\t%s\n", r.SourcePath, outcome.Status, idOrDash(outcome.ApplicationID))
	}

	if *out != "" {
		xlsxBytes, err := a.Export.ExportApplicationsXLSX(ctx, from, to)
		if err != nil {
			logger.Error("failed to export applications", "error", err)
			os.Exit(1)
		}
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			logger.Error("failed to create output directory", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Intake complete!\n")
	fmt.Printf("- Documents: %d\n", len(registered))
	fmt.Printf("- Complete: %d\n", counts[constants.OutcomeComplete])
	fmt.Printf("- Partial: %d\n", counts[constants.OutcomePartial])
	fmt.Printf("- No data: %d\n", counts[constants.OutcomeNoData])
	fmt.Printf("- Failures: %d\n", failures)
	if *out != "" {
		fmt.Printf("- Output: %s\n", *out)
	}
	if failures > 0 {
		os.Exit(3)
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func idOrDash(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
