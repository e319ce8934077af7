package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trade-reconciler/internal/engine"
	"trade-reconciler/internal/engine/engineobs"
	"trade-reconciler/internal/importer"
	"trade-reconciler/internal/importer/importerobs"
	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/report"
	"trade-reconciler/internal/store"
	"trade-reconciler/internal/trace"
	"trade-reconciler/internal/types"
	"trade-reconciler/internal/validator"
)

// initializeSystem loads .env and sets up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig reads path, falling back to the built-in defaults when the
// default file is simply absent.
func loadConfig(ctx context.Context, path string, explicit bool) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err == nil {
		logger.Debug(ctx, "Config loaded", "path", path)
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		logger.Info(ctx, "No config file found, using defaults", "path", path)
		return store.Default(), nil
	}
	logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
	return nil, err
}

// compressOldJournals gzips journals past the configured retention.
func compressOldJournals(ctx context.Context, cfg *store.Config) {
	if cfg.Report.RetentionDays <= 0 {
		return
	}
	if err := report.CompressOlder(cfg.Report.Dir, cfg.Report.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
	}
}

// initializeReconciler builds the engine and wraps it with observability.
func initializeReconciler(cfg *store.Config, spot map[string]float64) interfaces.Reconciler {
	var opts []engine.Option
	if len(spot) > 0 {
		opts = append(opts, engine.WithUnderlyingPrices(spot))
	}
	rec := engine.New(cfg, validator.New(cfg), opts...)
	return engineobs.Wrap(rec)
}

// loadOrders reads the batch from a file, stdin ("-") or, for the html
// format, an http(s) URL.
func loadOrders(ctx context.Context, cfg *store.Config, format, in string) ([]types.OrderBookEntry, error) {
	op := logger.StartOperation(ctx, "import.orders", "format", format, "input", in)
	orders, err := readOrders(op.GetContext(), cfg, format, in)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	op.End("count", len(orders))
	return orders, nil
}

func readOrders(ctx context.Context, cfg *store.Config, format, in string) ([]types.OrderBookEntry, error) {
	if format == importer.FormatHTML && (strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://")) {
		timeout := time.Duration(cfg.Import.ScrapeTimeoutSeconds) * time.Second
		return importer.NewStatementScraper(cfg.Import.DefaultBroker, timeout).Fetch(ctx, in)
	}

	src, err := importer.New(format, cfg)
	if err != nil {
		return nil, err
	}
	src = importerobs.Wrap(src)

	var r io.Reader = os.Stdin
	if in != "" && in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	orders, err := src.Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("load %s orders: %w", src.Name(), err)
	}
	return orders, nil
}

// parseSpot reads "NIFTY=24500,BANKNIFTY=52000".
func parseSpot(s string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("spot %q: want UNDERLYING=PRICE", part)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("spot %q: invalid price", part)
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = price
	}
	return out, nil
}

// persist appends the batch to the daily journal and saves the CSV summary.
func persist(ctx context.Context, cfg *store.Config, res types.ReconcileResult) {
	op := logger.StartOperation(ctx, "report.persist", "dir", cfg.Report.Dir)
	ctx = op.GetContext()
	now := time.Now().In(cfg.Location())

	journal, err := report.AppendJournal(cfg.Report.Dir, now, res)
	if err != nil {
		op.EndWithError(fmt.Errorf("append journal: %w", err))
		return
	}
	logger.Info(ctx, "Journal updated", "path", journal)

	summary, err := report.SaveSummary(cfg.Report.Dir, now, res.Trades)
	if err != nil {
		op.EndWithError(fmt.Errorf("save summary: %w", err))
		return
	}
	logger.Info(ctx, "Summary CSV written", "path", summary)
	op.End("journal", journal, "summary", summary)
}
