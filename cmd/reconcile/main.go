package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"trade-reconciler/internal/engine"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/report"
	"trade-reconciler/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config yaml")
	in := flag.String("in", "-", "input file, '-' for stdin, or an http(s) URL with -format html")
	format := flag.String("format", "", "csv | json | kite-trades | kite-orders | html (default from config)")
	out := flag.String("out", "json", "json | summary")
	spot := flag.String("spot", "", "underlying prices for moneyness, e.g. NIFTY=24500,BANKNIFTY=52000")
	journal := flag.Bool("journal", false, "append the batch to the daily journal and save the summary CSV")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	defer func() {
		if err := trace.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown tracer: %v\n", err)
		}
	}()

	if err := run(ctx, *configPath, isFlagSet("config"), *in, *format, *out, *spot, *journal); err != nil {
		logger.ErrorWithErr(ctx, "Reconciliation failed", err)
		_ = trace.Shutdown(ctx)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, explicitConfig bool, in, format, out, spot string, journal bool) error {
	cfg, err := loadConfig(ctx, configPath, explicitConfig)
	if err != nil {
		return err
	}
	if format == "" {
		format = cfg.Import.Format
	}
	prices, err := parseSpot(spot)
	if err != nil {
		return err
	}

	orders, err := loadOrders(ctx, cfg, format, in)
	if err != nil {
		return err
	}

	res := initializeReconciler(cfg, prices).Reconcile(ctx, orders)
	engine.SortByExitTime(res.Trades)

	if journal {
		compressOldJournals(ctx, cfg)
		persist(ctx, cfg, res)
	}

	switch out {
	case "summary":
		return report.WriteSummary(os.Stdout, res.Trades)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return fmt.Errorf("unknown output %q", out)
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
