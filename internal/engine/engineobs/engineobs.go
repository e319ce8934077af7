package engineobs

import (
	"context"
	"strings"
	"time"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/trace"
	"trade-reconciler/internal/types"
)

type observableReconciler struct {
	reconciler interfaces.Reconciler
}

var _ interfaces.Reconciler = (*observableReconciler)(nil)

func Wrap(r interfaces.Reconciler) interfaces.Reconciler {
	return &observableReconciler{
		reconciler: r,
	}
}

func (or *observableReconciler) Reconcile(ctx context.Context, orders []types.OrderBookEntry) types.ReconcileResult {
	ctx, span := trace.StartSpan(ctx, "engine.Reconcile")
	defer span.End()

	start := time.Now()
	symbols := countSymbols(orders)

	logger.InfoSkip(ctx, 1, "Starting reconciliation",
		"orders", len(orders),
		"symbols", symbols,
	)

	result := or.reconciler.Reconcile(ctx, orders)

	var gross, net float64
	for _, t := range result.Trades {
		gross += t.PnL
		net += t.NetPnL
	}

	trace.RecordBatch(span, trace.Batch{
		Orders:     len(orders),
		Symbols:    symbols,
		Trades:     len(result.Trades),
		Incomplete: len(result.Incomplete),
		Warnings:   len(result.Warnings),
		GrossPnL:   gross,
		NetPnL:     net,
	})

	if len(result.Warnings) > 0 {
		logger.WarnSkip(ctx, 1, "Reconciliation produced warnings",
			"warnings", len(result.Warnings),
			"first", result.Warnings[0],
		)
		if logger.IsDebugEnabled() {
			for i, w := range result.Warnings {
				logger.DebugSkip(ctx, 1, "Reconciliation warning", "index", i, "warning", w)
			}
		}
	}

	logger.InfoSkip(ctx, 1, "Reconciliation completed",
		"orders", len(orders),
		"trades", len(result.Trades),
		"incomplete", len(result.Incomplete),
		"warnings", len(result.Warnings),
		"gross_pnl", gross,
		"net_pnl", net,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result
}

func countSymbols(orders []types.OrderBookEntry) int {
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		seen[strings.ToUpper(strings.TrimSpace(o.Symbol))] = struct{}{}
	}
	return len(seen)
}
