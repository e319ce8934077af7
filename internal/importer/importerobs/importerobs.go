package importerobs

import (
	"context"
	"io"
	"time"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/trace"
	"trade-reconciler/internal/types"
)

type observableSource struct {
	source interfaces.OrderSource
}

var _ interfaces.OrderSource = (*observableSource)(nil)

func Wrap(s interfaces.OrderSource) interfaces.OrderSource {
	return &observableSource{
		source: s,
	}
}

func (o *observableSource) Name() string {
	return o.source.Name()
}

func (o *observableSource) Load(ctx context.Context, r io.Reader) ([]types.OrderBookEntry, error) {
	ctx, span := trace.StartSpan(ctx, "importer.Load")
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Loading orders", "format", o.source.Name())

	orders, err := o.source.Load(ctx, r)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to load orders", err,
			"format", o.source.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Orders imported",
		"format", o.source.Name(),
		"count", len(orders),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return orders, nil
}
