package engine

import (
	"time"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/store"
)

type Option func(*Engine)

// WithClock fixes the time used when an order's time cannot be parsed.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithUnderlyingPrices supplies reference prices so option strategy labels
// carry moneyness. Keys go through the alias table, so "BANK NIFTY" and
// "NIFTYBANK" both price BANKNIFTY contracts.
func WithUnderlyingPrices(prices map[string]float64) Option {
	return func(e *Engine) {
		e.spot = make(map[string]float64, len(prices))
		for k, v := range prices {
			e.spot[e.classifier.Underlying(k)] = v
		}
	}
}

func New(cfg *store.Config, v interfaces.TradeValidator, opts ...Option) interfaces.Reconciler {
	e := newEngine(cfg, v)
	for _, opt := range opts {
		opt(e)
	}
	return e
}
