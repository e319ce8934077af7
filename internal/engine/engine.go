package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/store"
	"trade-reconciler/internal/symbol"
	"trade-reconciler/internal/timenorm"
	"trade-reconciler/internal/types"
)

const (
	reasonOpen    = "open exposure at end of batch"
	reasonFlipped = "position flipped; remainder left open"
	reasonInvalid = "malformed order"
)

// fill is an order after side, quantity, price and time normalization.
type fill struct {
	idx      int
	side     types.Side
	qty      int64
	price    decimal.Decimal
	at       time.Time
	fallback bool
}

type partition struct {
	key    string
	orders []types.OrderBookEntry
}

type partitionResult struct {
	trades     []types.ProcessedTrade
	incomplete []types.IncompleteOrder
	warnings   []string
}

type Engine struct {
	cfg        *store.Config
	classifier *symbol.Classifier
	normalizer *timenorm.Normalizer
	validator  interfaces.TradeValidator
	clock      func() time.Time
	newID      func() string
	spot       map[string]float64
}

func newEngine(cfg *store.Config, v interfaces.TradeValidator) *Engine {
	return &Engine{
		cfg:        cfg,
		classifier: symbol.New(cfg),
		normalizer: timenorm.New(cfg),
		validator:  v,
		clock:      time.Now,
		newID:      newTradeID,
	}
}

// Reconcile partitions orders by symbol and matches each partition FIFO.
// Partitions are independent and run on up to engine.workers goroutines;
// output follows the first appearance of each symbol in orders.
func (e *Engine) Reconcile(ctx context.Context, orders []types.OrderBookEntry) types.ReconcileResult {
	now := e.clock()
	norm := e.normalizer.WithClock(func() time.Time { return now })

	parts := partitionOrders(orders)
	results := make([]partitionResult, len(parts))

	workers := e.cfg.Engine.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range parts {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = partitionResult{
						warnings: []string{fmt.Sprintf("%s: internal error: %v", p.key, r)},
					}
				}
			}()
			results[i] = e.reconcileSymbol(ctx, norm, p)
			return nil
		})
	}
	_ = g.Wait()

	out := types.ReconcileResult{
		Trades:     []types.ProcessedTrade{},
		Incomplete: []types.IncompleteOrder{},
		Warnings:   []string{},
	}
	for _, r := range results {
		out.Trades = append(out.Trades, r.trades...)
		out.Incomplete = append(out.Incomplete, r.incomplete...)
		out.Warnings = append(out.Warnings, r.warnings...)
	}
	return out
}

func (e *Engine) reconcileSymbol(ctx context.Context, norm *timenorm.Normalizer, p partition) partitionResult {
	var res partitionResult

	if p.key == "" {
		res.warnings = append(res.warnings, fmt.Sprintf("%d order(s) have an empty symbol", len(p.orders)))
	}

	fills := make([]fill, 0, len(p.orders))
	for i, o := range p.orders {
		f, err := toFill(i, o, norm)
		if err != nil {
			res.warnings = append(res.warnings, fmt.Sprintf("%s: %v", label(p.key), err))
			res.incomplete = append(res.incomplete, types.IncompleteOrder{
				OrderBookEntry: o,
				OpenQuantity:   max(o.Quantity, 0),
				Reason:         reasonInvalid,
			})
			continue
		}
		fills = append(fills, f)
	}
	slices.SortStableFunc(fills, func(a, b fill) int { return a.at.Compare(b.at) })

	info := e.classifier.Classify(p.key)
	book := ledger{}
	for _, f := range fills {
		var c *closing
		book, c = book.apply(f)
		if c == nil {
			continue
		}
		t := e.buildTrade(p, info, f, c)
		logger.Match(ctx, t.Symbol, t.MatchedQuantity, t.AvgEntryPrice, t.ExitPrice, t.PnL,
			"trade_id", t.ID,
			"direction", t.Direction,
			"confidence", t.ConfidenceScore,
		)

		v := e.validator.Validate(t)
		for _, msg := range v.Errors {
			res.warnings = append(res.warnings, fmt.Sprintf("%s: %s", label(p.key), msg))
		}
		for _, msg := range v.Warnings {
			res.warnings = append(res.warnings, fmt.Sprintf("%s: %s", label(p.key), msg))
		}
		res.trades = append(res.trades, t)
	}

	for _, lt := range book {
		reason := reasonOpen
		if lt.flipped {
			reason = reasonFlipped
		}
		o := p.orders[lt.order]
		open := int(abs(lt.signedQty))
		logger.Leftover(ctx, label(p.key), string(sideOf(lt.signedQty)), open, "reason", reason)
		res.incomplete = append(res.incomplete, types.IncompleteOrder{
			OrderBookEntry: o,
			OpenQuantity:   open,
			Reason:         reason,
		})
	}
	return res
}

// toFill rejects what cannot enter the ledger: unknown sides, non-positive
// quantities and non-finite prices.
func toFill(idx int, o types.OrderBookEntry, norm *timenorm.Normalizer) (fill, error) {
	side := types.Side(strings.ToUpper(strings.TrimSpace(string(o.Side))))
	if side != types.SideBuy && side != types.SideSell {
		return fill{}, fmt.Errorf("unknown side %q", o.Side)
	}
	if o.Quantity <= 0 {
		return fill{}, fmt.Errorf("non-positive quantity %d", o.Quantity)
	}
	if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
		return fill{}, errors.New("price is not a number")
	}
	at, ok := norm.Normalize(o.Time)
	return fill{
		idx:      idx,
		side:     side,
		qty:      int64(o.Quantity),
		price:    decimal.NewFromFloat(o.Price),
		at:       at,
		fallback: !ok,
	}, nil
}

// partitionOrders groups by upper-cased, trimmed symbol, keeping the order in
// which symbols first appear.
func partitionOrders(orders []types.OrderBookEntry) []partition {
	var parts []partition
	index := make(map[string]int)
	for _, o := range orders {
		key := strings.ToUpper(strings.TrimSpace(o.Symbol))
		i, ok := index[key]
		if !ok {
			i = len(parts)
			index[key] = i
			parts = append(parts, partition{key: key})
		}
		parts[i].orders = append(parts[i].orders, o)
	}
	return parts
}

func label(key string) string {
	if key == "" {
		return "<empty symbol>"
	}
	return key
}
