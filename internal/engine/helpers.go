package engine

import (
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trade-reconciler/internal/direction"
	"trade-reconciler/internal/types"
)

var hundred = decimal.NewFromInt(100)

func newTradeID() string {
	return uuid.NewString()
}

// buildTrade turns what a closing fill consumed into a round trip. Direction
// is the position that was closed; the direction classifier is fed the side
// that opened it.
func (e *Engine) buildTrade(p partition, info types.OptionDetectionResult, f fill, c *closing) types.ProcessedTrade {
	qty := decimal.NewFromInt(c.qty)
	avg := c.cost.Div(qty)

	pnl := f.price.Sub(avg).Mul(qty)
	dir := types.DirectionLong
	if f.side == types.SideBuy {
		pnl = avg.Sub(f.price).Mul(qty)
		dir = types.DirectionShort
	}
	pnl = pnl.Round(2)

	brokerage := decimal.NewFromFloat(e.cfg.Engine.BrokerageRate).Mul(avg.Add(f.price)).Mul(qty).Round(2)

	roi := decimal.Zero
	if notional := avg.Mul(qty); !notional.IsZero() {
		roi = pnl.Div(notional).Mul(hundred).Round(2)
	}

	confidence := e.cfg.Engine.MatchConfidence
	if c.fallback || f.fallback {
		confidence = e.cfg.Engine.FallbackConfidence
	}

	var dctx *direction.Context
	if spot, ok := e.spot[info.UnderlyingSymbol]; ok {
		if strike, err := strconv.ParseFloat(info.StrikePrice, 64); err == nil {
			dctx = &direction.Context{UnderlyingPrice: spot, Strike: strike}
		}
	}
	d := direction.Classify(info.OptionType, c.openingSide, dctx)

	o := p.orders[f.idx]
	t := types.ProcessedTrade{
		ID:                e.newID(),
		Symbol:            p.key,
		CleanSymbol:       info.CleanSymbol,
		AvgEntryPrice:     toFloat(avg),
		ExitPrice:         toFloat(f.price),
		MatchedQuantity:   int(c.qty),
		Direction:         dir,
		EntryTime:         c.entryTime,
		ExitTime:          f.at,
		PnL:               toFloat(pnl),
		ConfidenceScore:   confidence,
		OpeningSide:       c.openingSide,
		MarketSegment:     types.SegmentEquity,
		Exchange:          info.Exchange,
		BrokerageEstimate: toFloat(brokerage),
		NetPnL:            toFloat(pnl.Sub(brokerage)),
		RoiPercent:        toFloat(roi),
		Broker:            o.Broker,
	}
	if o.Exchange != "" {
		t.Exchange = o.Exchange
	}
	if info.IsOption {
		t.MarketSegment = types.SegmentOptions
		t.OptionType = info.OptionType
		t.UnderlyingSymbol = info.UnderlyingSymbol
		t.StrikePrice = info.StrikePrice
		t.Expiry = info.Expiry
		t.LotSize = info.LotSize
		t.MarketSentiment = d.MarketSentiment
		t.StrategyLabel = d.StrategyLabel
	}
	t.DirectionalBias = d.Direction
	return t
}

// SortByExitTime orders trades across symbols by exit time. Trades within one
// symbol are already in exit order; the sort is stable so that order is kept.
func SortByExitTime(trades []types.ProcessedTrade) {
	slices.SortStableFunc(trades, func(a, b types.ProcessedTrade) int {
		return a.ExitTime.Compare(b.ExitTime)
	})
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
