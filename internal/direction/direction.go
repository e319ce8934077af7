// Package direction maps an option type and the side that opened a position
// to its directional bias, market view and strategy name.
package direction

import (
	"fmt"

	"trade-reconciler/internal/types"
)

// Moneyness thresholds on underlying/strike.
const (
	itmRatio = 1.02
	otmRatio = 0.98
)

// Context carries optional market data. Zero values mean unknown.
type Context struct {
	UnderlyingPrice float64
	Strike          float64
}

type row struct {
	direction types.Direction
	sentiment types.Sentiment
	label     string
}

// table is fixed; it is not configuration.
var table = map[types.OptionType]map[types.Side]row{
	types.OptionCall: {
		types.SideBuy:  {types.DirectionLong, types.SentimentBullish, "Long Call"},
		types.SideSell: {types.DirectionShort, types.SentimentBearish, "Short Call"},
	},
	types.OptionPut: {
		types.SideBuy:  {types.DirectionShort, types.SentimentBearish, "Long Put"},
		types.SideSell: {types.DirectionLong, types.SentimentBullish, "Short Put"},
	},
}

// Classify is pure and total. Non-options, or an unknown side, fall back to
// the literal sense of the opening side.
func Classify(optionType types.OptionType, openingSide types.Side, ctx *Context) types.DirectionResult {
	r, ok := table[optionType][openingSide]
	if !ok {
		return literal(openingSide)
	}

	res := types.DirectionResult{
		Direction:       r.direction,
		OpeningSide:     openingSide,
		MarketSentiment: r.sentiment,
		StrategyLabel:   r.label,
		Explanation: fmt.Sprintf("%s %s: %s on the underlying",
			verb(openingSide), optionWord(optionType), lower(r.sentiment)),
	}

	if m := Moneyness(optionType, ctx); m != "" {
		res.Moneyness = m
		res.StrategyLabel = fmt.Sprintf("%s (%s)", r.label, m)
	}
	return res
}

// Moneyness returns ITM, ATM or OTM, or "" when ctx lacks a usable price or
// strike. For puts a low underlying is in the money.
func Moneyness(optionType types.OptionType, ctx *Context) string {
	if ctx == nil || ctx.UnderlyingPrice <= 0 || ctx.Strike <= 0 {
		return ""
	}
	ratio := ctx.UnderlyingPrice / ctx.Strike
	switch {
	case ratio > itmRatio:
		if optionType == types.OptionPut {
			return "OTM"
		}
		return "ITM"
	case ratio < otmRatio:
		if optionType == types.OptionPut {
			return "ITM"
		}
		return "OTM"
	}
	return "ATM"
}

func literal(side types.Side) types.DirectionResult {
	if side == types.SideSell {
		return types.DirectionResult{
			Direction:   types.DirectionShort,
			OpeningSide: side,
			Explanation: "opened with a sell",
		}
	}
	return types.DirectionResult{
		Direction:   types.DirectionLong,
		OpeningSide: side,
		Explanation: "opened with a buy",
	}
}

func verb(side types.Side) string {
	if side == types.SideSell {
		return "sold"
	}
	return "bought"
}

func optionWord(ot types.OptionType) string {
	if ot == types.OptionPut {
		return "put"
	}
	return "call"
}

func lower(s types.Sentiment) string {
	if s == types.SentimentBearish {
		return "bearish"
	}
	return "bullish"
}
