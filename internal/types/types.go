package types

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side; unknown sides are returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	}
	return s
}

type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
	OptionNone OptionType = "NONE"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
)

type ContractKind string

const (
	ContractIndex ContractKind = "INDEX"
	ContractStock ContractKind = "STOCK"
)

type MarketSegment string

const (
	SegmentOptions MarketSegment = "OPTIONS"
	SegmentEquity  MarketSegment = "EQUITY"
)

// OrderBookEntry is one observed fill as produced by an OCR scan or a broker
// statement import. Time is kept raw; the engine normalizes it.
type OrderBookEntry struct {
	Symbol    string  `json:"symbol"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Time      string  `json:"time"`
	OrderType string  `json:"order_type,omitempty"`
	Status    string  `json:"status,omitempty"`
	Broker    string  `json:"broker,omitempty"`
	OrderID   string  `json:"order_id,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
}

type OptionDetectionResult struct {
	IsOption         bool         `json:"is_option"`
	OptionType       OptionType   `json:"option_type"`
	UnderlyingSymbol string       `json:"underlying_symbol,omitempty"`
	StrikePrice      string       `json:"strike_price,omitempty"`
	Expiry           string       `json:"expiry,omitempty"`
	ContractKind     ContractKind `json:"contract_kind"`
	LotSize          int          `json:"lot_size"`
	CleanSymbol      string       `json:"clean_symbol"`
	Exchange         string       `json:"exchange,omitempty"`
	Grammar          string       `json:"grammar,omitempty"`
}

type DirectionResult struct {
	Direction       Direction `json:"direction"`
	OpeningSide     Side      `json:"opening_side"`
	MarketSentiment Sentiment `json:"market_sentiment,omitempty"`
	Explanation     string    `json:"explanation"`
	StrategyLabel   string    `json:"strategy_label,omitempty"`
	Moneyness       string    `json:"moneyness,omitempty"`
}

// ProcessedTrade is one matched round trip. Direction is the position that
// was closed (LONG when the closing order sells); DirectionalBias is the
// market view implied by the instrument, which differs for puts.
type ProcessedTrade struct {
	ID                string        `json:"id"`
	Symbol            string        `json:"symbol"`
	CleanSymbol       string        `json:"clean_symbol"`
	AvgEntryPrice     float64       `json:"avg_entry_price"`
	ExitPrice         float64       `json:"exit_price"`
	MatchedQuantity   int           `json:"matched_quantity"`
	Direction         Direction     `json:"direction"`
	EntryTime         time.Time     `json:"entry_time"`
	ExitTime          time.Time     `json:"exit_time"`
	PnL               float64       `json:"pnl"`
	ConfidenceScore   float64       `json:"confidence_score"`
	OpeningSide       Side          `json:"opening_side"`
	MarketSegment     MarketSegment `json:"market_segment"`
	OptionType        OptionType    `json:"option_type,omitempty"`
	UnderlyingSymbol  string        `json:"underlying_symbol,omitempty"`
	StrikePrice       string        `json:"strike_price,omitempty"`
	Expiry            string        `json:"expiry,omitempty"`
	Exchange          string        `json:"exchange,omitempty"`
	LotSize           int           `json:"lot_size,omitempty"`
	MarketSentiment   Sentiment     `json:"market_sentiment,omitempty"`
	StrategyLabel     string        `json:"strategy_label,omitempty"`
	DirectionalBias   Direction     `json:"directional_bias,omitempty"`
	BrokerageEstimate float64       `json:"brokerage_estimate"`
	NetPnL            float64       `json:"net_pnl"`
	RoiPercent        float64       `json:"roi_percent"`
	Broker            string        `json:"broker,omitempty"`
}

// IncompleteOrder is an order whose quantity was left open at the end of a batch.
type IncompleteOrder struct {
	OrderBookEntry
	OpenQuantity int    `json:"open_quantity"`
	Reason       string `json:"reason"`
}

type ReconcileResult struct {
	Trades     []ProcessedTrade  `json:"trades"`
	Incomplete []IncompleteOrder `json:"incomplete"`
	Warnings   []string          `json:"warnings"`
}

type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
