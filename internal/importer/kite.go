package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/types"
)

// kiteTimeLayout is the wall-clock form the time normalizer reads back.
const kiteTimeLayout = "2006-01-02 15:04:05"

// envelope is the Kite Connect REST response wrapper.
type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
}

// KiteTrades reads a Kite tradebook (GET /trades), one entry per fill.
type KiteTrades struct {
	Broker string
}

var _ interfaces.OrderSource = (*KiteTrades)(nil)

func (k *KiteTrades) Name() string { return FormatKiteTrades }

func (k *KiteTrades) Load(ctx context.Context, r io.Reader) ([]types.OrderBookEntry, error) {
	var trades kiteconnect.Trades
	if err := decodeKite(r, &trades); err != nil {
		return nil, fmt.Errorf("kite trades: %w", err)
	}

	entries := make([]types.OrderBookEntry, 0, len(trades))
	for _, t := range trades {
		ts := t.FillTimestamp
		if ts.IsZero() {
			ts = t.ExchangeTimestamp
		}
		entries = append(entries, types.OrderBookEntry{
			Symbol:   t.TradingSymbol,
			Side:     parseSide(t.TransactionType),
			Price:    t.AveragePrice,
			Quantity: int(t.Quantity),
			Time:     kiteTime(ts),
			Status:   "COMPLETE",
			Broker:   k.Broker,
			OrderID:  t.OrderID,
			Exchange: t.Exchange,
		})
	}

	logger.Debug(ctx, "Kite trades loaded", "trades", len(entries))
	return entries, nil
}

// KiteOrders reads a Kite orderbook (GET /orders). Only COMPLETE orders with
// a filled quantity are imported, at their average fill price.
type KiteOrders struct {
	Broker string
}

var _ interfaces.OrderSource = (*KiteOrders)(nil)

func (k *KiteOrders) Name() string { return FormatKiteOrders }

func (k *KiteOrders) Load(ctx context.Context, r io.Reader) ([]types.OrderBookEntry, error) {
	var orders kiteconnect.Orders
	if err := decodeKite(r, &orders); err != nil {
		return nil, fmt.Errorf("kite orders: %w", err)
	}

	entries := make([]types.OrderBookEntry, 0, len(orders))
	skipped := 0
	for _, o := range orders {
		if !strings.EqualFold(o.Status, "COMPLETE") || o.FilledQuantity <= 0 {
			skipped++
			continue
		}
		ts := o.ExchangeTimestamp
		if ts.IsZero() {
			ts = o.OrderTimestamp
		}
		price := o.AveragePrice
		if price <= 0 {
			price = o.Price
		}
		entries = append(entries, types.OrderBookEntry{
			Symbol:    o.TradingSymbol,
			Side:      parseSide(o.TransactionType),
			Price:     price,
			Quantity:  int(o.FilledQuantity),
			Time:      kiteTime(ts),
			OrderType: o.OrderType,
			Status:    o.Status,
			Broker:    k.Broker,
			OrderID:   o.OrderID,
			Exchange:  o.Exchange,
		})
	}

	logger.Debug(ctx, "Kite orders loaded", "orders", len(entries), "skipped", skipped)
	return entries, nil
}

// decodeKite accepts either a bare JSON array or the {"status","data"} envelope.
func decodeKite(r io.Reader, v any) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	if first == '[' {
		return json.NewDecoder(br).Decode(v)
	}

	var env envelope
	if err := json.NewDecoder(br).Decode(&env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status != "" && env.Status != "success" {
		return fmt.Errorf("response status %q: %s %s", env.Status, env.ErrorType, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, v)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		}
		return b[0], nil
	}
}

func kiteTime(t models.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(kiteTimeLayout)
}
