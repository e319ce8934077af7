// Package importer decodes upstream exports (tradebook CSVs, Kite JSON,
// HTML statements) into raw order-book entries for reconciliation.
//
// Importers are lenient: a row with an unreadable number is kept with a zero
// value so the engine reports it, instead of being dropped here.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/store"
	"trade-reconciler/internal/types"
)

const (
	FormatCSV        = "csv"
	FormatJSON       = "json"
	FormatKiteTrades = "kite-trades"
	FormatKiteOrders = "kite-orders"
	FormatHTML       = "html"
)

// New returns the source for format. cfg supplies the default broker name.
func New(format string, cfg *store.Config) (interfaces.OrderSource, error) {
	broker := cfg.Import.DefaultBroker
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return &CSV{Broker: broker}, nil
	case FormatJSON:
		return &JSON{Broker: broker}, nil
	case FormatKiteTrades:
		return &KiteTrades{Broker: brokerOr(broker, "zerodha")}, nil
	case FormatKiteOrders:
		return &KiteOrders{Broker: brokerOr(broker, "zerodha")}, nil
	case FormatHTML:
		return &HTMLTable{Broker: broker}, nil
	}
	return nil, fmt.Errorf("unknown import format %q", format)
}

func brokerOr(broker, fallback string) string {
	if broker != "" {
		return broker
	}
	return fallback
}

// column is a canonical field name; headers maps spellings seen in broker
// exports onto it.
type column string

const (
	colSymbol    column = "symbol"
	colSide      column = "side"
	colPrice     column = "price"
	colQuantity  column = "quantity"
	colTime      column = "time"
	colOrderType column = "order_type"
	colStatus    column = "status"
	colBroker    column = "broker"
	colOrderID   column = "order_id"
	colExchange  column = "exchange"
)

var headers = map[string]column{
	"symbol": colSymbol, "tradingsymbol": colSymbol, "trading_symbol": colSymbol,
	"instrument": colSymbol, "scrip": colSymbol, "contract": colSymbol,

	"side": colSide, "type": colSide, "trade_type": colSide,
	"transaction_type": colSide, "buy_sell": colSide, "b_s": colSide, "action": colSide,

	"price": colPrice, "avg_price": colPrice, "average_price": colPrice,
	"trade_price": colPrice, "rate": colPrice, "avg": colPrice,

	"quantity": colQuantity, "qty": colQuantity, "filled_qty": colQuantity,
	"filled_quantity": colQuantity, "traded_qty": colQuantity,

	"time": colTime, "order_time": colTime, "trade_time": colTime, "timestamp": colTime,
	"order_execution_time": colTime, "execution_time": colTime, "fill_timestamp": colTime,

	"order_type": colOrderType,
	"status": colStatus,
	"broker": colBroker,
	"order_id": colOrderID, "order_no": colOrderID,
	"exchange": colExchange, "segment": colExchange,
}

// mapHeader resolves header cells to column positions. It fails when a
// required column is missing.
func mapHeader(cells []string) (map[column]int, error) {
	idx := make(map[column]int)
	for i, c := range cells {
		key := normalizeHeader(c)
		if col, ok := headers[key]; ok {
			if _, seen := idx[col]; !seen {
				idx[col] = i
			}
		}
	}
	var missing []string
	for _, col := range []column{colSymbol, colSide, colPrice, colQuantity} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	s = strings.NewReplacer(" ", "_", ".", "", "/", "_", "-", "_").Replace(s)
	return strings.Trim(s, "_")
}

// rowToEntry builds one entry from a record. Blank rows return false.
func rowToEntry(idx map[column]int, row []string, broker string) (types.OrderBookEntry, bool) {
	cell := func(c column) string {
		i, ok := idx[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	if strings.TrimSpace(strings.Join(row, "")) == "" {
		return types.OrderBookEntry{}, false
	}

	qty := int(parseNumber(cell(colQuantity)))
	side := parseSide(cell(colSide))
	if qty < 0 {
		qty = -qty
		if side == "" {
			side = types.SideSell
		}
	}

	e := types.OrderBookEntry{
		Symbol:    cell(colSymbol),
		Side:      side,
		Price:     parseNumber(cell(colPrice)),
		Quantity:  qty,
		Time:      cell(colTime),
		OrderType: cell(colOrderType),
		Status:    cell(colStatus),
		Broker:    brokerOr(cell(colBroker), broker),
		OrderID:   cell(colOrderID),
		Exchange:  strings.ToUpper(cell(colExchange)),
	}
	return e, true
}

// parseSide accepts the spellings brokers use. Anything else is passed
// through upper-cased so the engine can report it.
func parseSide(s string) types.Side {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "BUY", "B", "BOT", "BOUGHT", "BY":
		return types.SideBuy
	case "SELL", "S", "SLD", "SOLD", "SL":
		return types.SideSell
	default:
		return types.Side(v)
	}
}

var numberCleaner = strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", "INR", "", ",", "", " ", "", "\u00a0", "")

// parseNumber reads amounts like "₹1,234.50" or "(12.5)". Unreadable input is 0.
func parseNumber(s string) float64 {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -f
	}
	return f
}
