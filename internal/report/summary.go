package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"trade-reconciler/internal/types"
)

type aggRow struct {
	Symbol    string
	Trades    int
	Quantity  int
	GrossPnL  float64
	Brokerage float64
	NetPnL    float64
	Wins      int
	Losses    int
}

var summaryHeader = []string{"symbol", "trades", "quantity", "gross_pnl", "brokerage", "net_pnl", "wins", "losses"}

// WriteSummary writes one CSV row per clean symbol, sorted, followed by a
// TOTAL row. Nothing but the header is written for an empty batch.
func WriteSummary(w io.Writer, trades []types.ProcessedTrade) error {
	aggs := map[string]*aggRow{}
	for _, t := range trades {
		key := t.CleanSymbol
		if key == "" {
			key = t.Symbol
		}
		row := aggs[key]
		if row == nil {
			row = &aggRow{Symbol: key}
			aggs[key] = row
		}
		row.Trades++
		row.Quantity += t.MatchedQuantity
		row.GrossPnL += t.PnL
		row.Brokerage += t.BrokerageEstimate
		row.NetPnL += t.NetPnL
		switch {
		case t.PnL > 0:
			row.Wins++
		case t.PnL < 0:
			row.Losses++
		}
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	if len(keys) == 0 {
		cw.Flush()
		return cw.Error()
	}

	var total aggRow
	total.Symbol = "TOTAL"
	for _, k := range keys {
		r := aggs[k]
		if err := cw.Write(record(r)); err != nil {
			return err
		}
		total.Trades += r.Trades
		total.Quantity += r.Quantity
		total.GrossPnL += r.GrossPnL
		total.Brokerage += r.Brokerage
		total.NetPnL += r.NetPnL
		total.Wins += r.Wins
		total.Losses += r.Losses
	}
	if err := cw.Write(record(&total)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func record(r *aggRow) []string {
	return []string{
		r.Symbol,
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Quantity),
		fmt.Sprintf("%.2f", r.GrossPnL),
		fmt.Sprintf("%.2f", r.Brokerage),
		fmt.Sprintf("%.2f", r.NetPnL),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
	}
}

// SummaryPath is where SaveSummary writes the summary for day.
func SummaryPath(dir string, day time.Time) string {
	return filepath.Join(dir, "eod", day.Format("2006-01-02")+".csv")
}

// SaveSummary writes the summary under dir/eod/, replacing an earlier run
// for the same day.
func SaveSummary(dir string, day time.Time, trades []types.ProcessedTrade) (string, error) {
	p := SummaryPath(dir, day)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	if err := WriteSummary(f, trades); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, f.Close()
}
