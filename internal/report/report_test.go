package report

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/types"
)

var ist = time.FixedZone("IST", 19800)

func sampleTrades() []types.ProcessedTrade {
	return []types.ProcessedTrade{
		{Symbol: "NIFTY24500CE", CleanSymbol: "NIFTY 24500 CE", MatchedQuantity: 75, PnL: 1500, BrokerageEstimate: 3.5, NetPnL: 1496.5},
		{Symbol: "RELIANCE", CleanSymbol: "RELIANCE", MatchedQuantity: 10, PnL: -200, BrokerageEstimate: 7.8, NetPnL: -207.8},
		{Symbol: "NIFTY 24500 CE", CleanSymbol: "NIFTY 24500 CE", MatchedQuantity: 75, PnL: -300, BrokerageEstimate: 3.4, NetPnL: -303.4},
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleTrades()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "symbol,trades,quantity,gross_pnl,brokerage,net_pnl,wins,losses", lines[0])
	assert.Equal(t, "NIFTY 24500 CE,2,150,1200.00,6.90,1193.10,1,1", lines[1])
	assert.Equal(t, "RELIANCE,1,10,-200.00,7.80,-207.80,0,1", lines[2])
	assert.Equal(t, "TOTAL,3,160,1000.00,14.70,985.30,1,2", lines[3])
}

func TestWriteSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, nil))
	assert.Equal(t, "symbol,trades,quantity,gross_pnl,brokerage,net_pnl,wins,losses\n", buf.String())
}

func TestSaveSummary(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 11, 28, 15, 40, 0, 0, ist)

	p, err := SaveSummary(dir, day, sampleTrades())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eod", "2024-11-28.csv"), p)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "TOTAL,3,160")
}

func TestAppendJournal(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 11, 28, 16, 0, 0, 0, ist)
	res := types.ReconcileResult{
		Trades: sampleTrades()[:1],
		Incomplete: []types.IncompleteOrder{{
			OrderBookEntry: types.OrderBookEntry{Symbol: "INFY", Side: types.SideBuy, Quantity: 5, Price: 1500},
			OpenQuantity:   5,
			Reason:         "open exposure at end of batch",
		}},
		Warnings: []string{"INFY: something odd"},
	}

	p, err := AppendJournal(dir, at, res)
	require.NoError(t, err)
	_, err = AppendJournal(dir, at, res)
	require.NoError(t, err)

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()

	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e JournalEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		assert.Equal(t, "2024-11-28 16:00:00", e.Time)
		kinds = append(kinds, e.Kind)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"trade", "incomplete", "warning", "trade", "incomplete", "warning"}, kinds)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2024-01-01.txt")
	fresh := filepath.Join(dir, "2024-11-28.txt")
	require.NoError(t, os.WriteFile(old, []byte("{\"kind\":\"trade\"}\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))

	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	require.NoError(t, CompressOlder(dir, 7))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	gz, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer gz.Close()
	zr, err := gzip.NewReader(gz)
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "{\"kind\":\"trade\"}\n", string(b))
}
