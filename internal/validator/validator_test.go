package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/store"
	"trade-reconciler/internal/types"
)

var ist = time.FixedZone("IST", 19800)

func goodTrade() types.ProcessedTrade {
	return types.ProcessedTrade{
		Symbol:          "NIFTY24500CE",
		AvgEntryPrice:   100,
		ExitPrice:       120,
		MatchedQuantity: 75,
		Direction:       types.DirectionLong,
		EntryTime:       time.Date(2024, 11, 28, 9, 20, 0, 0, ist),
		ExitTime:        time.Date(2024, 11, 28, 10, 0, 0, 0, ist),
		PnL:             1500,
		MarketSegment:   types.SegmentOptions,
		OptionType:      types.OptionCall,
		LotSize:         75,
	}
}

func TestValidateCleanTrade(t *testing.T) {
	v := New(store.Default())

	res := v.Validate(goodTrade())
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidateErrorsAreAllReported(t *testing.T) {
	v := New(store.Default())

	tr := goodTrade()
	tr.AvgEntryPrice = 0
	tr.ExitPrice = -1
	tr.MatchedQuantity = 0
	tr.PnL = 0

	res := v.Validate(tr)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 3)
}

func TestValidateWarningsKeepTradeValid(t *testing.T) {
	v := New(store.Default())

	tr := goodTrade()
	tr.OptionType = ""
	tr.ExitTime = tr.EntryTime

	res := v.Validate(tr)
	assert.True(t, res.IsValid)
	assert.Contains(t, res.Warnings, "options trade has no option type")
	assert.Contains(t, res.Warnings, "entry and exit have the same timestamp")
}

func TestValidatePnLTolerance(t *testing.T) {
	v := New(store.Default())

	tests := []struct {
		name      string
		direction types.Direction
		pnl       float64
		warn      bool
	}{
		{"exact long", types.DirectionLong, 1500, false},
		{"brokerage folded in", types.DirectionLong, 1400, false},
		{"beyond ten percent", types.DirectionLong, 1300, true},
		{"wrong sign", types.DirectionLong, -1500, true},
		{"short uses reversed delta", types.DirectionShort, -1500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := goodTrade()
			tr.Direction = tt.direction
			tr.PnL = tt.pnl

			res := v.Validate(tr)
			require.True(t, res.IsValid)
			found := false
			for _, w := range res.Warnings {
				if strings.HasPrefix(w, "P&L may be incorrect") {
					found = true
				}
			}
			assert.Equal(t, tt.warn, found, "warnings: %v", res.Warnings)
		})
	}
}

func TestValidateRoundingFloor(t *testing.T) {
	v := New(store.Default())

	tr := goodTrade()
	tr.AvgEntryPrice = 100
	tr.ExitPrice = 100
	tr.PnL = 0.004

	res := v.Validate(tr)
	assert.Empty(t, res.Warnings)
}

func TestValidateSupplementaryChecks(t *testing.T) {
	v := New(store.Default())

	tr := goodTrade()
	tr.ExitTime = tr.EntryTime.Add(-time.Minute)
	tr.MatchedQuantity = 50
	tr.PnL = 1000

	res := v.Validate(tr)
	assert.True(t, res.IsValid)
	assert.Contains(t, res.Warnings, "exit time is before entry time")
	assert.Contains(t, res.Warnings, "quantity 50 is not a multiple of lot size 75")
}

func TestValidateIsIdempotent(t *testing.T) {
	v := New(store.Default())

	tr := goodTrade()
	tr.PnL = 10
	tr.ExitTime = tr.EntryTime

	first := v.Validate(tr)
	second := v.Validate(tr)
	assert.Equal(t, first, second)
}

func TestValidateCustomTolerance(t *testing.T) {
	cfg := store.Default()
	cfg.Validator.PnLTolerancePct = 50
	v := New(cfg)

	tr := goodTrade()
	tr.PnL = 1000

	assert.Empty(t, v.Validate(tr).Warnings)
}
