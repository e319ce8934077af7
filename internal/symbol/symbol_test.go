package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trade-reconciler/internal/store"
	"trade-reconciler/internal/types"
)

func newClassifier() *Classifier {
	return New(store.Default())
}

func TestClassifyCompactAndSpacedAgree(t *testing.T) {
	c := newClassifier()

	for _, raw := range []string{"NIFTY24500CE", "NIFTY 24500 CE", "nifty 24500 ce", "  NIFTY   24500  CE "} {
		res := c.Classify(raw)
		assert.True(t, res.IsOption, raw)
		assert.Equal(t, types.OptionCall, res.OptionType, raw)
		assert.Equal(t, "NIFTY", res.UnderlyingSymbol, raw)
		assert.Equal(t, "24500", res.StrikePrice, raw)
		assert.Equal(t, types.ContractIndex, res.ContractKind, raw)
		assert.Equal(t, 75, res.LotSize, raw)
		assert.Equal(t, "NIFTY 24500 CE", res.CleanSymbol, raw)
		assert.Equal(t, "NFO", res.Exchange, raw)
	}
}

func TestClassifyGrammars(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		raw        string
		grammar    string
		underlying string
		strike     string
		expiry     string
		optionType types.OptionType
	}{
		{"NIFTY2411724500CE", "weekly", "NIFTY", "24500", "2024-01-17", types.OptionCall},
		{"BANKNIFTY24D1848000PE", "weekly", "BANKNIFTY", "48000", "2024-12-18", types.OptionPut},
		{"NIFTY24NOV24500CE", "monthly", "NIFTY", "24500", "2024-11", types.OptionCall},
		{"FINNIFTY24DE23000PE", "monthly", "FINNIFTY", "23000", "2024-12", types.OptionPut},
		{"NIFTY28NOV2424500CE", "dayMonthYear", "NIFTY", "24500", "2024-11-28", types.OptionCall},
		{"SENSEX05DEC2480000PE", "dayMonthYear", "SENSEX", "80000", "2024-12-05", types.OptionPut},
		{"BANK NIFTY 28 NOV 48000 PUT", "spaced", "BANKNIFTY", "48000", "28 NOV", types.OptionPut},
		{"NIFTY 28 NOV 24 24500 CE", "spaced", "NIFTY", "24500", "28 NOV 24", types.OptionCall},
		{"NIFTY024500CE", "compact", "NIFTY", "24500", "", types.OptionCall},
		{"RELIANCE1300PE", "compact", "RELIANCE", "1300", "", types.OptionPut},
		{"NIFTY-24500-CE", "delimited", "NIFTY", "24500", "", types.OptionCall},
		{"BANKNIFTY_28NOV24_48000_PE", "delimited", "BANKNIFTY", "48000", "2024-11-28", types.OptionPut},
		{"NIFTY_20241128_24500_C", "delimited", "NIFTY", "24500", "2024-11-28", types.OptionCall},
		{"NIFTY24500 CALL", "heuristic", "NIFTY", "24500", "", types.OptionCall},
		{"NIFTY 24500CE", "heuristic", "NIFTY", "24500", "", types.OptionCall},
		{"NIFTY 28NOV24 24500 CE", "heuristic", "NIFTY", "24500", "2024-11-28", types.OptionCall},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := c.Classify(tt.raw)
			assert.True(t, res.IsOption)
			assert.Equal(t, tt.grammar, res.Grammar)
			assert.Equal(t, tt.underlying, res.UnderlyingSymbol)
			assert.Equal(t, tt.strike, res.StrikePrice)
			assert.Equal(t, tt.expiry, res.Expiry)
			assert.Equal(t, tt.optionType, res.OptionType)
		})
	}
}

func TestClassifyWeeklyRejectsImpossibleDate(t *testing.T) {
	c := newClassifier()

	// 24|2|31 would be February 31st, so the weekly grammar rejects and compact wins
	res := c.Classify("NIFTY2423124500CE")
	assert.True(t, res.IsOption)
	assert.Equal(t, "compact", res.Grammar)
	assert.Equal(t, "2423124500", res.StrikePrice)
	assert.Empty(t, res.Expiry)
}

func TestClassifyExchangePrefix(t *testing.T) {
	c := newClassifier()

	res := c.Classify("BFO:SENSEX80000CE")
	assert.Equal(t, "BFO", res.Exchange)
	assert.Equal(t, "SENSEX", res.UnderlyingSymbol)
	assert.Equal(t, 20, res.LotSize)

	res = c.Classify("NSE:RELIANCE")
	assert.False(t, res.IsOption)
	assert.Equal(t, "NSE", res.Exchange)
	assert.Equal(t, "RELIANCE", res.CleanSymbol)

	// BSE index options route to BFO without a prefix
	res = c.Classify("SENSEX80000PE")
	assert.Equal(t, "BFO", res.Exchange)
}

func TestClassifyNonOptions(t *testing.T) {
	c := newClassifier()

	for _, raw := range []string{"RELIANCE", "INFY", "M&M", "", "   ", "ACE", "12345"} {
		res := c.Classify(raw)
		assert.False(t, res.IsOption, raw)
		assert.Equal(t, types.OptionNone, res.OptionType, raw)
		assert.Equal(t, types.ContractStock, res.ContractKind, raw)
		assert.Equal(t, 1, res.LotSize, raw)
	}
}

func TestClassifyAliases(t *testing.T) {
	c := newClassifier()

	assert.Equal(t, "BANKNIFTY", c.Classify("NIFTYBANK48000CE").UnderlyingSymbol)
	assert.Equal(t, "FINNIFTY", c.Classify("NIFTYFIN 23000 PE").UnderlyingSymbol)
	assert.Equal(t, "NIFTY", c.Classify("NIFTY 50 24500 CE").UnderlyingSymbol)
}

func TestClassifyUnknownUnderlyingDefaultsToStock(t *testing.T) {
	c := newClassifier()

	res := c.Classify("TATAMOTORS900CE")
	assert.True(t, res.IsOption)
	assert.Equal(t, types.ContractStock, res.ContractKind)
	assert.Equal(t, 1, res.LotSize)
	assert.Equal(t, "NFO", res.Exchange)
}

func TestClassifyCustomTables(t *testing.T) {
	cfg := store.Default()
	cfg.Instruments.Aliases["MIDCAP SELECT"] = "MIDCPNIFTY"
	cfg.Instruments.Contracts["MIDCPNIFTY"] = store.Contract{Kind: "INDEX", LotSize: 120, Exchange: "NFO"}
	c := New(cfg)

	res := c.Classify("MIDCAP SELECT 12000 CE")
	assert.Equal(t, "MIDCPNIFTY", res.UnderlyingSymbol)
	assert.Equal(t, 120, res.LotSize)
}

func TestCleanStrike(t *testing.T) {
	assert.Equal(t, "24500", cleanStrike("0024500"))
	assert.Equal(t, "24500", cleanStrike("24500.00"))
	assert.Equal(t, "22.5", cleanStrike("022.50"))
	assert.Equal(t, "0", cleanStrike("000"))
	assert.Equal(t, "", cleanStrike(""))
}

func TestClassifyDayMonthYearKeepsIndexContract(t *testing.T) {
	c := newClassifier()

	for _, raw := range []string{"NIFTY28NOV2424500CE", "NIFTY 28NOV24 24500 CE"} {
		res := c.Classify(raw)
		assert.Equal(t, types.ContractIndex, res.ContractKind, raw)
		assert.Equal(t, 75, res.LotSize, raw)
		assert.Equal(t, "NIFTY 24500 CE", res.CleanSymbol, raw)
	}
}

func TestPlausibleStrike(t *testing.T) {
	assert.True(t, plausibleStrike("24500"))
	assert.True(t, plausibleStrike("0024500.50"))
	assert.True(t, plausibleStrike("999999"))
	assert.False(t, plausibleStrike("2424500"))
}

func TestUnderlyingUsesAliases(t *testing.T) {
	c := newClassifier()

	assert.Equal(t, "BANKNIFTY", c.Underlying("BANK NIFTY"))
	assert.Equal(t, "BANKNIFTY", c.Underlying("nifty bank"))
	assert.Equal(t, "NIFTY", c.Underlying(" nifty "))
	assert.Equal(t, "TATAMOTORS", c.Underlying("TATAMOTORS"))
}
