package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 75, c.Instruments.Contracts["NIFTY"].LotSize)
	assert.Equal(t, "logs", c.Report.Dir)
	assert.Equal(t, 30, c.Import.ScrapeTimeoutSeconds)
}

func TestLoadConfigPartialOverride(t *testing.T) {
	p := writeConfig(t, `
engine:
  workers: 0
  brokerage_rate: 0.001
instruments:
  contracts:
    NIFTY: { kind: INDEX, lot_size: 25, exchange: NFO }
report:
  retention_days: 3
`)
	c, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Engine.Workers)
	assert.InDelta(t, 0.001, c.Engine.BrokerageRate, 1e-12)
	assert.Equal(t, 25, c.Instruments.Contracts["NIFTY"].LotSize)
	assert.Equal(t, 35, c.Instruments.Contracts["BANKNIFTY"].LotSize)
	assert.InDelta(t, 0.95, c.Engine.MatchConfidence, 1e-12)
	assert.Equal(t, 3, c.Report.RetentionDays)
	assert.Equal(t, "logs", c.Report.Dir)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"hours":     "session: { start_hour: 16, end_hour: 9 }",
		"brokerage": "engine: { brokerage_rate: 0.5 }",
		"fallback":  "engine: { match_confidence: 0.5, fallback_confidence: 0.9 }",
		"tolerance": "validator: { pnl_tolerance_pct: 0 }",
		"lot size":  "instruments: { contracts: { FOO: { kind: STOCK, lot_size: 0 } } }",
		"kind":      "instruments: { contracts: { FOO: { kind: BOND, lot_size: 1 } } }",
		"retention": "report: { retention_days: -1 }",
		"timeout":   "import: { scrape_timeout_seconds: -5 }",
		"bad yaml":  "engine: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLocation(t *testing.T) {
	c := Default()
	loc := c.Location()
	assert.Equal(t, "IST", loc.String())

	c.Session.ZoneName = ""
	c.Session.UTCOffsetMinutes = 0
	assert.Equal(t, "IST", c.Location().String())
}
