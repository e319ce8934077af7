package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Contract describes the fixed metadata of an underlying.
type Contract struct {
	Kind     string `yaml:"kind"`
	LotSize  int    `yaml:"lot_size"`
	Exchange string `yaml:"exchange"`
}

type Config struct {
	Session struct {
		StartHour        int    `yaml:"start_hour"`
		EndHour          int    `yaml:"end_hour"`
		ZoneName         string `yaml:"zone_name"`
		UTCOffsetMinutes int    `yaml:"utc_offset_minutes"`
	} `yaml:"session"`
	Instruments struct {
		ExchangePrefixes []string            `yaml:"exchange_prefixes"`
		Aliases          map[string]string   `yaml:"aliases"`
		Contracts        map[string]Contract `yaml:"contracts"`
		DefaultExchange  struct {
			Options string `yaml:"options"`
			Equity  string `yaml:"equity"`
		} `yaml:"default_exchange"`
	} `yaml:"instruments"`
	Engine struct {
		Workers            int     `yaml:"workers"`
		BrokerageRate      float64 `yaml:"brokerage_rate"`
		MatchConfidence    float64 `yaml:"match_confidence"`
		FallbackConfidence float64 `yaml:"fallback_confidence"`
	} `yaml:"engine"`
	Validator struct {
		PnLTolerancePct float64 `yaml:"pnl_tolerance_pct"`
	} `yaml:"validator"`
	Import struct {
		Format               string `yaml:"format"`
		DefaultBroker        string `yaml:"default_broker"`
		ScrapeTimeoutSeconds int    `yaml:"scrape_timeout_seconds"`
	} `yaml:"import"`
	Report struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"report"`
}

// Default returns the NSE/BSE intraday configuration used when no file is given.
func Default() *Config {
	var c Config
	c.Session.StartHour = 9
	c.Session.EndHour = 15
	c.Session.ZoneName = "IST"
	c.Session.UTCOffsetMinutes = 330

	c.Instruments.ExchangePrefixes = []string{"NSE", "NFO", "BSE", "BFO", "MCX", "CDS"}
	c.Instruments.Aliases = map[string]string{
		"NIFTY50":         "NIFTY",
		"NIFTYBANK":       "BANKNIFTY",
		"BANKNIFTY":       "BANKNIFTY",
		"NIFTYFIN":        "FINNIFTY",
		"NIFTYFINSERVICE": "FINNIFTY",
		"FINNIFTY":        "FINNIFTY",
		"MIDCPNIFTY":      "MIDCPNIFTY",
		"NIFTYMIDCAP":     "MIDCPNIFTY",
		"NIFTYMIDSELECT":  "MIDCPNIFTY",
		"BSESENSEX":       "SENSEX",
		"SENSEX":          "SENSEX",
		"BANKEX":          "BANKEX",
	}
	c.Instruments.Contracts = map[string]Contract{
		"NIFTY":      {Kind: "INDEX", LotSize: 75, Exchange: "NFO"},
		"BANKNIFTY":  {Kind: "INDEX", LotSize: 35, Exchange: "NFO"},
		"FINNIFTY":   {Kind: "INDEX", LotSize: 65, Exchange: "NFO"},
		"MIDCPNIFTY": {Kind: "INDEX", LotSize: 140, Exchange: "NFO"},
		"SENSEX":     {Kind: "INDEX", LotSize: 20, Exchange: "BFO"},
		"BANKEX":     {Kind: "INDEX", LotSize: 30, Exchange: "BFO"},
	}
	c.Instruments.DefaultExchange.Options = "NFO"
	c.Instruments.DefaultExchange.Equity = "NSE"

	c.Engine.Workers = 4
	c.Engine.BrokerageRate = 0.0003
	c.Engine.MatchConfidence = 0.95
	c.Engine.FallbackConfidence = 0.6

	c.Validator.PnLTolerancePct = 10

	c.Import.Format = "csv"
	c.Import.ScrapeTimeoutSeconds = 30

	c.Report.Dir = "logs"
	return &c
}

func (c *Config) Validate() error {
	s := c.Session
	if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
		return fmt.Errorf("session hours must be within 0-23, got %d-%d", s.StartHour, s.EndHour)
	}
	if s.StartHour > s.EndHour {
		return fmt.Errorf("session.start_hour %d is after session.end_hour %d", s.StartHour, s.EndHour)
	}
	if s.UTCOffsetMinutes < -12*60 || s.UTCOffsetMinutes > 14*60 {
		return fmt.Errorf("session.utc_offset_minutes out of range: %d", s.UTCOffsetMinutes)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must be >= 0, got %d", c.Engine.Workers)
	}
	if c.Engine.BrokerageRate < 0 || c.Engine.BrokerageRate > 0.05 {
		return fmt.Errorf("engine.brokerage_rate must be between 0 and 0.05, got %.5f", c.Engine.BrokerageRate)
	}
	if c.Engine.MatchConfidence <= 0 || c.Engine.MatchConfidence > 1 {
		return fmt.Errorf("engine.match_confidence must be in (0,1], got %.2f", c.Engine.MatchConfidence)
	}
	if c.Engine.FallbackConfidence <= 0 || c.Engine.FallbackConfidence > c.Engine.MatchConfidence {
		return fmt.Errorf("engine.fallback_confidence must be in (0,match_confidence], got %.2f", c.Engine.FallbackConfidence)
	}
	if c.Validator.PnLTolerancePct <= 0 {
		return errors.New("validator.pnl_tolerance_pct must be positive")
	}
	if c.Import.ScrapeTimeoutSeconds < 0 {
		return fmt.Errorf("import.scrape_timeout_seconds must be >= 0, got %d", c.Import.ScrapeTimeoutSeconds)
	}
	if c.Report.RetentionDays < 0 {
		return fmt.Errorf("report.retention_days must be >= 0, got %d", c.Report.RetentionDays)
	}
	for name, ct := range c.Instruments.Contracts {
		if ct.LotSize <= 0 {
			return fmt.Errorf("instruments.contracts.%s.lot_size must be positive", name)
		}
		if k := strings.ToUpper(ct.Kind); k != "INDEX" && k != "STOCK" {
			return fmt.Errorf("instruments.contracts.%s.kind must be 'INDEX' or 'STOCK', got '%s'", name, ct.Kind)
		}
	}
	return nil
}

// Location is the fixed zone the session hours are expressed in.
func (c *Config) Location() *time.Location {
	name := c.Session.ZoneName
	if name == "" {
		name = "IST"
	}
	return time.FixedZone(name, c.Session.UTCOffsetMinutes*60)
}

// LoadConfig reads a yaml file on top of Default, so a partial file only
// overrides what it names. Map sections are merged key by key.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if c.Engine.Workers == 0 {
		c.Engine.Workers = 1
	}
	if c.Session.ZoneName == "" {
		c.Session.ZoneName = "IST"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}
