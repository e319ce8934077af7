// Package symbol classifies raw broker instrument symbols as option
// contracts or plain equity.
package symbol

import (
	"strings"

	"trade-reconciler/internal/store"
	"trade-reconciler/internal/types"
)

// Classifier holds the alias and contract tables. It is safe for
// concurrent use; Classify never mutates it.
type Classifier struct {
	prefixes        map[string]struct{}
	aliases         map[string]string
	contracts       map[string]store.Contract
	optionsExchange string
	equityExchange  string
}

func New(cfg *store.Config) *Classifier {
	c := &Classifier{
		prefixes:        make(map[string]struct{}, len(cfg.Instruments.ExchangePrefixes)),
		aliases:         make(map[string]string, len(cfg.Instruments.Aliases)),
		contracts:       make(map[string]store.Contract, len(cfg.Instruments.Contracts)),
		optionsExchange: cfg.Instruments.DefaultExchange.Options,
		equityExchange:  cfg.Instruments.DefaultExchange.Equity,
	}
	for _, p := range cfg.Instruments.ExchangePrefixes {
		c.prefixes[strings.ToUpper(strings.TrimSpace(p))] = struct{}{}
	}
	for k, v := range cfg.Instruments.Aliases {
		c.aliases[compactKey(k)] = strings.ToUpper(strings.TrimSpace(v))
	}
	for k, v := range cfg.Instruments.Contracts {
		c.contracts[compactKey(k)] = v
	}
	return c
}

// Classify is pure and total: unknown or garbled symbols come back as
// non-options rather than errors.
func (c *Classifier) Classify(raw string) types.OptionDetectionResult {
	s, exchange := c.normalize(raw)

	p, grammarName, ok := match(s)
	if !ok {
		if p, ok = heuristic(s); ok {
			grammarName = "heuristic"
		}
	}

	if !ok {
		res := types.OptionDetectionResult{
			OptionType:   types.OptionNone,
			ContractKind: types.ContractStock,
			LotSize:      1,
			CleanSymbol:  s,
			Exchange:     exchange,
		}
		if res.Exchange == "" && s != "" {
			res.Exchange = c.equityExchange
		}
		return res
	}

	underlying := c.canonical(p.underlying)
	kind, lot, contractExchange := c.lookup(underlying)
	if exchange == "" {
		exchange = contractExchange
	}
	if exchange == "" {
		exchange = c.optionsExchange
	}

	strike := cleanStrike(p.strike)
	return types.OptionDetectionResult{
		IsOption:         true,
		OptionType:       p.optionType,
		UnderlyingSymbol: underlying,
		StrikePrice:      strike,
		Expiry:           p.expiry,
		ContractKind:     kind,
		LotSize:          lot,
		CleanSymbol:      displayName(underlying, strike, p.optionType),
		Exchange:         exchange,
		Grammar:          grammarName,
	}
}

func match(s string) (parsed, string, bool) {
	for _, g := range grammars {
		m := g.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if p, ok := g.extract(m); ok {
			return p, g.name, true
		}
	}
	return parsed{}, "", false
}

// normalize upper-cases, collapses whitespace and strips a known exchange prefix.
func (c *Classifier) normalize(raw string) (string, string) {
	s := strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
	if i := strings.Index(s, ":"); i > 0 {
		prefix := strings.TrimSpace(s[:i])
		if _, ok := c.prefixes[prefix]; ok {
			return strings.TrimSpace(s[i+1:]), prefix
		}
	}
	return s, ""
}

// Underlying maps a free-form underlying name ("BANK NIFTY", "NIFTY BANK")
// to the canonical key used in classification results.
func (c *Classifier) Underlying(name string) string {
	return c.canonical(name)
}

func (c *Classifier) canonical(underlying string) string {
	key := compactKey(underlying)
	if v, ok := c.aliases[key]; ok {
		return v
	}
	return key
}

func (c *Classifier) lookup(underlying string) (types.ContractKind, int, string) {
	ct, ok := c.contracts[underlying]
	if !ok {
		return types.ContractStock, 1, ""
	}
	kind := types.ContractStock
	if strings.EqualFold(ct.Kind, string(types.ContractIndex)) {
		kind = types.ContractIndex
	}
	return kind, ct.LotSize, ct.Exchange
}

// compactKey drops separators so "BANK NIFTY", "BANK-NIFTY" and "BANKNIFTY" collide.
func compactKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, strings.ToUpper(s))
}

func displayName(underlying, strike string, ot types.OptionType) string {
	suffix := "CE"
	if ot == types.OptionPut {
		suffix = "PE"
	}
	if strike == "" {
		return underlying + " " + suffix
	}
	return underlying + " " + strike + " " + suffix
}
