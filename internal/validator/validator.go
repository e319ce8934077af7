// Package validator runs post-hoc data-quality checks on a matched trade.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/store"
	"trade-reconciler/internal/types"
)

// pnlFloor absorbs the rounding of reported P&L to two decimals.
var pnlFloor = decimal.NewFromFloat(0.01)

type Validator struct {
	tolerance decimal.Decimal
}

var _ interfaces.TradeValidator = (*Validator)(nil)

func New(cfg *store.Config) *Validator {
	return &Validator{
		tolerance: decimal.NewFromFloat(cfg.Validator.PnLTolerancePct).Div(decimal.NewFromInt(100)),
	}
}

// Validate evaluates every check; none short-circuits. Warnings never affect
// IsValid.
func (v *Validator) Validate(t types.ProcessedTrade) types.ValidationResult {
	res := types.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if t.AvgEntryPrice <= 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("entry price must be positive, got %.2f", t.AvgEntryPrice))
	}
	if t.ExitPrice <= 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("exit price must be positive, got %.2f", t.ExitPrice))
	}
	if t.MatchedQuantity <= 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("quantity must be positive, got %d", t.MatchedQuantity))
	}

	if t.MarketSegment == types.SegmentOptions && (t.OptionType == "" || t.OptionType == types.OptionNone) {
		res.Warnings = append(res.Warnings, "options trade has no option type")
	}
	if t.EntryTime.Equal(t.ExitTime) {
		res.Warnings = append(res.Warnings, "entry and exit have the same timestamp")
	} else if t.ExitTime.Before(t.EntryTime) {
		res.Warnings = append(res.Warnings, "exit time is before entry time")
	}

	if w := v.checkPnL(t); w != "" {
		res.Warnings = append(res.Warnings, w)
	}

	if t.MarketSegment == types.SegmentOptions && t.LotSize > 1 && t.MatchedQuantity > 0 && t.MatchedQuantity%t.LotSize != 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("quantity %d is not a multiple of lot size %d", t.MatchedQuantity, t.LotSize))
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func (v *Validator) checkPnL(t types.ProcessedTrade) string {
	entry := decimal.NewFromFloat(t.AvgEntryPrice)
	exit := decimal.NewFromFloat(t.ExitPrice)
	qty := decimal.NewFromInt(int64(t.MatchedQuantity))

	expected := exit.Sub(entry).Mul(qty)
	if t.Direction == types.DirectionShort {
		expected = entry.Sub(exit).Mul(qty)
	}

	allowed := decimal.Max(expected.Abs().Mul(v.tolerance), pnlFloor)
	if decimal.NewFromFloat(t.PnL).Sub(expected).Abs().GreaterThan(allowed) {
		return fmt.Sprintf("P&L may be incorrect: reported %.2f, expected %s", t.PnL, expected.StringFixed(2))
	}
	return ""
}
