package interfaces

import "trade-reconciler/internal/types"

type TradeValidator interface {
	Validate(trade types.ProcessedTrade) types.ValidationResult
}
