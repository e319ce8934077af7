package interfaces

import (
	"context"
	"io"

	"trade-reconciler/internal/types"
)

// OrderSource decodes an upstream export (statement, tradebook, OCR dump)
// into raw order entries.
type OrderSource interface {
	Load(ctx context.Context, r io.Reader) ([]types.OrderBookEntry, error)
	Name() string
}
