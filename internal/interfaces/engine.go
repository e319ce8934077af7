package interfaces

import (
	"context"

	"trade-reconciler/internal/types"
)

// Reconciler turns a batch of raw order entries into matched round trips.
// It never fails; every problem is reported inside the result.
type Reconciler interface {
	Reconcile(ctx context.Context, orders []types.OrderBookEntry) types.ReconcileResult
}
