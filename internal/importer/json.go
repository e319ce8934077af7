package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/types"
)

// JSON reads a bare array of order-book entries, the shape an OCR step emits.
type JSON struct {
	Broker string
}

var _ interfaces.OrderSource = (*JSON)(nil)

func (j *JSON) Name() string { return FormatJSON }

func (j *JSON) Load(_ context.Context, r io.Reader) ([]types.OrderBookEntry, error) {
	var entries []types.OrderBookEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return []types.OrderBookEntry{}, nil
		}
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	for i := range entries {
		entries[i].Side = parseSide(string(entries[i].Side))
		entries[i].Broker = brokerOr(entries[i].Broker, j.Broker)
	}
	if entries == nil {
		entries = []types.OrderBookEntry{}
	}
	return entries, nil
}
