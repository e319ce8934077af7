package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/types"
)

// CSV reads a tradebook with a header row. Column order is free; see headers
// for the accepted names.
type CSV struct {
	Broker string
}

var _ interfaces.OrderSource = (*CSV)(nil)

func (c *CSV) Name() string { return FormatCSV }

func (c *CSV) Load(ctx context.Context, r io.Reader) ([]types.OrderBookEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []types.OrderBookEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx, err := mapHeader(head)
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	entries := []types.OrderBookEntry{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if e, ok := rowToEntry(idx, rec, c.Broker); ok {
			entries = append(entries, e)
		}
	}

	logger.Debug(ctx, "CSV orders loaded", "rows", line-1, "orders", len(entries))
	return entries, nil
}
