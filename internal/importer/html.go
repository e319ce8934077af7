package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trade-reconciler/internal/interfaces"
	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/types"
)

// HTMLTable reads the first table in a broker statement page whose header
// row names the required columns.
type HTMLTable struct {
	Broker string
}

var _ interfaces.OrderSource = (*HTMLTable)(nil)

func (h *HTMLTable) Name() string { return FormatHTML }

func (h *HTMLTable) Load(ctx context.Context, r io.Reader) ([]types.OrderBookEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	entries, err := ordersFromTables(doc.Selection, h.Broker)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "HTML statement orders loaded", "orders", len(entries))
	return entries, nil
}

// ordersFromTables scans every table under sel and decodes the first one
// with a usable header.
func ordersFromTables(sel *goquery.Selection, broker string) ([]types.OrderBookEntry, error) {
	var (
		entries []types.OrderBookEntry
		found   bool
		lastErr error
	)
	sel.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := tableRows(table)
		if len(rows) == 0 {
			return true
		}
		idx, err := mapHeader(rows[0])
		if err != nil {
			lastErr = err
			return true
		}
		found = true
		entries = []types.OrderBookEntry{}
		for _, row := range rows[1:] {
			if e, ok := rowToEntry(idx, row, broker); ok {
				entries = append(entries, e)
			}
		}
		return false
	})

	if !found {
		if lastErr != nil {
			return nil, fmt.Errorf("no order table found: %w", lastErr)
		}
		return nil, errors.New("no order table found")
	}
	return entries, nil
}

// tableRows flattens a table into cell text, header row first. Nested tables
// are not descended into.
func tableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.ParentsFiltered("table").First().Get(0) != table.Get(0) {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(td.Text()), " "))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}
