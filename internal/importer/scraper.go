package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"trade-reconciler/internal/logger"
	"trade-reconciler/internal/types"
)

// StatementScraper fetches a broker statement or contract-note page over
// HTTP and reads its order table the same way HTMLTable does.
type StatementScraper struct {
	Broker    string
	Timeout   time.Duration
	UserAgent string
}

func NewStatementScraper(broker string, timeout time.Duration) *StatementScraper {
	return &StatementScraper{
		Broker:    broker,
		Timeout:   timeout,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko)",
	}
}

func (s *StatementScraper) Fetch(ctx context.Context, pageURL string) ([]types.OrderBookEntry, error) {
	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	if s.Timeout > 0 {
		c.SetRequestTimeout(s.Timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.UserAgent)
	})

	var (
		entries  []types.OrderBookEntry
		parseErr error
		fetchErr error
		seen     bool
	)
	c.OnHTML("html", func(e *colly.HTMLElement) {
		seen = true
		entries, parseErr = ordersFromTables(e.DOM, s.Broker)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
		logger.ErrorWithErr(ctx, "Statement fetch failed", err, "url", r.Request.URL.String())
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		return nil, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	switch {
	case fetchErr != nil:
		return nil, fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
	case !seen:
		return nil, errors.New("statement page has no html body")
	case parseErr != nil:
		return nil, parseErr
	}

	logger.Info(ctx, "Statement page scraped", "url", pageURL, "orders", len(entries))
	return entries, nil
}
