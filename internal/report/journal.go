// Package report writes reconciled batches out for humans: a per-symbol CSV
// summary and an append-only daily journal.
package report

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trade-reconciler/internal/types"
)

var mu sync.Mutex

// JournalEntry is one line of the daily journal.
type JournalEntry struct {
	Time       string                 `json:"time"`
	Kind       string                 `json:"kind"`
	Trade      *types.ProcessedTrade  `json:"trade,omitempty"`
	Incomplete *types.IncompleteOrder `json:"incomplete,omitempty"`
	Warning    string                 `json:"warning,omitempty"`
}

func JournalPath(dir string, day time.Time) string {
	return filepath.Join(dir, day.Format("2006-01-02")+".txt")
}

// AppendJournal appends every trade, incomplete order and warning of res to
// the journal for the day of at, one JSON object per line.
func AppendJournal(dir string, at time.Time, res types.ReconcileResult) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	p := JournalPath(dir, at)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stamp := at.Format("2006-01-02 15:04:05")
	enc := json.NewEncoder(f)
	for i := range res.Trades {
		if err := enc.Encode(JournalEntry{Time: stamp, Kind: "trade", Trade: &res.Trades[i]}); err != nil {
			return "", fmt.Errorf("append trade: %w", err)
		}
	}
	for i := range res.Incomplete {
		if err := enc.Encode(JournalEntry{Time: stamp, Kind: "incomplete", Incomplete: &res.Incomplete[i]}); err != nil {
			return "", fmt.Errorf("append incomplete: %w", err)
		}
	}
	for _, w := range res.Warnings {
		if err := enc.Encode(JournalEntry{Time: stamp, Kind: "warning", Warning: w}); err != nil {
			return "", fmt.Errorf("append warning: %w", err)
		}
	}
	return p, nil
}

// CompressOlder gzips journal files under dir last modified more than
// retentionDays ago and removes the originals.
func CompressOlder(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		return gzipFile(p, gz)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil
	}
	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	closeErr := gw.Close()
	_ = out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dst)
		return nil
	}
	return os.Remove(src)
}
