package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, detailed bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(LogConfig{Level: "DEBUG", Format: "text", DetailedLogging: detailed, Output: &buf}))
	t.Cleanup(func() {
		_ = InitWithConfig(LogConfig{Level: "INFO", Format: "text"})
	})
	return &buf
}

func TestSetOutputRedirectsLogs(t *testing.T) {
	require.NoError(t, InitWithConfig(LogConfig{Level: "INFO", Format: "json"}))
	t.Cleanup(func() {
		_ = InitWithConfig(LogConfig{Level: "INFO", Format: "text"})
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	Info(context.Background(), "Batch imported", "orders", 4)
	Debug(context.Background(), "hidden detail")

	out := buf.String()
	assert.Contains(t, out, `msg="Batch imported"`)
	assert.Contains(t, out, "orders=4")
	assert.NotContains(t, out, "hidden detail")
}

func TestDebugNeedsDetailedLogging(t *testing.T) {
	buf := captureLogs(t, false)
	assert.False(t, IsDebugEnabled())
	DebugSkip(context.Background(), 0, "not shown")
	assert.Empty(t, buf.String())

	buf = captureLogs(t, true)
	assert.True(t, IsDebugEnabled())
	DebugSkip(context.Background(), 0, "shown", "symbol", "NIFTY")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "symbol=NIFTY")
	assert.Contains(t, buf.String(), "source.file=")
}

func TestErrorWithErrSkip(t *testing.T) {
	buf := captureLogs(t, false)

	ErrorWithErrSkip(context.Background(), 0, "Failed to load orders", errors.New("boom"), "format", "csv")

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "format=csv")
}

func TestOperationTimer(t *testing.T) {
	buf := captureLogs(t, true)
	ctx := context.Background()

	op := StartOperation(ctx, "import.orders", "format", "csv")
	require.NotNil(t, op.GetContext())
	op.End("count", 3)

	out := buf.String()
	assert.Contains(t, out, `msg="Operation started"`)
	assert.Contains(t, out, `msg="Operation completed"`)
	assert.Contains(t, out, "operation=import.orders")
	assert.Contains(t, out, "count=3")

	buf.Reset()
	op = StartOperation(ctx, "report.persist")
	op.EndWithError(errors.New("disk full"))
	assert.Contains(t, buf.String(), `msg="Operation failed"`)
	assert.Contains(t, buf.String(), `error="disk full"`)
}

func TestMatchAndLeftoverEvents(t *testing.T) {
	buf := captureLogs(t, true)
	ctx := context.Background()

	Match(ctx, "NIFTY24500CE", 75, 100, 120, 1500, "trade_id", "t1")
	Leftover(ctx, "INFY", "BUY", 50, "reason", "open exposure at end of batch")

	out := buf.String()
	assert.Contains(t, out, "type=MATCH")
	assert.Contains(t, out, "pnl=1500")
	assert.Contains(t, out, "trade_id=t1")
	assert.Contains(t, out, "type=LEFTOVER")
	assert.Contains(t, out, "open_quantity=50")
}

func TestToAttributesSkipsUnsupported(t *testing.T) {
	attrs := toAttributes([]any{"symbol", "NIFTY", "qty", 75, 42, "bad key", "ratio", 0.5, "dangling"})
	require.Len(t, attrs, 3)
	assert.Equal(t, "symbol", string(attrs[0].Key))
	assert.Equal(t, int64(75), attrs[1].Value.AsInt64())
	assert.InDelta(t, 0.5, attrs[2].Value.AsFloat64(), 1e-12)
}
