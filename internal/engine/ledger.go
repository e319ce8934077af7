package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-reconciler/internal/types"
)

// lot is one unmatched slice of exposure. signedQty is positive for long
// exposure, negative for short, and never zero.
type lot struct {
	price     decimal.Decimal
	signedQty int64
	openTime  time.Time
	fallback  bool // openTime came from the clock, not the order
	order     int  // index of the originating fill
	flipped   bool // remainder of a closing order that overshot
}

// ledger is the open exposure of one symbol, oldest lot first. All lots
// share a sign: a closing order consumes before it can flip.
type ledger []lot

// closing is what one reducing order consumed from the ledger.
type closing struct {
	qty         int64
	cost        decimal.Decimal
	entryTime   time.Time
	openingSide types.Side
	fallback    bool
}

func (l ledger) net() int64 {
	var n int64
	for _, lt := range l {
		n += lt.signedQty
	}
	return n
}

// apply folds one fill into the ledger and returns the new ledger. The
// receiver is not modified. closing is nil when the fill only extended
// exposure.
func (l ledger) apply(f fill) (ledger, *closing) {
	signed := f.qty
	if f.side == types.SideSell {
		signed = -signed
	}

	net := l.net()
	if net == 0 || (net > 0) == (signed > 0) {
		next := make(ledger, len(l), len(l)+1)
		copy(next, l)
		return append(next, lot{
			price:     f.price,
			signedQty: signed,
			openTime:  f.at,
			fallback:  f.fallback,
			order:     f.idx,
		}), nil
	}

	// Every lot has the sign opposite to the fill, so the position being
	// closed was opened on the other side.
	c := &closing{cost: decimal.Zero, openingSide: f.side.Opposite()}
	remaining := f.qty
	next := make(ledger, 0, len(l))
	for _, lt := range l {
		if remaining == 0 {
			next = append(next, lt)
			continue
		}
		avail := abs(lt.signedQty)
		take := min(avail, remaining)
		if c.qty == 0 {
			c.entryTime = lt.openTime
		}
		c.qty += take
		c.cost = c.cost.Add(lt.price.Mul(decimal.NewFromInt(take)))
		c.fallback = c.fallback || lt.fallback
		remaining -= take

		if take < avail {
			lt.signedQty -= sign(lt.signedQty) * take
			next = append(next, lt)
		}
	}

	if remaining > 0 {
		next = append(next, lot{
			price:     f.price,
			signedQty: sign(signed) * remaining,
			openTime:  f.at,
			fallback:  f.fallback,
			order:     f.idx,
			flipped:   true,
		})
	}
	return next, c
}

func sideOf(signedQty int64) types.Side {
	if signedQty < 0 {
		return types.SideSell
	}
	return types.SideBuy
}

func sign(n int64) int64 {
	if n < 0 {
		return -1
	}
	return 1
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
