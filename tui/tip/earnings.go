package tip

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

const revealWindow = 4 * time.Second

// Earnings tracks the displayed USD total for one meme. An increase is
// shown as a pending "+delta" until Commit; anything else is applied at once.
type Earnings struct {
	price domain.PriceFunc
	tips  []domain.Tip

	loaded    bool
	displayed decimal.Decimal
	target    decimal.Decimal
	delta     decimal.Decimal // positive while a reveal is running
	seq       int
}

// NewEarnings returns an empty tracker that prices tips with price.
func NewEarnings(price domain.PriceFunc) *Earnings {
	return &Earnings{price: price}
}

// Snapshot replaces the tip set. It reports whether a reveal window starts.
func (e *Earnings) Snapshot(tips []domain.Tip) bool {
	e.tips = tips
	return e.apply(domain.EarningsTotal(tips, e.price))
}

// Reprice recomputes the total with current prices.
func (e *Earnings) Reprice() bool {
	if !e.loaded {
		return false
	}
	return e.apply(domain.EarningsTotal(e.tips, e.price))
}

func (e *Earnings) apply(total decimal.Decimal) bool {
	if !e.loaded {
		e.loaded = true
		e.set(total)
		return false
	}
	if !total.GreaterThan(e.displayed) {
		e.set(total)
		return false
	}
	if e.Revealing() && total.Equal(e.target) {
		return false
	}
	e.target = total
	e.delta = total.Sub(e.displayed)
	e.seq++
	return true
}

func (e *Earnings) set(total decimal.Decimal) {
	e.seq++
	e.displayed = total
	e.target = total
	e.delta = decimal.Zero
}

// Commit ends the reveal started with seq. Superseded windows are ignored.
func (e *Earnings) Commit(seq int) bool {
	if seq != e.seq || !e.Revealing() {
		return false
	}
	e.set(e.target)
	return true
}

// Cancel drops a running reveal without committing it.
func (e *Earnings) Cancel() {
	e.seq++
	e.delta = decimal.Zero
	e.target = e.displayed
}

// Loaded reports whether a snapshot has arrived.
func (e *Earnings) Loaded() bool { return e.loaded }

// Displayed is the committed total.
func (e *Earnings) Displayed() decimal.Decimal { return e.displayed }

// Delta is the pending increase, zero outside a reveal.
func (e *Earnings) Delta() decimal.Decimal { return e.delta }

// Revealing reports whether a "+delta" is on screen.
func (e *Earnings) Revealing() bool { return e.delta.IsPositive() }

// Seq identifies the current reveal window.
func (e *Earnings) Seq() int { return e.seq }

// Count is the number of tips in the last snapshot.
func (e *Earnings) Count() int { return len(e.tips) }
