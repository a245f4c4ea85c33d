package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tip is an append-only record of a confirmed on-chain transfer to a meme owner.
// TransactionID is the idempotency key.
type Tip struct {
	TransactionID   string
	FromWallet      string
	ToWallet        string
	ItemID          string
	Amount          decimal.Decimal
	Token           string
	PriceAtSendTime decimal.Decimal // USD per token when sent; display only
	CreatedAt       time.Time
}

// PriceFunc returns the current USD price of a token, or false if unknown.
type PriceFunc func(token string) (decimal.Decimal, bool)

// EarningsTotal sums amount × current price over the tips, counting each
// transaction once. Tips for tokens without a known price contribute nothing.
func EarningsTotal(tips []Tip, price PriceFunc) decimal.Decimal {
	total := decimal.Zero
	seen := make(map[string]struct{}, len(tips))
	for _, t := range tips {
		if t.TransactionID != "" {
			if _, ok := seen[t.TransactionID]; ok {
				continue
			}
			seen[t.TransactionID] = struct{}{}
		}
		p, ok := price(t.Token)
		if !ok || p.IsNegative() {
			continue
		}
		total = total.Add(t.Amount.Mul(p))
	}
	return total
}

// FormatUSD renders an amount with two decimals, e.g. "$13.50".
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
