package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// WalletService moves tokens on chain.
type WalletService interface {
	// Transfer sends amount of token and returns the confirmed transaction signature.
	// It fails on rejection, submission failure or missing confirmation.
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal, token string) (string, error)

	// Confirmed reports whether a transaction signature is confirmed on chain.
	Confirmed(ctx context.Context, signature string) (bool, error)
}

// TipService records and lists tips. CreateTip is idempotent on TransactionID.
type TipService interface {
	CreateTip(ctx context.Context, tip domain.Tip) error
	ListTips(ctx context.Context, itemID string) ([]domain.Tip, error)
}

// PriceService exposes the latest known USD price per token.
type PriceService interface {
	// Price returns the cached price; it never blocks on the network.
	Price(token string) (decimal.Decimal, bool)

	// Refresh re-reads prices from the backing feed.
	Refresh(ctx context.Context) error
}

// InconsistencyReporter records a confirmed transfer whose tip record could not be written.
type InconsistencyReporter interface {
	ReportMissingTip(ctx context.Context, tip domain.Tip, cause error) error
}
