package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS tips (
	transaction_id     TEXT PRIMARY KEY,
	from_wallet        TEXT NOT NULL,
	to_wallet          TEXT NOT NULL,
	meme_id            TEXT NOT NULL,
	amount             NUMERIC NOT NULL,
	token              TEXT NOT NULL,
	price_at_send_time NUMERIC NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tips_meme_id_idx ON tips (meme_id, created_at);
`

// TipStore is the tip ledger in Postgres. Inserts are idempotent on the
// transaction id, so replaying a confirmed transfer never double counts.
type TipStore struct {
	db *pgxpool.Pool
}

// NewTipStore wraps an existing pool.
func NewTipStore(db *pgxpool.Pool) *TipStore {
	return &TipStore{db: db}
}

// Connect opens a pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tips table if it does not exist.
func (s *TipStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating tips schema: %w", err)
	}
	return nil
}

func (s *TipStore) CreateTip(ctx context.Context, tip domain.Tip) error {
	created := tip.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO tips (transaction_id, from_wallet, to_wallet, meme_id, amount, token, price_at_send_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (transaction_id) DO NOTHING
	`,
		tip.TransactionID,
		tip.FromWallet,
		tip.ToWallet,
		tip.ItemID,
		tip.Amount.String(),
		tip.Token,
		tip.PriceAtSendTime.String(),
		created,
	)
	if err != nil {
		return fmt.Errorf("inserting tip %s: %w", tip.TransactionID, err)
	}
	return nil
}

func (s *TipStore) ListTips(ctx context.Context, itemID string) ([]domain.Tip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT transaction_id, from_wallet, to_wallet, meme_id, amount::text, token, price_at_send_time::text, created_at
		FROM tips
		WHERE meme_id = $1
		ORDER BY created_at ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing tips: %w", err)
	}
	defer rows.Close()
	return collectTips(rows)
}

// Exists reports whether a tip for the transaction is already recorded.
func (s *TipStore) Exists(ctx context.Context, transactionID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tips WHERE transaction_id = $1)`, transactionID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking tip %s: %w", transactionID, err)
	}
	return ok, nil
}

func collectTips(rows pgx.Rows) ([]domain.Tip, error) {
	var tips []domain.Tip
	for rows.Next() {
		var (
			t             domain.Tip
			amount, price string
		)
		if err := rows.Scan(&t.TransactionID, &t.FromWallet, &t.ToWallet, &t.ItemID, &amount, &t.Token, &price, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tip: %w", err)
		}
		var err error
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing tip amount %q: %w", amount, err)
		}
		if t.PriceAtSendTime, err = decimal.NewFromString(price); err != nil {
			t.PriceAtSendTime = decimal.Zero
		}
		tips = append(tips, t)
	}
	return tips, rows.Err()
}
