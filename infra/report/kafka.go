package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

// Topic carries confirmed transfers whose tip record is missing.
const Topic = "tips.inconsistencies"

// Report is one missing-tip record. Tip is complete enough to replay CreateTip.
type Report struct {
	ID         string    `json:"id"`
	Tip        tipRecord `json:"tip"`
	Cause      string    `json:"cause"`
	ReportedAt time.Time `json:"reportedAt"`
}

type tipRecord struct {
	TransactionID   string          `json:"transactionId"`
	FromWallet      string          `json:"fromWallet"`
	ToWallet        string          `json:"toWallet"`
	ItemID          string          `json:"memeId"`
	Amount          decimal.Decimal `json:"amount"`
	Token           string          `json:"token"`
	PriceAtSendTime decimal.Decimal `json:"priceAtSendTime"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func fromTip(t domain.Tip) tipRecord {
	return tipRecord{
		TransactionID:   t.TransactionID,
		FromWallet:      t.FromWallet,
		ToWallet:        t.ToWallet,
		ItemID:          t.ItemID,
		Amount:          t.Amount,
		Token:           t.Token,
		PriceAtSendTime: t.PriceAtSendTime,
		CreatedAt:       t.CreatedAt,
	}
}

func (r tipRecord) toTip() domain.Tip {
	return domain.Tip{
		TransactionID:   r.TransactionID,
		FromWallet:      r.FromWallet,
		ToWallet:        r.ToWallet,
		ItemID:          r.ItemID,
		Amount:          r.Amount,
		Token:           r.Token,
		PriceAtSendTime: r.PriceAtSendTime,
		CreatedAt:       r.CreatedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Reporter publishes reports keyed by transaction id.
type Reporter struct {
	w   messageWriter
	now func() time.Time
}

// NewWriter builds a synchronous writer; a report that is not acknowledged
// is returned to the caller as an error.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewReporter wraps a writer.
func NewReporter(w messageWriter) *Reporter {
	return &Reporter{w: w, now: time.Now}
}

func (r *Reporter) ReportMissingTip(ctx context.Context, tip domain.Tip, cause error) error {
	rep := Report{
		ID:         uuid.NewString(),
		Tip:        fromTip(tip),
		ReportedAt: r.now().UTC(),
	}
	if cause != nil {
		rep.Cause = cause.Error()
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := r.w.WriteMessages(ctx, kafka.Message{Key: []byte(tip.TransactionID), Value: b, Time: rep.ReportedAt}); err != nil {
		return fmt.Errorf("publishing report: %w", err)
	}
	return nil
}

// LogReporter is used when no broker is configured.
type LogReporter struct{}

func (LogReporter) ReportMissingTip(_ context.Context, tip domain.Tip, cause error) error {
	slog.Error("tip: transfer confirmed but record missing",
		"tx", tip.TransactionID, "item_id", tip.ItemID, "amount", tip.Amount.String(), "token", tip.Token, "error", cause)
	return nil
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewReader builds a consumer-group reader for the sweep.
func NewReader(brokers []string, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  2 * time.Second,
	})
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Recorded    int // tip written
	Unconfirmed int // transfer never landed, nothing to record
	Malformed   int // undecodable payloads, committed and skipped
}

// Sweep drains reports until no report arrives for idle, or ctx ends. A
// zero idle waits for ctx only. For each report it checks the transfer is
// confirmed and re-issues CreateTip, which is idempotent on the transaction id.
// A report is committed only once handled; wallet or ledger failures stop the
// sweep so the report is retried on the next run.
func Sweep(ctx context.Context, r messageReader, wallet app.WalletService, tips app.TipService, idle time.Duration) (SweepResult, error) {
	var res SweepResult
	for {
		m, err := fetch(ctx, r, idle)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
				return res, nil
			}
			return res, fmt.Errorf("fetching report: %w", err)
		}

		var rep Report
		if err := json.Unmarshal(m.Value, &rep); err != nil || rep.Tip.TransactionID == "" {
			slog.Warn("reconcile: malformed report", "offset", m.Offset, "error", err)
			res.Malformed++
			if err := r.CommitMessages(ctx, m); err != nil {
				return res, fmt.Errorf("committing report: %w", err)
			}
			continue
		}

		tx := rep.Tip.TransactionID
		ok, err := wallet.Confirmed(ctx, tx)
		switch {
		case errors.Is(err, domain.ErrTransferRejected):
			ok = false
		case err != nil:
			return res, fmt.Errorf("checking %s: %w", tx, err)
		}

		if ok {
			if err := tips.CreateTip(ctx, rep.Tip.toTip()); err != nil {
				return res, fmt.Errorf("recording %s: %w", tx, err)
			}
			slog.Info("reconcile: tip recorded", "tx", tx, "item_id", rep.Tip.ItemID)
			res.Recorded++
		} else {
			slog.Warn("reconcile: transfer not confirmed", "tx", tx)
			res.Unconfirmed++
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			return res, fmt.Errorf("committing report: %w", err)
		}
	}
}

func fetch(ctx context.Context, r messageReader, idle time.Duration) (kafka.Message, error) {
	if idle <= 0 {
		return r.FetchMessage(ctx)
	}
	fctx, cancel := context.WithTimeout(ctx, idle)
	defer cancel()
	return r.FetchMessage(fctx)
}
