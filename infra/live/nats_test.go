package live

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

var _ app.LiveService = (*Service)(nil)

func TestDecodeCreated_SingleAndBatch(t *testing.T) {
	items, err := decodeCreated([]byte(`{"id":"a","secondaryId":" s ","imageUrl":"u","createdAt":"2024-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("single decode failed: %v", err)
	}
	if len(items) != 1 || items[0].SecondaryID != "s" || items[0].CreatedAt.UnixMilli() != 1704067200000 {
		t.Fatalf("unexpected item: %+v", items)
	}

	items, err = decodeCreated([]byte(`[
		{"id":"old","createdAt":1704067200},
		{"id":""},
		{"id":"new","createdAt":{"seconds":1704070800}}
	]`))
	if err != nil {
		t.Fatalf("batch decode failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "new" || items[1].ID != "old" {
		t.Fatalf("expected newest first without empty ids: %+v", items)
	}

	if _, err := decodeCreated([]byte(`{broken`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewerThan(t *testing.T) {
	now := time.Now()
	items := []domain.Item{
		{ID: "a", CreatedAt: now},
		{ID: "b", CreatedAt: now.Add(-time.Hour)},
	}
	got := newerThan(items, now.Add(-time.Minute))
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestSubject_RejectsWildcardsAndDots(t *testing.T) {
	if s, err := subject(subjectVotes, "abc123"); err != nil || s != "memes.votes.abc123" {
		t.Fatalf("unexpected subject %q %v", s, err)
	}
	for _, bad := range []string{"", "a.b", "*", ">", "a b"} {
		if _, err := subject(subjectVotes, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

type snapshots struct {
	got [][]domain.Tip
}

func (s *snapshots) emit(tips []domain.Tip) { s.got = append(s.got, tips) }

func tipTx(tx string, amount int64) domain.Tip {
	return domain.Tip{TransactionID: tx, Amount: decimal.NewFromInt(amount)}
}

func TestTipLedger_DedupesByTransaction(t *testing.T) {
	s := &snapshots{}
	l := newTipLedger(s.emit)
	l.seed([]domain.Tip{tipTx("tx1", 1)})
	l.event(tipTx("tx1", 1))
	l.event(domain.Tip{})
	if len(s.got) != 1 || len(s.got[0]) != 1 {
		t.Fatalf("duplicates and tips without a transaction id must not emit: %v", s.got)
	}

	s.got[0][0].TransactionID = "mutated"
	l.event(tipTx("tx2", 2))
	if len(s.got) != 2 || s.got[1][0].TransactionID != "tx1" {
		t.Fatalf("snapshots must be copies: %v", s.got)
	}
}

func TestTipLedger_EventsBeforeSeedJoinFirstSnapshot(t *testing.T) {
	s := &snapshots{}
	l := newTipLedger(s.emit)
	l.event(tipTx("live", 5))
	if len(s.got) != 0 {
		t.Fatalf("nothing may be emitted before the seed: %v", s.got)
	}

	l.seed([]domain.Tip{tipTx("old1", 1), tipTx("old2", 2), tipTx("live", 5)})
	if len(s.got) != 1 || len(s.got[0]) != 3 {
		t.Fatalf("first snapshot must hold history and the early event: %v", s.got)
	}

	l.event(tipTx("next", 3))
	if len(s.got) != 2 || len(s.got[1]) != 4 {
		t.Fatalf("snapshots must only grow: %v", s.got)
	}
}

func TestTipLedger_SeedFailureStillEmits(t *testing.T) {
	s := &snapshots{}
	l := newTipLedger(s.emit)
	l.event(tipTx("live", 5))
	l.seed(nil)
	if len(s.got) != 1 || len(s.got[0]) != 1 {
		t.Fatalf("an empty seed must release held events: %v", s.got)
	}
}

func TestTipLedger_NothingAfterClose(t *testing.T) {
	s := &snapshots{}
	l := newTipLedger(s.emit)
	l.close()
	l.seed([]domain.Tip{tipTx("old", 1)})
	l.event(tipTx("live", 2))
	if len(s.got) != 0 {
		t.Fatalf("closed ledger emitted %v", s.got)
	}
}

func TestSortNewestFirst_Stable(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	items := []domain.Item{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(time.Minute)},
		{ID: "c", CreatedAt: base},
	}
	sortNewestFirst(items)
	if items[0].ID != "b" || items[1].ID != "a" || items[2].ID != "c" {
		t.Fatalf("expected b, a, c: %+v", items)
	}
}
