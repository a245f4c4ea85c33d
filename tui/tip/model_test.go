package tip

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

func sendAmount(m Model, amount string) (Model, []tea.Msg) {
	m.amount.SetValue(amount)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return pump(m, cmd)
}

func TestSend_Success(t *testing.T) {
	f := newFixture()
	m, msgs := sendAmount(f.model(), "1.5")

	if m.state != sendDone {
		t.Fatalf("expected sendDone, got %v", m.state)
	}
	if len(f.tips.created) != 1 {
		t.Fatalf("expected one tip record, got %d", len(f.tips.created))
	}
	got := f.tips.created[0]
	if got.TransactionID != "5igSig" || got.FromWallet != "AliceWallet111" || got.ToWallet != "BobWallet999" || got.ItemID != "m1" {
		t.Fatalf("unexpected tip record: %+v", got)
	}
	if !got.Amount.Equal(usd("1.5")) || !got.PriceAtSendTime.Equal(usd("1")) {
		t.Fatalf("unexpected amount or price: %s @ %s", got.Amount, got.PriceAtSendTime)
	}
	if errs := noticeErrors(msgs); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSend_RecordFailureNeverRetriesTransfer(t *testing.T) {
	f := newFixture()
	f.tips.err = errBoom
	m, msgs := sendAmount(f.model(), "2")

	if f.wallet.calls != 1 || f.tips.calls != 1 {
		t.Fatalf("expected one transfer and one write, got %d and %d", f.wallet.calls, f.tips.calls)
	}
	if errs := noticeErrors(msgs); len(errs) != 1 || !errors.Is(errs[0], errBoom) {
		t.Fatalf("expected exactly one user-visible error, got %v", errs)
	}
	if len(f.reporter.reports) != 1 || f.reporter.reports[0].TransactionID != "5igSig" {
		t.Fatalf("expected an inconsistency report for the transfer, got %+v", f.reporter.reports)
	}
	if m.state != sendRecordFailed || m.Busy() {
		t.Fatalf("expected terminal sendRecordFailed, got %v", m.state)
	}
}

func TestSend_TransferFailureRecordsNothing(t *testing.T) {
	f := newFixture()
	f.wallet.err = domain.ErrTransferRejected
	m := f.model()
	m, _ = m.Update(TipsSnapshotMsg{View: m.id, Tips: tips("10")})

	m, msgs := sendAmount(m, "2")

	if f.tips.calls != 0 || len(f.reporter.reports) != 0 {
		t.Fatalf("no record or report may follow a failed transfer")
	}
	if errs := noticeErrors(msgs); len(errs) != 1 || !errors.Is(errs[0], domain.ErrTransferRejected) {
		t.Fatalf("expected one transfer error, got %v", errs)
	}
	if !m.Earnings().Displayed().Equal(usd("10")) || m.Earnings().Revealing() {
		t.Fatalf("earnings must not change, got %s", m.Earnings().Displayed())
	}
	if m.state != sendTransferFailed {
		t.Fatalf("expected sendTransferFailed, got %v", m.state)
	}
}

func TestSend_WithoutIdentityRequestsSignIn(t *testing.T) {
	f := newFixture()
	f.session = stubSession{}
	_, msgs := sendAmount(f.model(), "1")

	if f.wallet.calls != 0 {
		t.Fatalf("transfer must not start without an identity")
	}
	if len(msgs) != 1 {
		t.Fatalf("expected a single sign-in request, got %#v", msgs)
	}
	if _, ok := msgs[0].(common.SignInRequestedMsg); !ok {
		t.Fatalf("expected SignInRequestedMsg, got %#v", msgs[0])
	}
}

func TestSend_GuestWithoutWalletRequestsSignIn(t *testing.T) {
	f := newFixture()
	f.session = stubSession{id: domain.Identity{Username: "guest", Guest: true}, ok: true}
	_, msgs := sendAmount(f.model(), "1")
	if f.wallet.calls != 0 || len(msgs) != 1 {
		t.Fatalf("expected sign-in request and no transfer, got %#v", msgs)
	}
}

func TestSend_ValidatesAmount(t *testing.T) {
	for _, amount := range []string{"", "0", "-1", "abc"} {
		f := newFixture()
		m, _ := sendAmount(f.model(), amount)
		if !errors.Is(m.err, domain.ErrInvalidAmount) {
			t.Fatalf("amount %q: expected ErrInvalidAmount, got %v", amount, m.err)
		}
		if f.wallet.calls != 0 {
			t.Fatalf("amount %q: transfer must not start", amount)
		}
	}
}

func TestSend_RejectsSelfTip(t *testing.T) {
	f := newFixture()
	f.session = stubSession{id: domain.Identity{Username: "bob", Wallet: "BobWallet999"}, ok: true}
	m, _ := sendAmount(f.model(), "1")
	if !errors.Is(m.err, errSelfTip) || f.wallet.calls != 0 {
		t.Fatalf("expected self-tip rejection, got %v", m.err)
	}
}

func TestSend_IgnoresEnterWhileBusy(t *testing.T) {
	f := newFixture()
	m := f.model()
	m.amount.SetValue("1")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Busy() {
		t.Fatalf("expected a transfer in flight")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("second enter must not start another transfer")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(ClosedMsg); ok {
			t.Fatalf("view must not close while a tip is in flight")
		}
	}
}

func TestReveal_ShowsDeltaThenCommits(t *testing.T) {
	f := newFixture()
	m := f.model()
	if len(f.live.tipCbs) != 1 {
		t.Fatalf("expected one tip subscription, got %d", len(f.live.tipCbs))
	}

	m, _ = m.Update(TipsSnapshotMsg{View: m.id, Tips: tips("10")})
	m, cmd := m.Update(TipsSnapshotMsg{View: m.id, Tips: tips("10", "3.5")})
	if cmd == nil {
		t.Fatalf("expected a reveal timer")
	}

	view := m.View()
	if !strings.Contains(view, "$10.00") || !strings.Contains(view, "+$3.50") {
		t.Fatalf("expected $10.00 with +$3.50 during the window:\n%s", view)
	}
	if strings.Contains(view, "$13.50") {
		t.Fatalf("new total must not show before the window elapses:\n%s", view)
	}

	m, _ = m.Update(revealMsg{View: m.id, Seq: m.Earnings().Seq()})
	view = m.View()
	if !strings.Contains(view, "$13.50") || strings.Contains(view, "+$3.50") {
		t.Fatalf("expected $13.50 after the window:\n%s", view)
	}
}

func TestSnapshot_FromOtherViewIgnored(t *testing.T) {
	f := newFixture()
	m := f.model()
	m, _ = m.Update(TipsSnapshotMsg{View: m.id + 100, Tips: tips("10")})
	if m.Earnings().Loaded() {
		t.Fatalf("snapshot for another view must be dropped")
	}
}

func TestPriceRecheckRevealsIncrease(t *testing.T) {
	f := newFixture()
	m := f.model()
	m, _ = m.Update(TipsSnapshotMsg{View: m.id, Tips: tips("10")})

	f.prices.set("SOL", "1.5")
	m, _ = m.Update(priceTickMsg{View: m.id})
	if !m.Earnings().Delta().Equal(usd("5")) {
		t.Fatalf("expected +$5 after price rise, got %s", m.Earnings().Delta())
	}
}

func TestPricesKeyRefreshes(t *testing.T) {
	f := newFixture()
	m := f.model()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	pump(m, cmd)
	if f.prices.refreshes != 1 {
		t.Fatalf("expected one manual refresh, got %d", f.prices.refreshes)
	}
	if m.amount.Value() != "" {
		t.Fatalf("p must not reach the amount input")
	}
}

func TestCloseCancelsStream(t *testing.T) {
	f := newFixture()
	m := f.model()
	m.Close()
	if f.live.cancelled != 1 {
		t.Fatalf("expected the tip stream to be cancelled")
	}
}
