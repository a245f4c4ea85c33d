package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/infra/localstore"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
	"github.com/CrestNiraj12/terminalmeme/tui/feed"
	"github.com/CrestNiraj12/terminalmeme/tui/signin"
	"github.com/CrestNiraj12/terminalmeme/tui/tip"
)

const actionTimeout = 15 * time.Second

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Feed     app.FeedService
	Search   app.SearchService
	Items    app.ItemService
	Live     app.LiveService
	Session  app.SessionService
	Wallet   app.WalletService
	Tips     app.TipService
	Prices   app.PriceService
	Reporter app.InconsistencyReporter
	Store    app.LocalStore
	Inbox    *common.Inbox
	Token    string
	Preview  bool
	Now      func() time.Time
}

type activeView int

const (
	feedView activeView = iota
	tipView
	signinView
)

// App is the root Bubble Tea model. It routes between sub-views.
type App struct {
	deps   Deps
	active activeView

	feed    feed.Model
	tip     tip.Model
	tipOpen bool
	signin  signin.Model
	back    activeView // view to return to when sign-in closes

	keys      common.KeyMap
	status    string // Transient status message (e.g. "Tip recorded")
	statusErr bool
	width     int
	height    int
}

// NewApp creates the root model with all dependencies wired. The last
// selected feed tab is restored from the local store.
func NewApp(deps Deps) App {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	mode := domain.ModeLatest
	if s, ok := deps.Store.GetString(localstore.KeyFeedMode); ok {
		mode = domain.ParseMode(s)
	}
	return App{
		deps:   deps,
		active: feedView,
		feed: feed.New(feed.Options{
			Feed:   deps.Feed,
			Search: deps.Search,
			Live:   deps.Live,
			Store:  deps.Store,
			Post:   deps.Inbox.Post,
			Mode:   mode,
			Now:    deps.Now,
		}),
		keys: common.DefaultKeyMap(),
	}
}

// Init starts the feed and the inbox drain.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.feed.Init(),
		a.deps.Inbox.Wait(),
	)
}

// Update handles messages and routes to the active sub-model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case common.InboxMsg:
		next, cmd := a.Update(msg.Msg)
		return next, tea.Batch(cmd, a.deps.Inbox.Wait())

	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a.broadcast(msg)

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			a.shutdown()
			return a, tea.Quit
		}
		if a.active == feedView && !a.feed.CapturingInput() {
			switch {
			case key.Matches(msg, a.keys.Quit):
				a.shutdown()
				return a, tea.Quit
			case key.Matches(msg, a.keys.SignIn):
				return a.openSignIn("Sign in as a guest. Add a wallet to send tips.")
			}
		}
		a.status = ""
		return a.routeKey(msg)

	case common.NoticeMsg:
		a.setNotice(msg)
		return a, nil

	case common.SignInRequestedMsg:
		return a.openSignIn(msg.Reason)

	case signin.DoneMsg:
		if msg.Err != nil {
			var cmd tea.Cmd
			a.signin, cmd = a.signin.Update(msg)
			return a, cmd
		}
		a.active = a.back
		if !msg.Cancelled {
			a.setNotice(common.NoticeMsg{Text: "Signed in as " + msg.Identity.DisplayName()})
			// Ownership flags depend on the identity.
			var cmd tea.Cmd
			a.feed, cmd = a.feed.Update(feed.RefreshMsg{})
			return a, cmd
		}
		return a, nil

	case feed.TipItemMsg:
		return a.openTip(msg.Item)

	case tip.ClosedMsg:
		a.closeTip()
		return a, nil

	case feed.ModeChangedMsg:
		if err := a.deps.Store.SetString(localstore.KeyFeedMode, msg.Mode.String()); err != nil {
			slog.Warn("app: saving feed mode failed", "mode", msg.Mode.String(), "error", err)
		}
		return a, nil

	case feed.DeleteItemMsg:
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(feed.DeleteOptimisticMsg{ID: msg.ID})
		return a, tea.Batch(cmd, a.deleteCmd(msg.ID))

	case feed.DeleteResultMsg:
		a.feed, _ = a.feed.Update(msg)
		if msg.Err != nil {
			a.setNotice(common.NoticeMsg{Text: "Delete failed", Err: msg.Err})
		} else {
			a.setNotice(common.NoticeMsg{Text: "Meme deleted."})
		}
		return a, nil

	case feed.UpvoteItemMsg:
		return a.upvote(msg.ID)

	case feed.UpvoteResultMsg:
		if msg.Err != nil {
			if err := a.deps.Store.Delete(localstore.VotedKey(msg.ID)); err != nil {
				slog.Warn("app: clearing vote flag failed", "item_id", msg.ID, "error", err)
			}
			a.setNotice(common.NoticeMsg{Text: "Upvote failed", Err: msg.Err})
		}
		return a, nil
	}

	return a.broadcast(msg)
}

// broadcast delivers a non-key message to every open sub-model, so timers
// and fetches owned by a hidden view still complete.
func (a App) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.feed, cmd = a.feed.Update(msg)
	cmds = append(cmds, cmd)
	if a.tipOpen {
		a.tip, cmd = a.tip.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.active == signinView {
		a.signin, cmd = a.signin.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) routeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.active {
	case feedView:
		a.feed, cmd = a.feed.Update(msg)
	case tipView:
		a.tip, cmd = a.tip.Update(msg)
	case signinView:
		a.signin, cmd = a.signin.Update(msg)
	}
	return a, cmd
}

func (a App) openSignIn(reason string) (tea.Model, tea.Cmd) {
	if a.active != signinView {
		a.back = a.active
	}
	a.active = signinView
	a.signin = signin.New(a.deps.Session, reason)
	return a, a.signin.Init()
}

func (a App) openTip(item domain.Item) (tea.Model, tea.Cmd) {
	if a.tipOpen {
		a.tip.Close()
	}
	a.tip = tip.New(tip.Options{
		Session:  a.deps.Session,
		Wallet:   a.deps.Wallet,
		Tips:     a.deps.Tips,
		Prices:   a.deps.Prices,
		Live:     a.deps.Live,
		Reporter: a.deps.Reporter,
		Post:     a.deps.Inbox.Post,
		Token:    a.deps.Token,
		Now:      a.deps.Now,
		Preview:  a.deps.Preview,
	}, item)
	a.tip, _ = a.tip.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	a.tipOpen = true
	a.active = tipView
	a.status = ""
	return a, a.tip.Init()
}

func (a *App) closeTip() {
	if a.tipOpen {
		a.tip.Close()
	}
	a.tipOpen = false
	a.active = feedView
}

func (a App) upvote(id string) (tea.Model, tea.Cmd) {
	if who, ok := a.deps.Session.Current(); !ok || !who.SignedIn() {
		return a.openSignIn("Sign in to upvote memes.")
	}
	flag := localstore.VotedKey(id)
	if a.deps.Store.GetBool(flag) {
		a.setNotice(common.NoticeMsg{Text: "You already upvoted this meme."})
		return a, nil
	}
	if err := a.deps.Store.SetBool(flag, true); err != nil {
		slog.Warn("app: saving vote flag failed", "item_id", id, "error", err)
	}
	items := a.deps.Items
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return feed.UpvoteResultMsg{ID: id, Err: items.Upvote(ctx, id)}
	}
}

func (a App) deleteCmd(id string) tea.Cmd {
	items := a.deps.Items
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return feed.DeleteResultMsg{ID: id, Err: items.Delete(ctx, id)}
	}
}

func (a *App) setNotice(n common.NoticeMsg) {
	a.statusErr = n.Err != nil
	switch {
	case n.Err == nil:
		a.status = n.Text
	case errors.Is(n.Err, domain.ErrUnauthorized):
		a.status = n.Text + ": session expired, press s to sign in"
	case n.Text == "":
		a.status = "Error: " + n.Err.Error()
	default:
		a.status = n.Text + ": " + n.Err.Error()
	}
}

func (a *App) shutdown() {
	a.feed.Close()
	if a.tipOpen {
		a.tip.Close()
	}
	a.deps.Inbox.Close()
}

// View renders the active sub-model.
func (a App) View() string {
	var s string
	switch a.active {
	case feedView:
		s = a.feed.View()
	case tipView:
		s = a.tip.View()
	case signinView:
		s = a.signin.View()
	}

	if a.status != "" {
		style := common.StatusBarStyle
		if a.statusErr {
			style = common.ErrorStyle
		}
		s += "\n" + style.Render(a.status)
	}
	return s
}
