package feed

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

const fetchTimeout = 20 * time.Second

// PageLoadedMsg is sent when a page fetch completes.
type PageLoadedMsg struct {
	Key   string
	Seq   int
	First bool
	Page  domain.Page
}

// PageErrorMsg is sent when a page fetch fails.
type PageErrorMsg struct {
	Key   string
	Seq   int
	First bool
	Err   error
}

// DeleteItemMsg asks the root to delete an own meme.
type DeleteItemMsg struct {
	ID string
}

// DeleteOptimisticMsg hides a meme before the backend confirms.
type DeleteOptimisticMsg struct {
	ID string
}

// DeleteResultMsg is sent after a delete attempt. The meme stays hidden either way.
type DeleteResultMsg struct {
	ID  string
	Err error
}

// UpvoteItemMsg asks the root to upvote a meme.
type UpvoteItemMsg struct {
	ID string
}

// UpvoteResultMsg is sent after an upvote attempt.
type UpvoteResultMsg struct {
	ID  string
	Err error
}

// TipItemMsg asks the root to open the tip view for a meme.
type TipItemMsg struct {
	Item domain.Item
}

// RefreshMsg asks the feed to refetch page one, e.g. after the identity changed.
type RefreshMsg struct{}

// ModeChangedMsg is sent when the user picks another browse tab.
type ModeChangedMsg struct {
	Mode domain.Mode
}

// Options configures a feed model.
type Options struct {
	Feed   app.FeedService
	Search app.SearchService
	Live   app.LiveService
	Store  app.LocalStore // per-item voted flags; may be nil
	Post   func(tea.Msg)  // delivers live callbacks into the event loop
	Mode   domain.Mode
	Now    func() time.Time
}

// Model holds the state for the feed view.
type Model struct {
	feed   app.FeedService
	search app.SearchService
	store  app.LocalStore

	engine      *Engine
	tracker     *Tracker
	votes       *VoteListener
	searchVotes *VoteListener
	newItems    *NewItemListener

	entries []domain.Entry
	spans   []rowSpan
	cursor  int // index into entries; never a separator
	offset  int // first rendered row

	width  int
	height int

	input         textinput.Model
	inputFocused  bool
	confirmDelete bool
	showHints     bool
	notice        string

	spinner spinner.Model
	keys    common.KeyMap
	now     func() time.Time
}

// New creates a feed model with injected dependencies.
func New(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6600"))

	ti := textinput.New()
	ti.Placeholder = "search memes"
	ti.Prompt = "/ "
	ti.CharLimit = 100

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	post := opts.Post
	if post == nil {
		post = func(tea.Msg) {}
	}

	engine := NewEngine(opts.Mode)
	engine.now = now
	votes := NewVoteListener(scopeFeed, opts.Live, post)
	votes.now = now
	searchVotes := NewVoteListener(scopeSearch, opts.Live, post)
	searchVotes.now = now
	newItems := NewNewItemListener(opts.Live, post)
	newItems.now = now

	return Model{
		feed:        opts.Feed,
		search:      opts.Search,
		store:       opts.Store,
		engine:      engine,
		tracker:     NewTracker(),
		votes:       votes,
		searchVotes: searchVotes,
		newItems:    newItems,
		input:       ti,
		spinner:     s,
		keys:        common.DefaultKeyMap(),
		now:         now,
	}
}
