package feed

import (
	"strings"
	"time"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// chain is the client-side list of pages fetched for one source.
type chain struct {
	pages   []domain.Page
	cursor  string // opaque; only ever what the last page returned
	hasMore bool
	stuck   bool // last page errored or added nothing
	stale   bool // page one must be refetched before the next read
	err     error
}

func (c *chain) entries() []domain.Entry {
	var out []domain.Entry
	for _, p := range c.pages {
		out = append(out, p.Entries...)
	}
	return out
}

func (c *chain) ids() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range c.pages {
		for _, e := range p.Entries {
			if e.Item != nil {
				ids[e.Item.EffectiveID()] = struct{}{}
			}
		}
	}
	return ids
}

// fetchRequest describes one page fetch the model should run.
type fetchRequest struct {
	Key    string
	Mode   domain.Mode
	Query  string
	Cursor string
	Seq    int
	First  bool
}

// Engine owns the page chains, the selector, the search query and the
// deleted set. It holds no live subscriptions.
type Engine struct {
	selected domain.Mode // Latest, Hot or Random; kept while searching
	query    string
	chains   map[string]*chain
	deleted  map[string]struct{}

	inFlight bool
	reqSeq   int
	now      func() time.Time
}

// NewEngine starts on mode, which must be a browse mode.
func NewEngine(mode domain.Mode) *Engine {
	if mode == domain.ModeSearch {
		mode = domain.ModeLatest
	}
	return &Engine{
		selected: mode,
		chains:   make(map[string]*chain),
		deleted:  make(map[string]struct{}),
		now:      time.Now,
	}
}

// Mode is the effective mode: Search while a query is set, else the selector.
func (e *Engine) Mode() domain.Mode {
	if e.Searching() {
		return domain.ModeSearch
	}
	return e.selected
}

// Selected is the browse selector, preserved underneath a search.
func (e *Engine) Selected() domain.Mode { return e.selected }

// Searching reports whether a query is active.
func (e *Engine) Searching() bool { return e.query != "" }

// Query is the active search query.
func (e *Engine) Query() string { return e.query }

func chainKey(mode domain.Mode, query string) string {
	if mode == domain.ModeSearch {
		return "search:" + query
	}
	return mode.String()
}

func (e *Engine) activeKey() string {
	return chainKey(e.Mode(), e.query)
}

func (e *Engine) active() *chain {
	return e.chains[e.activeKey()]
}

// Select handles a tab press. changed reports a new selector; reshuffle
// reports Random pressed while already on Random, which drops that chain.
func (e *Engine) Select(mode domain.Mode) (changed, reshuffle bool) {
	if mode == domain.ModeSearch {
		return false, false
	}
	if mode == e.selected {
		if mode == domain.ModeRandom {
			delete(e.chains, chainKey(domain.ModeRandom, ""))
			return false, true
		}
		return false, false
	}
	e.selected = mode
	return true, false
}

// SetQuery sets the search query and reports whether it changed.
func (e *Engine) SetQuery(q string) bool {
	q = strings.TrimSpace(q)
	if q == e.query {
		return false
	}
	e.query = q
	for k := range e.chains {
		if strings.HasPrefix(k, "search:") && k != e.activeKey() {
			delete(e.chains, k)
		}
	}
	return true
}

// MarkStale flags page one of every browse chain for refetch.
func (e *Engine) MarkStale() {
	for k, c := range e.chains {
		if !strings.HasPrefix(k, "search:") {
			c.stale = true
		}
	}
}

// NeedsFirstPage reports whether the active chain is missing or stale.
func (e *Engine) NeedsFirstPage() bool {
	c := e.active()
	return c == nil || c.stale
}

// FirstPage starts a page-one fetch for the active source. It supersedes
// any fetch in flight.
func (e *Engine) FirstPage() fetchRequest {
	e.reqSeq++
	e.inFlight = true
	return fetchRequest{
		Key:   e.activeKey(),
		Mode:  e.Mode(),
		Query: e.query,
		Seq:   e.reqSeq,
		First: true,
	}
}

// CanLoadMore reports whether LoadMore would issue a fetch.
func (e *Engine) CanLoadMore() bool {
	if e.inFlight {
		return false
	}
	c := e.active()
	return c != nil && !c.stale && c.hasMore && !c.stuck && c.cursor != ""
}

// LoadMore starts a next-page fetch. ok is false when a fetch is in flight,
// the source has no more pages, or the chain is stuck.
func (e *Engine) LoadMore() (fetchRequest, bool) {
	if !e.CanLoadMore() {
		return fetchRequest{}, false
	}
	c := e.active()
	e.reqSeq++
	e.inFlight = true
	return fetchRequest{
		Key:    e.activeKey(),
		Mode:   e.Mode(),
		Query:  e.query,
		Cursor: c.cursor,
		Seq:    e.reqSeq,
	}, true
}

// Loading reports whether a fetch is in flight.
func (e *Engine) Loading() bool { return e.inFlight }

// ApplyPage stores a fetched page. Responses for a superseded request or a
// source that is no longer active are dropped and ApplyPage reports false.
func (e *Engine) ApplyPage(key string, seq int, first bool, page domain.Page) bool {
	if seq != e.reqSeq {
		return false
	}
	e.inFlight = false
	if key != e.activeKey() {
		return false
	}

	c := e.chains[key]
	if first || c == nil {
		c = &chain{}
		e.chains[key] = c
		c.pages = []domain.Page{page}
	} else {
		known := c.ids()
		added := 0
		for _, en := range page.Entries {
			if en.Item == nil {
				continue
			}
			if _, ok := known[en.Item.EffectiveID()]; !ok {
				added++
			}
		}
		c.pages = append(c.pages, page)
		c.stuck = added == 0
	}
	c.cursor = page.NextCursor
	c.hasMore = page.HasMore && page.NextCursor != ""
	c.err = nil
	return true
}

// FailPage records a failed fetch. The chain stops loading more until a
// refresh; a failed first page keeps whatever was shown before.
func (e *Engine) FailPage(key string, seq int, err error) bool {
	if seq != e.reqSeq {
		return false
	}
	e.inFlight = false
	if key != e.activeKey() {
		return false
	}
	c := e.chains[key]
	if c == nil {
		c = &chain{}
		e.chains[key] = c
	}
	c.stuck = true
	c.err = err
	return true
}

// Err is the last fetch error of the active chain.
func (e *Engine) Err() error {
	if c := e.active(); c != nil {
		return c.err
	}
	return nil
}

// HasMore reports whether the active chain has further pages.
func (e *Engine) HasMore() bool {
	c := e.active()
	return c != nil && c.hasMore && !c.stuck
}

// Loaded reports whether the active chain has at least one page.
func (e *Engine) Loaded() bool {
	c := e.active()
	return c != nil && len(c.pages) > 0
}

// Backbone is the flattened active chain. Latest gets week separators;
// other modes never carry them.
func (e *Engine) Backbone() []domain.Entry {
	c := e.active()
	if c == nil {
		return nil
	}
	entries := c.entries()
	if e.Mode() == domain.ModeLatest {
		return withWeekSeparators(entries, e.now())
	}
	return stripSeparators(entries)
}

// Entries runs the merge for the active mode.
func (e *Engine) Entries(newItems []domain.Item, votes map[string]domain.VoteUpdate) []domain.Entry {
	if e.Searching() {
		return mergeSearch(e.Backbone(), e.deleted, votes)
	}
	return mergeFeed(e.Backbone(), newItems, e.deleted, votes)
}

// MarkDeleted adds id to the deleted set. Entries are never removed.
func (e *Engine) MarkDeleted(id string) {
	if id != "" {
		e.deleted[id] = struct{}{}
	}
}

// IsDeleted reports whether id was deleted this session.
func (e *Engine) IsDeleted(id string) bool {
	_, ok := e.deleted[id]
	return ok
}
