package feed

// Geometry is in terminal rows.
const (
	visibleLimit       = 12   // published VisibleSet size; bounds vote subscriptions
	visibleThreshold   = 0.10 // fraction of a row block that must intersect
	preloadRows        = 4    // rows above and below the viewport counted as visible
	loadMoreRows       = 40   // distance from the bottom that triggers the next page
	itemRows           = 4    // rendered height of one meme box
	separatorRows      = 1
	defaultViewportRow = 24
)

// Intersection reports how much of a registered row block overlaps the
// preload-expanded viewport.
type Intersection struct {
	Handle string
	Ratio  float64
}

// Tracker is the visibility registry. Handles are stable row keys; Observe
// is idempotent per handle, so re-rendering never registers a row twice.
type Tracker struct {
	enabled  bool
	observed map[string]string // handle -> item id
	visible  []string          // handles, in the order they became visible
	isVis    map[string]struct{}
}

// NewTracker returns an enabled tracker with empty state.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.reset()
	t.enabled = true
	return t
}

func (t *Tracker) reset() {
	t.observed = make(map[string]string)
	t.visible = nil
	t.isVis = make(map[string]struct{})
}

// Enabled reports whether the tracker is watching.
func (t *Tracker) Enabled() bool { return t.enabled }

// SetEnabled tears down all state when disabled. Re-enabling starts empty
// and does not replay earlier visibility.
func (t *Tracker) SetEnabled(on bool) {
	if t.enabled == on {
		return
	}
	t.enabled = on
	t.reset()
}

// Observe registers handle for itemID. It reports false when the handle was
// already registered or the tracker is disabled.
func (t *Tracker) Observe(handle, itemID string) bool {
	if !t.enabled || handle == "" {
		return false
	}
	if _, ok := t.observed[handle]; ok {
		return false
	}
	t.observed[handle] = itemID
	return true
}

// Observed reports how many handles are registered.
func (t *Tracker) Observed() int { return len(t.observed) }

// Retain unregisters every handle not in keep, as unmounting a row would.
func (t *Tracker) Retain(keep map[string]struct{}) {
	for h := range t.observed {
		if _, ok := keep[h]; ok {
			continue
		}
		delete(t.observed, h)
		t.drop(h)
	}
}

// Intersect applies one batch. Entries at or above the threshold become
// visible (appended); entries below it are removed. Unregistered handles
// are ignored.
func (t *Tracker) Intersect(batch []Intersection) {
	if !t.enabled {
		return
	}
	for _, e := range batch {
		if _, ok := t.observed[e.Handle]; !ok {
			continue
		}
		_, vis := t.isVis[e.Handle]
		switch {
		case e.Ratio >= visibleThreshold && !vis:
			t.isVis[e.Handle] = struct{}{}
			t.visible = append(t.visible, e.Handle)
		case e.Ratio < visibleThreshold && vis:
			t.drop(e.Handle)
		}
	}
}

func (t *Tracker) drop(handle string) {
	if _, ok := t.isVis[handle]; !ok {
		return
	}
	delete(t.isVis, handle)
	for i, h := range t.visible {
		if h == handle {
			t.visible = append(t.visible[:i], t.visible[i+1:]...)
			return
		}
	}
}

// Visible publishes the first visibleLimit item ids in insertion order.
func (t *Tracker) Visible() []string {
	if !t.enabled {
		return nil
	}
	n := min(len(t.visible), visibleLimit)
	out := make([]string, 0, n)
	for _, h := range t.visible[:n] {
		out = append(out, t.observed[h])
	}
	return out
}

// rowSpan is the vertical extent of one rendered row block.
type rowSpan struct {
	Handle string
	Start  int
	Height int
}

// measure intersects spans with [top-preloadRows, top+height+preloadRows).
func measure(spans []rowSpan, top, height int) []Intersection {
	lo := top - preloadRows
	hi := top + height + preloadRows
	out := make([]Intersection, 0, len(spans))
	for _, s := range spans {
		if s.Height <= 0 {
			continue
		}
		start := max(s.Start, lo)
		end := min(s.Start+s.Height, hi)
		overlap := max(end-start, 0)
		out = append(out, Intersection{Handle: s.Handle, Ratio: float64(overlap) / float64(s.Height)})
	}
	return out
}
