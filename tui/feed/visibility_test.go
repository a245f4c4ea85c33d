package feed

import (
	"fmt"
	"slices"
	"testing"
)

func TestTracker_ObserveIsIdempotentPerHandle(t *testing.T) {
	tr := NewTracker()
	if !tr.Observe("row-a", "a") {
		t.Fatalf("first observe should register")
	}
	if tr.Observe("row-a", "a") {
		t.Fatalf("second observe of the same handle must be a no-op")
	}
	if tr.Observed() != 1 {
		t.Fatalf("expected 1 registered handle, got %d", tr.Observed())
	}
}

func TestTracker_ThresholdAndInsertionOrder(t *testing.T) {
	tr := NewTracker()
	for _, id := range []string{"a", "b", "c"} {
		tr.Observe(id, id)
	}
	tr.Intersect([]Intersection{{Handle: "c", Ratio: 1}, {Handle: "a", Ratio: 0.5}, {Handle: "b", Ratio: 0.05}})
	if got := tr.Visible(); !slices.Equal(got, []string{"c", "a"}) {
		t.Fatalf("expected [c a], got %v", got)
	}

	tr.Intersect([]Intersection{{Handle: "c", Ratio: 0}, {Handle: "b", Ratio: 0.1}, {Handle: "zzz", Ratio: 1}})
	if got := tr.Visible(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestTracker_PublishesFirstTwelve(t *testing.T) {
	tr := NewTracker()
	var batch []Intersection
	for i := range 20 {
		h := fmt.Sprintf("h%d", i)
		tr.Observe(h, fmt.Sprintf("id%d", i))
		batch = append(batch, Intersection{Handle: h, Ratio: 1})
	}
	tr.Intersect(batch)
	got := tr.Visible()
	if len(got) != visibleLimit || got[0] != "id0" || got[11] != "id11" {
		t.Fatalf("expected first 12 ids in order, got %v", got)
	}
}

func TestTracker_DisableTearsDownAndReenableStartsFresh(t *testing.T) {
	tr := NewTracker()
	tr.Observe("a", "a")
	tr.Intersect([]Intersection{{Handle: "a", Ratio: 1}})

	tr.SetEnabled(false)
	if len(tr.Visible()) != 0 || tr.Observed() != 0 {
		t.Fatalf("disabled tracker must be empty")
	}
	if tr.Observe("a", "a") {
		t.Fatalf("observe while disabled must be ignored")
	}

	tr.SetEnabled(true)
	if len(tr.Visible()) != 0 {
		t.Fatalf("re-enabled tracker must not replay visibility")
	}
	tr.Intersect([]Intersection{{Handle: "a", Ratio: 1}})
	if len(tr.Visible()) != 0 {
		t.Fatalf("unregistered handle must not become visible")
	}
}

func TestTracker_RetainDropsUnmountedRows(t *testing.T) {
	tr := NewTracker()
	tr.Observe("a", "a")
	tr.Observe("b", "b")
	tr.Intersect([]Intersection{{Handle: "a", Ratio: 1}, {Handle: "b", Ratio: 1}})
	tr.Retain(map[string]struct{}{"b": {}})
	if got := tr.Visible(); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("expected [b], got %v", got)
	}
}

func TestMeasure_PreloadMargin(t *testing.T) {
	spans := []rowSpan{
		{Handle: "in", Start: 0, Height: 4},
		{Handle: "preload", Start: 10, Height: 4},  // viewport 0..8, margin reaches 12
		{Handle: "outside", Start: 20, Height: 4},
	}
	got := measure(spans, 0, 8)
	if got[0].Ratio != 1 {
		t.Fatalf("expected fully visible row, got %v", got[0].Ratio)
	}
	if got[1].Ratio != 0.5 {
		t.Fatalf("expected half of the preloaded row, got %v", got[1].Ratio)
	}
	if got[2].Ratio != 0 {
		t.Fatalf("expected row outside the margin to be 0, got %v", got[2].Ratio)
	}
}
