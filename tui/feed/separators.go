package feed

import (
	"time"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// withWeekSeparators drops any separators already present and inserts one
// wherever the week bucket changes between adjacent items. Never before the
// first item.
func withWeekSeparators(entries []domain.Entry, now time.Time) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries)+4)
	prev := -1
	for _, e := range entries {
		if e.IsSeparator() || e.Item == nil {
			continue
		}
		wd := domain.WeekDiff(e.Item.CreatedAt, now)
		if prev >= 0 && wd != prev {
			out = append(out, domain.SeparatorEntry(wd))
		}
		prev = wd
		out = append(out, e)
	}
	return out
}

// stripSeparators returns only item entries.
func stripSeparators(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsSeparator() || e.Item == nil {
			continue
		}
		out = append(out, e)
	}
	return out
}
