package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// secondsCutoff separates epoch seconds from epoch millis in raw numbers.
const secondsCutoff = 1e10

const week = 7 * 24 * time.Hour

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeMillis converts any supported timestamp representation to epoch
// milliseconds. Unsupported or malformed input yields 0; it never panics.
func NormalizeMillis(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case interface{ ToMillis() int64 }:
		return t.ToMillis()
	case *timestamppb.Timestamp:
		if t == nil {
			return 0
		}
		return t.GetSeconds() * 1000
	case interface{ GetSeconds() int64 }:
		return t.GetSeconds() * 1000
	case map[string]any:
		return mapSeconds(t)
	case interface{ ToDate() time.Time }:
		return timeMillis(t.ToDate())
	case time.Time:
		return timeMillis(t)
	case *time.Time:
		if t == nil {
			return 0
		}
		return timeMillis(*t)
	case string:
		return parseISO(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return numberMillis(f)
	case int:
		return numberMillis(float64(t))
	case int32:
		return numberMillis(float64(t))
	case int64:
		return numberMillis(float64(t))
	case uint32:
		return numberMillis(float64(t))
	case uint64:
		return numberMillis(float64(t))
	case float32:
		return numberMillis(float64(t))
	case float64:
		return numberMillis(t)
	}
	return 0
}

// NormalizeTime is NormalizeMillis as a time.Time; the zero time for 0.
func NormalizeTime(v any) time.Time {
	ms := NormalizeMillis(v)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func mapSeconds(m map[string]any) int64 {
	for _, k := range []string{"seconds", "_seconds"} {
		raw, ok := m[k]
		if !ok {
			continue
		}
		switch s := raw.(type) {
		case float64:
			return int64(s) * 1000
		case int64:
			return s * 1000
		case int:
			return int64(s) * 1000
		case json.Number:
			n, err := s.Int64()
			if err != nil {
				return 0
			}
			return n * 1000
		}
		return 0
	}
	return 0
}

func timeMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func parseISO(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func numberMillis(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < secondsCutoff {
		return int64(f * 1000)
	}
	return int64(f)
}

// FormatRelative renders the age of v relative to now, e.g. "3 hrs ago".
func FormatRelative(v any, now time.Time) string {
	ms := NormalizeMillis(v)
	if ms == 0 {
		return "Unknown time"
	}
	secs := (now.UnixMilli() - ms) / 1000
	const (
		minute = 60
		hour   = 60 * minute
		day    = 24 * hour
		wk     = 7 * day
		month  = 30 * day
		year   = 365 * day
	)
	switch {
	case secs < minute:
		return "just now"
	case secs < hour:
		return ago(secs/minute, "min")
	case secs < day:
		return ago(secs/hour, "hr")
	case secs < wk:
		return ago(secs/day, "day")
	case secs < month:
		return ago(secs/wk, "wk")
	case secs < year:
		return ago(secs/month, "mon")
	default:
		return ago(secs/year, "yr")
	}
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// WeekDiff is the number of whole weeks between createdAt and now, never negative.
func WeekDiff(createdAt, now time.Time) int {
	if createdAt.IsZero() {
		return 0
	}
	d := now.Sub(createdAt)
	if d < 0 {
		return 0
	}
	return int(d / week)
}
