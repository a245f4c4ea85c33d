package domain

import "strings"

// Mode selects which feed the user is looking at.
type Mode int

const (
	ModeLatest Mode = iota
	ModeHot
	ModeRandom
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeHot:
		return "hot"
	case ModeRandom:
		return "random"
	case ModeSearch:
		return "search"
	default:
		return "latest"
	}
}

// ParseMode parses a persisted selector value. Search is never restored.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hot":
		return ModeHot
	case "random":
		return ModeRandom
	default:
		return ModeLatest
	}
}
