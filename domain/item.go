package domain

import (
	"fmt"
	"time"
)

// FileType is the media kind of a meme.
type FileType string

const (
	FileImage FileType = "image"
	FileVideo FileType = "video"
	FileGIF   FileType = "gif"
)

// ParseFileType maps a backend file type to a known kind, defaulting to image.
func ParseFileType(s string) FileType {
	switch FileType(s) {
	case FileVideo, FileGIF:
		return FileType(s)
	default:
		return FileImage
	}
}

// Owner is the author of a meme.
type Owner struct {
	Username string
	Wallet   string
}

// Item represents a single meme post in the feed.
type Item struct {
	ID          string // Server-assigned document id
	SecondaryID string // Client-assigned logical id, may differ from ID
	ImageURL    string
	FileType    FileType
	Owner       Owner
	Upvotes     int
	CreatedAt   time.Time
	Tag         string
	IsOwn       bool // True if this meme belongs to the signed-in user
}

// EffectiveID is the identity used for de-duplication: SecondaryID when present, else ID.
func (it Item) EffectiveID() string {
	if it.SecondaryID != "" {
		return it.SecondaryID
	}
	return it.ID
}

// WeekSeparator is a synthetic marker between items of different week buckets.
type WeekSeparator struct {
	WeekDiff int
}

// ID derives the separator's stable key from its week bucket.
func (s WeekSeparator) ID() string {
	return fmt.Sprintf("week-%d", s.WeekDiff)
}

// Entry is one row of a feed sequence: either an Item or a WeekSeparator.
// Item is a pointer so unchanged rows keep their identity across merges.
type Entry struct {
	Item      *Item
	Separator *WeekSeparator
}

// ItemEntry wraps an item as a feed row.
func ItemEntry(it Item) Entry {
	return Entry{Item: &it}
}

// SeparatorEntry wraps a week separator as a feed row.
func SeparatorEntry(weekDiff int) Entry {
	return Entry{Separator: &WeekSeparator{WeekDiff: weekDiff}}
}

// IsSeparator reports whether the entry is a week separator.
func (e Entry) IsSeparator() bool {
	return e.Separator != nil
}

// Key returns the row key: the separator id, or the item's effective id.
func (e Entry) Key() string {
	if e.Separator != nil {
		return e.Separator.ID()
	}
	if e.Item == nil {
		return ""
	}
	return e.Item.EffectiveID()
}

// Page is one response from a paginated fetch. NextCursor is opaque.
type Page struct {
	Entries    []Entry
	NextCursor string
	HasMore    bool
	Total      int
}

// VoteUpdate is the latest observed vote count for one item.
type VoteUpdate struct {
	ItemID     string
	Upvotes    int
	ObservedAt int64 // epoch millis
}
