package spotiwise

import "time"

// Item is one entry of a playlist.
type Item struct {
	Track   *Track
	AddedAt time.Time
	AddedBy *User
	IsLocal bool
}

var itemKeys = []string{"track", "added_at", "added_by"}

// Equal compares track, added_at and added_by.
func (i *Item) Equal(o *Item) bool {
	if i == nil || o == nil {
		return i == o
	}
	if (i.Track == nil) != (o.Track == nil) {
		return false
	}
	if i.Track != nil && !i.Track.Equal(o.Track) {
		return false
	}
	return i.AddedAt.Equal(o.AddedAt) && i.AddedBy.Equal(o.AddedBy)
}

func (i *Item) String() string { return repr(i) }

func (i *Item) kindName() string       { return "Item" }
func (i *Item) displayKeys() []string { return itemKeys }

func (i *Item) displayValue(key string) interface{} {
	switch key {
	case "track":
		return i.Track
	case "added_at":
		return i.AddedAt
	case "added_by":
		return i.AddedBy
	}
	return nil
}
