// Package sequence models the ordered list of items the viewer walks
// through one at a time.
package sequence

import "slices"

// ItemID identifies one element of the sequence. For file-backed sequences it
// is the absolute path of the file.
type ItemID string

// Provider is the read side of a sequence.
type Provider interface {
	Count() int
	At(i int) ItemID
	IndexOf(id ItemID) int
}

// List is an in-memory, index-addressable sequence. It is not safe for
// concurrent use; the viewer session owns it.
type List struct {
	items []ItemID
}

// NewList copies ids into a new List.
func NewList(ids []ItemID) *List {
	return &List{items: slices.Clone(ids)}
}

// Count returns the number of items.
func (l *List) Count() int {
	return len(l.items)
}

// At returns the item at i, or "" when i is out of range.
func (l *List) At(i int) ItemID {
	if i < 0 || i >= len(l.items) {
		return ""
	}
	return l.items[i]
}

// IndexOf returns the position of id, or -1. Sequences are bounded by a
// single browsing session, so a linear scan is fine.
func (l *List) IndexOf(id ItemID) int {
	return slices.Index(l.items, id)
}

// Remove deletes id from the list and returns the index it occupied, or -1
// if it was not present.
func (l *List) Remove(id ItemID) int {
	i := l.IndexOf(id)
	if i < 0 {
		return -1
	}
	l.items = slices.Delete(l.items, i, i+1)
	return i
}

// IDs returns a copy of the current items.
func (l *List) IDs() []ItemID {
	return slices.Clone(l.items)
}
