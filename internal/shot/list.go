package shot

import "github.com/google/uuid"

// List is an ordered copy-on-write collection of rendered shots. Updates
// return a new List that shares every untouched element with the original.
// The ID stays the same across updates and changes only when an analysis
// produces a new list.
type List struct {
	id    string
	items []*RenderedShot
}

func NewList(shots []Shot) List {
	items := make([]*RenderedShot, len(shots))
	for i, s := range shots {
		items[i] = &RenderedShot{Shot: s}
	}
	return List{id: uuid.NewString(), items: items}
}

func (l List) ID() string { return l.id }
func (l List) Len() int   { return len(l.items) }

// At returns a copy of the shot at i. Callers must check bounds with Len.
func (l List) At(i int) RenderedShot {
	return *l.items[i]
}

// With returns a list with rs at index i.
func (l List) With(i int, rs RenderedShot) List {
	items := make([]*RenderedShot, len(l.items))
	copy(items, l.items)
	items[i] = &rs
	return List{id: l.id, items: items}
}

func (l List) Shots() []RenderedShot {
	out := make([]RenderedShot, len(l.items))
	for i, item := range l.items {
		out[i] = *item
	}
	return out
}
