package common

import "strconv"

// RollingWindow is an append-only, bounded collection that retains the most
// recent items. It holds between size and 2*size items; when the upper bound
// is reached, the oldest size items are dropped in one step. Items keep a
// global sequence number, so callers can detect when an index has rolled out
// of the window.
type RollingWindow struct {
	name      string
	size      int
	lastIndex int
	items     []interface{}
}

// NewRollingWindow creates a RollingWindow that retains at least size items.
// The name is used in error messages.
func NewRollingWindow(name string, size int) *RollingWindow {
	return &RollingWindow{
		name:      name,
		size:      size,
		items:     make([]interface{}, 0, 2*size),
		lastIndex: -1,
	}
}

// Add appends an item and returns its sequence number.
func (r *RollingWindow) Add(item interface{}) int {
	if len(r.items) >= 2*r.size {
		r.roll()
	}
	r.items = append(r.items, item)
	r.lastIndex++
	return r.lastIndex
}

// All returns the retained items, oldest first.
func (r *RollingWindow) All() []interface{} {
	res := make([]interface{}, len(r.items))
	copy(res, r.items)
	return res
}

// Last returns the most recently added item.
func (r *RollingWindow) Last() (interface{}, error) {
	if len(r.items) == 0 {
		return nil, NewStoreErr(r.name, Empty, "")
	}
	return r.items[len(r.items)-1], nil
}

// LastIndex returns the sequence number of the most recently added item, or
// -1 when nothing was ever added.
func (r *RollingWindow) LastIndex() int {
	return r.lastIndex
}

// GetItem returns the item with the given sequence number, if it is still
// retained.
func (r *RollingWindow) GetItem(index int) (interface{}, error) {
	items := len(r.items)
	oldestCached := r.lastIndex - items + 1
	if index < oldestCached {
		return nil, NewStoreErr(r.name, TooLate, strconv.Itoa(index))
	}
	findex := index - oldestCached
	if findex >= items {
		return nil, NewStoreErr(r.name, KeyNotFound, strconv.Itoa(index))
	}
	return r.items[findex], nil
}

func (r *RollingWindow) roll() {
	newList := make([]interface{}, 0, 2*r.size)
	newList = append(newList, r.items[r.size:]...)
	r.items = newList
}
