package sidebar

import (
	"slices"
	"sync"

	"github.com/dalemusser/hrdesk/internal/app/system/counts"
)

// Decorator caches the decorated tree for one descriptor. The cache key is
// the values of only the fields the descriptor uses, so a change to an
// unrelated count does not rebuild it.
type Decorator struct {
	items  []Item
	fields []counts.Field

	mu   sync.Mutex
	key  []int
	last []Item
}

// NewDecorator binds a Decorator to items.
func NewDecorator(items []Item) *Decorator {
	return &Decorator{items: items, fields: FieldsUsed(items)}
}

// Items returns the decorated tree for c. Callers must treat the result as
// read-only; it may be shared with other callers.
func (d *Decorator) Items(c counts.Counts) []Item {
	key := make([]int, len(d.fields))
	for i, f := range d.fields {
		key[i] = c.Get(f)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last != nil && slices.Equal(d.key, key) {
		return d.last
	}
	d.key = key
	d.last = Decorate(d.items, c)
	return d.last
}
