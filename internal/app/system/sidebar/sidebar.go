// Package sidebar builds the role-specific navigation tree and decorates it
// with badge counts.
package sidebar

import (
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
)

// Item is one navigation entry. CountField binds it to a badge; Badge is only
// set on decorated copies and only when the bound count is positive.
type Item struct {
	Key        string       `json:"key"`
	Label      string       `json:"label"`
	Path       string       `json:"path,omitempty"`
	Icon       string       `json:"icon,omitempty"`
	CountField counts.Field `json:"countField,omitempty"`
	Badge      *int         `json:"badge,omitempty"`
	Children   []Item       `json:"children,omitempty"`
}

// Decorate returns a deep copy of items with badges filled in from c.
// items is never modified.
func Decorate(items []Item, c counts.Counts) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		cp := it
		cp.Badge = nil
		if it.CountField != "" {
			if n := c.Get(it.CountField); n > 0 {
				cp.Badge = &n
			}
		}
		cp.Children = Decorate(it.Children, c)
		out[i] = cp
	}
	return out
}

// FieldsUsed lists the count fields items (and their children) are bound to,
// each once, in first-seen order.
func FieldsUsed(items []Item) []counts.Field {
	seen := make(map[counts.Field]struct{})
	var out []counts.Field
	var walk func([]Item)
	walk = func(list []Item) {
		for _, it := range list {
			if it.CountField != "" {
				if _, ok := seen[it.CountField]; !ok {
					seen[it.CountField] = struct{}{}
					out = append(out, it.CountField)
				}
			}
			walk(it.Children)
		}
	}
	walk(items)
	return out
}
