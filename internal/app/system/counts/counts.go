// Package counts keeps the sidebar badge counts for each signed-in user.
//
// An Aggregator fetches one count per field from the upstream API
// concurrently, caches the merged result for a per-role staleness window,
// and applies optimistic updates from domain events between fetches.
package counts

import "time"

// Field names one badge count.
type Field string

const (
	FieldTasks       Field = "tasks"
	FieldEvaluations Field = "evaluations"
	FieldAttendance  Field = "attendance"
	FieldMessages    Field = "messages"
	FieldReports     Field = "reports"
)

// Fields lists every field in display order.
var Fields = []Field{FieldTasks, FieldEvaluations, FieldAttendance, FieldMessages, FieldReports}

// ParseField validates a field name from the wire.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Counts is one value per field.
type Counts struct {
	Tasks       int `json:"tasks"`
	Evaluations int `json:"evaluations"`
	Attendance  int `json:"attendance"`
	Messages    int `json:"messages"`
	Reports     int `json:"reports"`
}

// Get returns the value of f (0 for unknown fields).
func (c Counts) Get(f Field) int {
	switch f {
	case FieldTasks:
		return c.Tasks
	case FieldEvaluations:
		return c.Evaluations
	case FieldAttendance:
		return c.Attendance
	case FieldMessages:
		return c.Messages
	case FieldReports:
		return c.Reports
	}
	return 0
}

// Set stores v for f. Unknown fields are ignored.
func (c *Counts) Set(f Field, v int) {
	switch f {
	case FieldTasks:
		c.Tasks = v
	case FieldEvaluations:
		c.Evaluations = v
	case FieldAttendance:
		c.Attendance = v
	case FieldMessages:
		c.Messages = v
	case FieldReports:
		c.Reports = v
	}
}

// Add applies delta to f. A decrement never takes the value below 0;
// increments are not capped, so an optimistic count may run ahead of the
// server until the next fetch.
func (c *Counts) Add(f Field, delta int) {
	v := c.Get(f) + delta
	if delta < 0 && v < 0 {
		v = 0
	}
	c.Set(f, v)
}

// State is what an Aggregator exposes: the counts plus fetch bookkeeping.
type State struct {
	Counts
	Loading     bool      `json:"loading"`
	Error       string    `json:"error,omitempty"`
	LastFetched time.Time `json:"lastFetched"`
	Initialized bool      `json:"initialized"`
}
