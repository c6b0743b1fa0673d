// Package events carries per-user domain events from the pages that cause
// them to the count aggregators that react to them.
package events

import (
	"time"
)

// Kind names a domain event.
type Kind string

const (
	TaskCreated         Kind = "taskCreated"
	TaskCompleted       Kind = "taskCompleted"
	TaskDeleted         Kind = "taskDeleted"
	EvaluationAssigned  Kind = "evaluationAssigned"
	EvaluationCompleted Kind = "evaluationCompleted"
	AttendanceCheckedIn Kind = "attendanceCheckedIn"
	AttendanceRequested Kind = "attendanceRequested"
	MessageReceived     Kind = "messageReceived"
	MessageRead         Kind = "messageRead"
	MessagesCleared     Kind = "messagesCleared"
	ReportSubmitted     Kind = "reportSubmitted"
	ReportReviewed      Kind = "reportReviewed"

	// CountSet carries an authoritative value a page already computed.
	CountSet Kind = "countSet"

	// CountsRefresh asks the aggregator for a forced refresh.
	CountsRefresh Kind = "countsRefresh"
)

var known = map[Kind]struct{}{
	TaskCreated: {}, TaskCompleted: {}, TaskDeleted: {},
	EvaluationAssigned: {}, EvaluationCompleted: {},
	AttendanceCheckedIn: {}, AttendanceRequested: {},
	MessageReceived: {}, MessageRead: {}, MessagesCleared: {},
	ReportSubmitted: {}, ReportReviewed: {},
	CountSet: {}, CountsRefresh: {},
}

// ParseKind validates an event name from the wire.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := known[k]
	return k, ok
}

// Event is one occurrence, scoped to a single user.
type Event struct {
	ID     string    `json:"id"`
	Kind   Kind      `json:"kind"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`

	// CountSet payload.
	Field string `json:"field,omitempty"`
	Value int    `json:"value,omitempty"`

	// Delta overrides the default step of 1 for increment/decrement kinds.
	Delta int `json:"delta,omitempty"`

	// EvaluationCompleted payload.
	EvaluationID string `json:"evaluationId,omitempty"`
}

// Step returns the magnitude of an increment/decrement event.
func (e Event) Step() int {
	if e.Delta > 0 {
		return e.Delta
	}
	return 1
}
