// internal/domain/models/evaluation.go
package models

import "time"

// Evaluation statuses reported by the upstream API.
const (
	EvaluationPending   = "pending"
	EvaluationCompleted = "completed"
	EvaluationSubmitted = "submitted"
)

// Evaluation is a review a staff member has to fill in.
//
// The staff reviews endpoint may or may not filter by status server-side, so
// callers must not trust the list to contain only pending rows.
type Evaluation struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	RevieweeID  string     `json:"revieweeId,omitempty"`
	ReviewerID  string     `json:"reviewerId,omitempty"`
	ResponseID  string     `json:"responseId,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}
