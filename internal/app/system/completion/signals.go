// Package completion decides which evaluations are still pending for a user.
//
// The upstream list may or may not be filtered by status, and the server's
// status can lag behind what the user has already submitted. Completion is
// therefore judged from several independent signals:
//
//   - a local completion marker recorded by hrdesk
//   - the API status (completed or submitted)
//   - a response record on the evaluation (responseId or submittedAt)
//   - a matching entry in the user's submission history
//
// Any positive signal marks the evaluation completed. Signals never vote
// "pending"; absence of evidence is the only way to stay pending.
package completion

import (
	"strings"
	"time"

	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// Source identifies where a completion signal came from.
type Source int

const (
	SourceLocalMarker Source = iota + 1
	SourceAPIStatus
	SourceResponseRecord
	SourceSubmissionHistory
)

func (s Source) String() string {
	switch s {
	case SourceLocalMarker:
		return "local_marker"
	case SourceAPIStatus:
		return "api_status"
	case SourceResponseRecord:
		return "response_record"
	case SourceSubmissionHistory:
		return "submission_history"
	}
	return "unknown"
}

// MarshalText renders the source name in JSON.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Signal is one piece of evidence about an evaluation.
type Signal struct {
	Source    Source
	Completed bool
	Detail    string
}

// Submission is one entry of a user's submission history.
type Submission struct {
	EvaluationID string
	ResponseID   string
	SubmittedAt  time.Time
}

// Evidence is the client-side state consulted alongside the API record.
type Evidence struct {
	Markers map[string]struct{} // evaluation IDs marked complete locally
	History []Submission
}

// NewEvidence builds Evidence from marker IDs and history entries.
func NewEvidence(markerIDs []string, history []Submission) Evidence {
	m := make(map[string]struct{}, len(markerIDs))
	for _, id := range markerIDs {
		if id = strings.TrimSpace(id); id != "" {
			m[id] = struct{}{}
		}
	}
	return Evidence{Markers: m, History: history}
}

// completedStatuses are the API statuses that count as done.
var completedStatuses = map[string]struct{}{
	models.EvaluationCompleted: {},
	models.EvaluationSubmitted: {},
}

// Signals collects every signal for e. The result always has one entry per
// source, in source order, so callers can show why a verdict was reached.
func Signals(e models.Evaluation, ev Evidence) []Signal {
	out := make([]Signal, 0, 4)

	_, marked := ev.Markers[e.ID]
	out = append(out, Signal{Source: SourceLocalMarker, Completed: marked})

	status := strings.ToLower(strings.TrimSpace(e.Status))
	_, done := completedStatuses[status]
	out = append(out, Signal{Source: SourceAPIStatus, Completed: done, Detail: status})

	switch {
	case e.ResponseID != "":
		out = append(out, Signal{Source: SourceResponseRecord, Completed: true, Detail: "responseId"})
	case e.SubmittedAt != nil && !e.SubmittedAt.IsZero():
		out = append(out, Signal{Source: SourceResponseRecord, Completed: true, Detail: "submittedAt"})
	default:
		out = append(out, Signal{Source: SourceResponseRecord})
	}

	hist := Signal{Source: SourceSubmissionHistory}
	for _, s := range ev.History {
		if s.EvaluationID == e.ID {
			hist.Completed = true
			hist.Detail = s.ResponseID
			break
		}
	}
	out = append(out, hist)

	return out
}
