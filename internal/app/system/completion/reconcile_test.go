package completion_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/system/completion"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(id string) models.Evaluation {
	return models.Evaluation{ID: id, Title: "Review " + id, Status: models.EvaluationPending}
}

func TestReconcile_TenEvaluationsExample(t *testing.T) {
	var evals []models.Evaluation
	for i := 1; i <= 10; i++ {
		e := pending(fmt.Sprintf("ev-%d", i))
		if i <= 3 {
			e.Status = "completed"
		}
		evals = append(evals, e)
	}
	// ev-4 is marked locally but the API still reports it pending.
	ev := completion.NewEvidence([]string{"ev-4"}, nil)

	res := completion.Reconcile(evals, ev)

	assert.Equal(t, 10, res.Total)
	assert.Equal(t, 6, res.RemainingCount())
	assert.Len(t, res.Completed, 4)
	assert.Equal(t, 6, completion.Remaining(evals, ev))
}

func TestReconcile_RemainingIsTotalMinusCompleted(t *testing.T) {
	now := time.Now()
	evals := []models.Evaluation{
		pending("a"),
		{ID: "b", Status: "SUBMITTED"},
		{ID: "c", Status: "pending", ResponseID: "resp-1"},
		{ID: "d", Status: "pending", SubmittedAt: &now},
		pending("e"),
		pending("f"),
	}
	ev := completion.NewEvidence([]string{"a"}, []completion.Submission{{EvaluationID: "e", ResponseID: "r-e"}})

	res := completion.Reconcile(evals, ev)

	require.Len(t, res.Remaining, 1)
	assert.Equal(t, "f", res.Remaining[0].ID)
	assert.Equal(t, res.Total-len(res.Completed), res.RemainingCount())
}

func TestSignals_OnePerSourceInOrder(t *testing.T) {
	sigs := completion.Signals(pending("x"), completion.Evidence{})

	require.Len(t, sigs, 4)
	assert.Equal(t, completion.SourceLocalMarker, sigs[0].Source)
	assert.Equal(t, completion.SourceAPIStatus, sigs[1].Source)
	assert.Equal(t, completion.SourceResponseRecord, sigs[2].Source)
	assert.Equal(t, completion.SourceSubmissionHistory, sigs[3].Source)
	for _, s := range sigs {
		assert.False(t, s.Completed, "source %s", s.Source)
	}
}

func TestSignals_ZeroSubmittedAtIsNotEvidence(t *testing.T) {
	var zero time.Time
	e := models.Evaluation{ID: "z", Status: "pending", SubmittedAt: &zero}

	v := completion.Merge(completion.Signals(e, completion.Evidence{}))
	assert.False(t, v.Completed)
}

func TestMerge_AnyPositiveWins(t *testing.T) {
	tests := []struct {
		name    string
		signals []completion.Signal
		want    bool
		by      []completion.Source
	}{
		{"none", nil, false, nil},
		{"all negative", []completion.Signal{
			{Source: completion.SourceLocalMarker},
			{Source: completion.SourceAPIStatus, Detail: "pending"},
		}, false, nil},
		{"marker only", []completion.Signal{
			{Source: completion.SourceLocalMarker, Completed: true},
			{Source: completion.SourceAPIStatus, Detail: "pending"},
		}, true, []completion.Source{completion.SourceLocalMarker}},
		{"two sources", []completion.Signal{
			{Source: completion.SourceAPIStatus, Completed: true},
			{Source: completion.SourceSubmissionHistory, Completed: true},
		}, true, []completion.Source{completion.SourceAPIStatus, completion.SourceSubmissionHistory}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := completion.Merge(tc.signals)
			assert.Equal(t, tc.want, v.Completed)
			assert.Equal(t, tc.by, v.By)
		})
	}
}

func TestNewEvidence_SkipsBlankIDs(t *testing.T) {
	ev := completion.NewEvidence([]string{"", "  ", "id-1"}, nil)
	assert.Len(t, ev.Markers, 1)
	assert.Contains(t, ev.Markers, "id-1")
}

func TestDecision_JSONUsesSourceNames(t *testing.T) {
	d := completion.Decision{
		Evaluation: pending("j"),
		Completed:  true,
		By:         []completion.Source{completion.SourceLocalMarker, completion.SourceResponseRecord},
	}
	buf, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"by":["local_marker","response_record"]`)
}
