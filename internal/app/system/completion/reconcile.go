package completion

import "github.com/dalemusser/hrdesk/internal/domain/models"

// Verdict is the merged outcome of a set of signals.
type Verdict struct {
	Completed bool
	By        []Source // every source that voted completed
}

// Merge folds signals with "any positive signal wins".
func Merge(signals []Signal) Verdict {
	var v Verdict
	for _, s := range signals {
		if s.Completed {
			v.Completed = true
			v.By = append(v.By, s.Source)
		}
	}
	return v
}

// Decision pairs an evaluation with its verdict.
type Decision struct {
	Evaluation models.Evaluation `json:"evaluation"`
	Completed  bool              `json:"completed"`
	By         []Source          `json:"by,omitempty"`
}

// Result splits a list of evaluations into remaining and completed.
type Result struct {
	Total     int
	Remaining []models.Evaluation
	Completed []Decision
}

// RemainingCount is Total minus the completed ones.
func (r Result) RemainingCount() int {
	return len(r.Remaining)
}

// Reconcile judges every evaluation against ev. Order is preserved within
// Remaining and Completed. Duplicate IDs are judged independently.
func Reconcile(evals []models.Evaluation, ev Evidence) Result {
	res := Result{Total: len(evals)}
	for _, e := range evals {
		v := Merge(Signals(e, ev))
		if v.Completed {
			res.Completed = append(res.Completed, Decision{Evaluation: e, Completed: true, By: v.By})
			continue
		}
		res.Remaining = append(res.Remaining, e)
	}
	return res
}

// Remaining is shorthand for Reconcile(...).RemainingCount().
func Remaining(evals []models.Evaluation, ev Evidence) int {
	return Reconcile(evals, ev).RemainingCount()
}
