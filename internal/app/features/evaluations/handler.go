// internal/app/features/evaluations/handler.go
package evaluations

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/store/completions"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/completion"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/inputval"
	"github.com/dalemusser/hrdesk/internal/app/system/limits"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CompletionStore is the local completion evidence.
type CompletionStore interface {
	Evidence(ctx context.Context, userID string) (completion.Evidence, error)
	Mark(ctx context.Context, userID, evaluationID, source string) error
	Unmark(ctx context.Context, userID, evaluationID string) (bool, error)
	RecordSubmission(ctx context.Context, sub completions.Submission) error
}

// Handler serves a staff member's evaluations.
type Handler struct {
	API         *hrapi.Client
	Completions CompletionStore
	Bus         *events.Bus
	Errors      *uierrors.Handler
	Log         *zap.Logger
}

func NewHandler(api *hrapi.Client, store CompletionStore, bus *events.Bus, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		API:         api,
		Completions: store,
		Bus:         bus,
		Errors:      errh,
		Log:         logger,
	}
}

type remainingView struct {
	Total     int                   `json:"total"`
	Remaining int                   `json:"remaining"`
	Pending   []models.Evaluation   `json:"pending"`
	Completed []completion.Decision `json:"completed"`
}

// ServeRemaining handles GET /api/evaluations/remaining. The list is judged
// against every completion signal, and the result is pushed to the user's
// badge as an authoritative value.
func (h *Handler) ServeRemaining(w http.ResponseWriter, r *http.Request) {
	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "evaluations remaining")
	defer cancel()

	list, err := sess.StaffEvaluations(ctx)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not load your evaluations.")
		return
	}

	ev, err := h.Completions.Evidence(ctx, u.ID)
	if err != nil {
		h.Log.Warn("evaluations: completion evidence unavailable; using API signals only",
			zap.String("user_id", u.ID), zap.Error(err))
		ev = completion.NewEvidence(nil, nil)
	}

	res := completion.Reconcile(list, ev)
	view := remainingView{
		Total:     res.Total,
		Remaining: res.RemainingCount(),
		Pending:   res.Remaining,
		Completed: res.Completed,
	}
	if view.Pending == nil {
		view.Pending = []models.Evaluation{}
	}
	if view.Completed == nil {
		view.Completed = []completion.Decision{}
	}

	h.Bus.Publish(events.Event{
		Kind:   events.CountSet,
		UserID: u.ID,
		Field:  string(counts.FieldEvaluations),
		Value:  view.Remaining,
	})

	h.Log.Debug("evaluations remaining served",
		zap.String("user_id", u.ID),
		zap.Int("total", view.Total),
		zap.Int("remaining", view.Remaining))
	uierrors.OK(w, view)
}

type submitRequest struct {
	Answers map[string]any `json:"answers"`
}

type submitView struct {
	EvaluationID string `json:"evaluationId"`
	ResponseID   string `json:"responseId,omitempty"`
}

// HandleComplete handles POST /api/evaluations/{id}/complete. After the
// upstream accepts the answers, the completion is recorded locally (marker
// and history) and an evaluationCompleted event moves the badge.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !inputval.IsValidID(id) {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid evaluation id.")
		return
	}
	var req submitRequest
	if err := shared.DecodeJSON(w, r, limits.MaxMutationBody, &req); err != nil {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid evaluation answers.")
		return
	}
	if len(req.Answers) == 0 {
		uierrors.Toast(w, http.StatusBadRequest, "Please answer the evaluation before submitting.")
		return
	}

	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "evaluation submit")
	defer cancel()

	responseID, err := sess.SubmitEvaluation(ctx, id, req.Answers)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not submit the evaluation.")
		return
	}

	// The upstream accepted the answers; local bookkeeping failures only
	// weaken later reconciliation, so they are logged, not returned.
	sctx, scancel := timeouts.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Store(), h.Log, "evaluation marker")
	defer scancel()
	if err := h.Completions.Mark(sctx, u.ID, id, completions.SourceSubmit); err != nil {
		h.Log.Error("evaluations: record completion marker",
			zap.String("user_id", u.ID), zap.String("evaluation_id", id), zap.Error(err))
	}
	if err := h.Completions.RecordSubmission(sctx, completions.Submission{
		UserID:       u.ID,
		EvaluationID: id,
		ResponseID:   responseID,
	}); err != nil {
		h.Log.Error("evaluations: record submission",
			zap.String("user_id", u.ID), zap.String("evaluation_id", id), zap.Error(err))
	}

	h.Bus.Publish(events.Event{Kind: events.EvaluationCompleted, UserID: u.ID, EvaluationID: id})

	h.Log.Info("evaluation submitted", zap.String("user_id", u.ID), zap.String("evaluation_id", id))
	uierrors.OK(w, submitView{EvaluationID: id, ResponseID: responseID})
}

// HandleUnmark handles DELETE /api/evaluations/{id}/marker. The local marker
// and submission history for the evaluation are dropped, which makes it
// pending again unless the upstream still reports it done, so the badge is
// refetched.
func (h *Handler) HandleUnmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !inputval.IsValidID(id) {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid evaluation id.")
		return
	}
	u, ok := currentUserID(r)
	if !ok {
		h.Errors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "evaluation unmark")
	defer cancel()

	removed, err := h.Completions.Unmark(ctx, u, id)
	if err != nil {
		h.Log.Error("evaluations: remove marker", zap.String("user_id", u), zap.String("evaluation_id", id), zap.Error(err))
		uierrors.Toast(w, http.StatusInternalServerError, "Could not update the evaluation.")
		return
	}
	if removed {
		h.Bus.Publish(events.Event{Kind: events.CountsRefresh, UserID: u})
	}
	uierrors.OK(w, map[string]bool{"removed": removed})
}

// currentUserID returns the signed-in user's id.
func currentUserID(r *http.Request) (string, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return "", false
	}
	return u.ID, true
}
