package counts

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/store/completions"
	countsys "github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/inputval"
	"github.com/dalemusser/hrdesk/internal/app/system/limits"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type eventRequest struct {
	Kind         string `json:"kind"`
	Field        string `json:"field,omitempty"`
	Value        int    `json:"value,omitempty"`
	Delta        int    `json:"delta,omitempty"`
	EvaluationID string `json:"evaluationId,omitempty"`
}

type eventResponse struct {
	EventID   string         `json:"eventId"`
	Delivered int            `json:"delivered"`
	Counts    countsys.State `json:"counts"`
}

// HandleEvent handles POST /api/counts/events. The event is always scoped to
// the signed-in user; a countsRefresh event answers before the refetch lands.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := shared.DecodeJSON(w, r, limits.MaxEventBody, &req); err != nil {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid event.")
		return
	}
	kind, ok := events.ParseKind(req.Kind)
	if !ok {
		uierrors.Toast(w, http.StatusBadRequest, "Unknown event kind.")
		return
	}
	if kind == events.CountSet {
		if _, ok := countsys.ParseField(req.Field); !ok {
			uierrors.Toast(w, http.StatusBadRequest, "Unknown count field.")
			return
		}
	}
	if req.Delta < 0 {
		uierrors.Toast(w, http.StatusBadRequest, "Delta must not be negative.")
		return
	}
	if req.EvaluationID != "" && !inputval.IsValidID(req.EvaluationID) {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid evaluation id.")
		return
	}

	u, a, ok := h.aggregator(w, r)
	if !ok {
		return
	}

	if kind == events.EvaluationCompleted && req.EvaluationID != "" && h.Markers != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "completion marker")
		err := h.Markers.Mark(ctx, u.ID, req.EvaluationID, completions.SourceEvent)
		cancel()
		if err != nil {
			// The count still moves; the marker is evidence for the next
			// reconciliation only.
			h.Log.Error("counts: record completion marker",
				zap.String("user_id", u.ID),
				zap.String("evaluation_id", req.EvaluationID),
				zap.Error(err))
		}
	}

	e := events.Event{
		Kind:         kind,
		UserID:       u.ID,
		Field:        req.Field,
		Value:        req.Value,
		Delta:        req.Delta,
		EvaluationID: req.EvaluationID,
		ID:           uuid.NewString(),
	}
	n := h.Bus.Publish(e)

	uierrors.OK(w, eventResponse{EventID: e.ID, Delivered: n, Counts: a.Snapshot()})
}
