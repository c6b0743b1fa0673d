// internal/app/features/tasks/handler.go
package tasks

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/system/authz"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/inputval"
	"github.com/dalemusser/hrdesk/internal/app/system/limits"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	API    *hrapi.Client
	Bus    *events.Bus
	Errors *uierrors.Handler
	Log    *zap.Logger
}

func NewHandler(api *hrapi.Client, bus *events.Bus, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		API:    api,
		Bus:    bus,
		Errors: errh,
		Log:    logger,
	}
}

// publish sends kind to the acting user and, when different, to the task's
// assignee, whose own badge is affected too.
func (h *Handler) publish(kind events.Kind, actorID, assigneeID string) {
	h.Bus.Publish(events.Event{Kind: kind, UserID: actorID})
	if assigneeID != "" && assigneeID != actorID {
		h.Bus.Publish(events.Event{Kind: kind, UserID: assigneeID})
	}
}

// HandleCreate handles POST /api/tasks (admin, hr).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.NewTask
	if err := shared.DecodeJSON(w, r, limits.MaxMutationBody, &req); err != nil {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid task.")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" {
		uierrors.Toast(w, http.StatusBadRequest, "Title is required.")
		return
	}
	if !inputval.IsValidID(req.AssigneeID) {
		uierrors.Toast(w, http.StatusBadRequest, "Please choose who the task is for.")
		return
	}

	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "task create")
	defer cancel()

	task, err := sess.CreateTask(ctx, req)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not create the task.")
		return
	}

	h.publish(events.TaskCreated, u.ID, req.AssigneeID)
	h.Log.Info("task created",
		zap.String("user_id", u.ID),
		zap.String("task_id", task.ID),
		zap.String("assignee_id", req.AssigneeID))
	uierrors.JSON(w, http.StatusCreated, map[string]any{"success": true, "data": task})
}

// HandleComplete handles POST /api/tasks/{id}/complete. Staff may only
// complete tasks assigned to them; the upstream enforces that.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !inputval.IsValidID(id) {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid task id.")
		return
	}
	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "task complete")
	defer cancel()

	task, err := sess.SetTaskStatus(ctx, id, models.TaskCompleted)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not complete the task.")
		return
	}

	h.publish(events.TaskCompleted, u.ID, task.AssigneeID)
	h.Log.Info("task completed", zap.String("user_id", u.ID), zap.String("task_id", id))
	uierrors.OK(w, task)
}

// HandleDelete handles DELETE /api/tasks/{id} (admin, hr).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageTasks(r) {
		h.Errors.Forbidden(w, r)
		return
	}
	id := chi.URLParam(r, "id")
	if !inputval.IsValidID(id) {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid task id.")
		return
	}
	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "task delete")
	defer cancel()

	if err := sess.DeleteTask(ctx, id); err != nil {
		h.Errors.Upstream(w, r, err, "Could not delete the task.")
		return
	}

	h.Bus.Publish(events.Event{Kind: events.TaskDeleted, UserID: u.ID})
	h.Log.Info("task deleted", zap.String("user_id", u.ID), zap.String("task_id", id))
	uierrors.OK(w, map[string]string{"id": id})
}
