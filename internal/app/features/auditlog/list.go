// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/store/audit"
	"github.com/dalemusser/hrdesk/internal/app/system/inputval"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /api/audit: the authentication audit trail, newest
// first, filtered by event type, user, date range and failed=true.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	eventType := strings.TrimSpace(query.Get(r, "event_type"))
	userID := strings.TrimSpace(query.Get(r, "user_id"))
	startDate := strings.TrimSpace(query.Get(r, "start_date"))
	endDate := strings.TrimSpace(query.Get(r, "end_date"))
	failedOnly := query.Get(r, "failed") == "true"

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	if userID != "" && !inputval.IsValidID(userID) {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	filter := audit.QueryFilter{
		Category:     audit.CategoryAuth,
		EventType:    eventType,
		UserID:       userID,
		FailedLogins: failedOnly,
		Limit:        pageSize,
		Offset:       int64((page - 1) * pageSize),
	}
	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			uierrors.Toast(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD.")
			return
		}
		filter.StartTime = &t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			uierrors.Toast(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD.")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		uierrors.Toast(w, http.StatusInternalServerError, "A database error occurred.")
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		uierrors.Toast(w, http.StatusInternalServerError, "A database error occurred.")
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	uierrors.OK(w, listData{
		Items:      items,
		EventType:  eventType,
		UserID:     userID,
		StartDate:  startDate,
		EndDate:    endDate,
		FailedOnly: failedOnly,
		EventTypes: authEventTypes(),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	})
}
