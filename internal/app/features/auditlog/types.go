// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/hrdesk/internal/app/store/audit"
)

// listItem represents a single audit event row.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	UserID        string            `json:"userId,omitempty"`
	Email         string            `json:"email,omitempty"`
	Role          string            `json:"role,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listData is the payload for GET /api/audit.
type listData struct {
	Items []listItem `json:"items"`

	// Filters as applied
	EventType  string `json:"eventType,omitempty"`
	UserID     string `json:"userId,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	FailedOnly bool   `json:"failedOnly,omitempty"`

	// Filter options
	EventTypes []string `json:"eventTypes"`

	// Pagination
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

// authEventTypes lists the event types hrdesk records, for the filter picker.
func authEventTypes() []string {
	return []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventSessionExpired,
	}
}

func toItem(e audit.Event) listItem {
	return listItem{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		UserID:        e.UserID,
		Email:         e.Email,
		Role:          e.Role,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
}
