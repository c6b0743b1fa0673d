package counts

import (
	"context"
	"net/url"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/system/completion"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"go.uber.org/zap"
)

// EvidenceLoader returns a user's local completion evidence.
type EvidenceLoader interface {
	Evidence(ctx context.Context, userID string) (completion.Evidence, error)
}

// Request is what a Source gets to work with.
type Request struct {
	Session *hrapi.Session
	UserID  string
	Log     *zap.Logger
}

// Source produces one field's count.
type Source struct {
	Field    Field
	Endpoint string // for logs and metrics
	Fetch    func(ctx context.Context, req Request) (int, error)
}

// Profile is the per-role recipe: which sources, how long results stay fresh.
type Profile struct {
	Role     string
	Interval time.Duration
	Sources  []Source
}

// Intervals are the per-role staleness windows.
type Intervals struct {
	Admin time.Duration
	HR    time.Duration
	Staff time.Duration
}

// DefaultIntervals: 30s for Admin and HR, 5 minutes for Staff.
func DefaultIntervals() Intervals {
	return Intervals{
		Admin: 30 * time.Second,
		HR:    30 * time.Second,
		Staff: 5 * time.Minute,
	}
}

// ProfileFor returns the profile for role, or false for an unknown role.
func ProfileFor(role string, iv Intervals, ev EvidenceLoader) (Profile, bool) {
	switch role {
	case models.RoleAdmin:
		return AdminProfile(iv.Admin), true
	case models.RoleHR:
		return HRProfile(iv.HR), true
	case models.RoleStaff:
		return StaffProfile(iv.Staff, ev), true
	}
	return Profile{}, false
}

// AdminProfile counts organisation-wide pending work.
func AdminProfile(interval time.Duration) Profile {
	return Profile{
		Role:     models.RoleAdmin,
		Interval: interval,
		Sources: []Source{
			endpointCount(FieldTasks, "/api/v1/tasks", url.Values{"status": {"pending"}}),
			endpointCount(FieldEvaluations, "/api/v1/dashboard/hr/evaluations", url.Values{"status": {"pending"}}),
			endpointCount(FieldAttendance, "/api/v1/attendance", url.Values{"date": {"today"}}),
			endpointCount(FieldMessages, "/api/v1/notifications", url.Values{"unread": {"true"}}),
			endpointCount(FieldReports, "/api/v1/dashboard/reports", url.Values{"status": {"pending"}}),
		},
	}
}

// HRProfile counts the HR review queues.
func HRProfile(interval time.Duration) Profile {
	return Profile{
		Role:     models.RoleHR,
		Interval: interval,
		Sources: []Source{
			endpointCount(FieldTasks, "/api/v1/dashboard/hr/tasks", url.Values{"status": {"pending"}}),
			endpointCount(FieldEvaluations, "/api/v1/dashboard/hr/evaluations", url.Values{"status": {"pending"}}),
			endpointCount(FieldAttendance, "/api/v1/dashboard/hr/attendance", url.Values{"status": {"pending"}}),
			endpointCount(FieldMessages, "/api/v1/notifications", url.Values{"unread": {"true"}}),
			endpointCount(FieldReports, "/api/v1/dashboard/reports", url.Values{"status": {"pending"}}),
		},
	}
}

// StaffProfile counts the caller's own to-dos. Evaluations are reconciled
// against local completion evidence because the reviews endpoint does not
// reliably filter by status.
func StaffProfile(interval time.Duration, ev EvidenceLoader) Profile {
	return Profile{
		Role:     models.RoleStaff,
		Interval: interval,
		Sources: []Source{
			endpointCount(FieldTasks, "/api/v1/tasks", url.Values{"assignee": {"me"}, "status": {"pending"}}),
			staffEvaluations(ev),
			staffAttendance(),
			endpointCount(FieldMessages, "/api/v1/notifications", url.Values{"unread": {"true"}}),
			endpointCount(FieldReports, "/api/v1/dashboard/reports", url.Values{"mine": {"true"}, "status": {"draft"}}),
		},
	}
}

func endpointCount(f Field, path string, query url.Values) Source {
	return Source{
		Field:    f,
		Endpoint: path,
		Fetch: func(ctx context.Context, req Request) (int, error) {
			return req.Session.Count(ctx, path, query)
		},
	}
}

func staffEvaluations(ev EvidenceLoader) Source {
	return Source{
		Field:    FieldEvaluations,
		Endpoint: "/api/v1/dashboard/staff/evaluations/reviews",
		Fetch: func(ctx context.Context, req Request) (int, error) {
			evals, err := req.Session.StaffEvaluations(ctx)
			if err != nil {
				return 0, err
			}
			evidence := completion.Evidence{}
			if ev != nil {
				e, err := ev.Evidence(ctx, req.UserID)
				if err != nil {
					// API signals alone still apply.
					req.Log.Warn("completion evidence unavailable",
						zap.String("user_id", req.UserID), zap.Error(err))
				} else {
					evidence = e
				}
			}
			return completion.Remaining(evals, evidence), nil
		},
	}
}

// staffAttendance is 1 while the caller has not checked in today.
func staffAttendance() Source {
	return Source{
		Field:    FieldAttendance,
		Endpoint: "/api/v1/attendance/today",
		Fetch: func(ctx context.Context, req Request) (int, error) {
			rec, err := req.Session.TodayAttendance(ctx)
			if err != nil {
				return 0, err
			}
			if rec == nil || !rec.CheckedIn() {
				return 1, nil
			}
			return 0, nil
		},
	}
}
