package sidebar

import (
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// AdminNav is the administrator's sidebar.
func AdminNav() []Item {
	return []Item{
		{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Icon: "home"},
		{Key: "employees", Label: "Employees", Path: "/employees", Icon: "users"},
		{Key: "tasks", Label: "Tasks", Path: "/tasks", Icon: "check-square", CountField: counts.FieldTasks},
		{Key: "evaluations", Label: "Evaluations", Path: "/evaluations", Icon: "clipboard", CountField: counts.FieldEvaluations},
		{Key: "attendance", Label: "Attendance", Path: "/attendance", Icon: "clock", CountField: counts.FieldAttendance},
		{Key: "messages", Label: "Messages", Path: "/messages", Icon: "mail", CountField: counts.FieldMessages},
		{Key: "reports", Label: "Reports", Path: "/reports", Icon: "file-text", CountField: counts.FieldReports},
		{Key: "settings", Label: "Settings", Icon: "settings", Children: []Item{
			{Key: "departments", Label: "Departments", Path: "/settings/departments"},
			{Key: "positions", Label: "Positions", Path: "/settings/positions"},
		}},
	}
}

// HRNav is the HR officer's sidebar.
func HRNav() []Item {
	return []Item{
		{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Icon: "home"},
		{Key: "employees", Label: "Employees", Path: "/employees", Icon: "users"},
		{Key: "tasks", Label: "Tasks", Path: "/tasks", Icon: "check-square", CountField: counts.FieldTasks},
		{Key: "reviews", Label: "Reviews", Icon: "clipboard", Children: []Item{
			{Key: "evaluations", Label: "Evaluations", Path: "/evaluations", CountField: counts.FieldEvaluations},
			{Key: "reports", Label: "Reports", Path: "/reports", CountField: counts.FieldReports},
		}},
		{Key: "attendance", Label: "Attendance", Path: "/attendance", Icon: "clock", CountField: counts.FieldAttendance},
		{Key: "messages", Label: "Messages", Path: "/messages", Icon: "mail", CountField: counts.FieldMessages},
	}
}

// StaffNav is a staff member's sidebar.
func StaffNav() []Item {
	return []Item{
		{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Icon: "home"},
		{Key: "my-tasks", Label: "My Tasks", Path: "/my/tasks", Icon: "check-square", CountField: counts.FieldTasks},
		{Key: "my-evaluations", Label: "My Evaluations", Path: "/my/evaluations", Icon: "clipboard", CountField: counts.FieldEvaluations},
		{Key: "attendance", Label: "Check In", Path: "/my/attendance", Icon: "clock", CountField: counts.FieldAttendance},
		{Key: "messages", Label: "Messages", Path: "/messages", Icon: "mail", CountField: counts.FieldMessages},
		{Key: "my-reports", Label: "My Reports", Path: "/my/reports", Icon: "file-text", CountField: counts.FieldReports},
		{Key: "profile", Label: "Profile", Path: "/profile", Icon: "user"},
	}
}

// Set holds one memoizing Decorator per role.
type Set struct {
	byRole map[string]*Decorator
}

// NewSet builds decorators for every role.
func NewSet() *Set {
	return &Set{byRole: map[string]*Decorator{
		models.RoleAdmin: NewDecorator(AdminNav()),
		models.RoleHR:    NewDecorator(HRNav()),
		models.RoleStaff: NewDecorator(StaffNav()),
	}}
}

// For returns the decorated sidebar for role, or false for an unknown role.
func (s *Set) For(role string, c counts.Counts) ([]Item, bool) {
	d, ok := s.byRole[role]
	if !ok {
		return nil, false
	}
	return d.Items(c), true
}
