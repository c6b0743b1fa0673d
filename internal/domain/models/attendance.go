// internal/domain/models/attendance.go
package models

import "time"

// AttendanceRecord is one day of check-in/out for a user.
type AttendanceRecord struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Date       string     `json:"date"` // YYYY-MM-DD in the company time zone
	CheckInAt  *time.Time `json:"checkInAt,omitempty"`
	CheckOutAt *time.Time `json:"checkOutAt,omitempty"`
	Status     string     `json:"status,omitempty"` // present | late | absent | pending
}

// CheckedIn reports whether the record has a check-in time.
func (a AttendanceRecord) CheckedIn() bool {
	return a.CheckInAt != nil
}
