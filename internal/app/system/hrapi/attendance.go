package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// TodayAttendance returns the caller's record for today, or nil when there is none.
func (s *Session) TodayAttendance(ctx context.Context) (*models.AttendanceRecord, error) {
	data, err := s.Get(ctx, "/api/v1/attendance/today", nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var rec models.AttendanceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("hrapi: decode attendance: %w", err)
	}
	return &rec, nil
}

// CheckIn records the caller's check-in for today.
func (s *Session) CheckIn(ctx context.Context) (models.AttendanceRecord, error) {
	return s.attendanceAction(ctx, "/api/v1/attendance/check-in")
}

// CheckOut records the caller's check-out for today.
func (s *Session) CheckOut(ctx context.Context) (models.AttendanceRecord, error) {
	return s.attendanceAction(ctx, "/api/v1/attendance/check-out")
}

func (s *Session) attendanceAction(ctx context.Context, path string) (models.AttendanceRecord, error) {
	data, err := s.Send(ctx, http.MethodPost, path, nil)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	var rec models.AttendanceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.AttendanceRecord{}, fmt.Errorf("hrapi: decode attendance: %w", err)
	}
	return rec, nil
}
