package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// CreateTask creates a task upstream.
func (s *Session) CreateTask(ctx context.Context, t models.NewTask) (models.Task, error) {
	data, err := s.Send(ctx, http.MethodPost, "/api/v1/tasks", t)
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(data)
}

// SetTaskStatus changes a task's status.
func (s *Session) SetTaskStatus(ctx context.Context, id, status string) (models.Task, error) {
	data, err := s.Send(ctx, http.MethodPatch, "/api/v1/tasks/"+url.PathEscape(id), map[string]string{"status": status})
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(data)
}

// DeleteTask removes a task.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	_, err := s.Send(ctx, http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil)
	return err
}

func decodeTask(data json.RawMessage) (models.Task, error) {
	var t models.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return models.Task{}, fmt.Errorf("hrapi: decode task: %w", err)
	}
	return t, nil
}
