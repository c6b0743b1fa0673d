package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// Login exchanges credentials for an access token and the user's profile.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	body := map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	data, err := c.do(ctx, c.anonymous(), http.MethodPost, "/api/v1/auth/login", nil, body)
	if err != nil {
		return models.LoginResult{}, err
	}

	var out models.LoginResult
	if err := json.Unmarshal(data, &out); err != nil {
		return models.LoginResult{}, fmt.Errorf("hrapi: decode login: %w", err)
	}
	if out.Token == "" {
		return models.LoginResult{}, &APIError{Status: http.StatusOK, Path: "/api/v1/auth/login", Message: "login response carried no token"}
	}
	out.User.Role = strings.ToLower(strings.TrimSpace(out.User.Role))
	return out, nil
}

// Profile fetches the signed-in user's profile.
func (s *Session) Profile(ctx context.Context) (models.User, error) {
	data, err := s.Get(ctx, "/api/v1/auth/profile", nil)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return models.User{}, fmt.Errorf("hrapi: decode profile: %w", err)
	}
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	return u, nil
}
