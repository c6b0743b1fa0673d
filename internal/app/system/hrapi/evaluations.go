package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/tidwall/gjson"
)

const staffReviewsPath = "/api/v1/dashboard/staff/evaluations/reviews"

// StaffEvaluations lists the evaluations assigned to the caller. The list is
// not guaranteed to be filtered by status.
func (s *Session) StaffEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	data, err := s.Get(ctx, staffReviewsPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeEvaluations(data)
}

// SubmitEvaluation sends the caller's answers for an evaluation and returns
// the stored response id.
func (s *Session) SubmitEvaluation(ctx context.Context, id string, answers map[string]any) (string, error) {
	path := staffReviewsPath + "/" + url.PathEscape(id) + "/submit"
	data, err := s.Send(ctx, http.MethodPost, path, map[string]any{"answers": answers})
	if err != nil {
		return "", err
	}
	r := gjson.ParseBytes(data)
	for _, k := range []string{"responseId", "id", "_id"} {
		if v := r.Get(k); v.Exists() && v.String() != "" {
			return v.String(), nil
		}
	}
	return "", nil
}

// decodeEvaluations accepts either a bare array or an object wrapping one
// under reviews/evaluations/items.
func decodeEvaluations(data []byte) ([]models.Evaluation, error) {
	r := gjson.ParseBytes(data)
	list := r
	if !r.IsArray() {
		list = gjson.Result{}
		for _, k := range []string{"reviews", "evaluations", "items"} {
			if v := r.Get(k); v.IsArray() {
				list = v
				break
			}
		}
	}
	if !list.IsArray() {
		return nil, nil
	}

	var out []models.Evaluation
	if err := json.Unmarshal([]byte(list.Raw), &out); err != nil {
		return nil, fmt.Errorf("hrapi: decode evaluations: %w", err)
	}
	return out, nil
}
