// Package shared holds request helpers used by the JSON features.
package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
)

// ErrBadBody is returned by DecodeJSON for a body that is not acceptable JSON.
var ErrBadBody = errors.New("invalid request body")

// Upstream returns the signed-in user and an API session bound to their
// token. A request without a user yields hrapi.ErrNoToken so that callers
// can answer it like any other expired session.
func Upstream(r *http.Request, api *hrapi.Client) (*auth.SessionUser, *hrapi.Session, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, nil, hrapi.ErrNoToken
	}
	s, err := api.Session(u.AccessToken)
	if err != nil {
		return u, nil, err
	}
	return u, s, nil
}

// DecodeJSON reads at most max bytes of JSON from r into v. An empty body
// leaves v untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, max int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, max)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}
