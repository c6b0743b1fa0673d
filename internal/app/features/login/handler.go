// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/system/auditlog"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/authz"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/inputval"
	"github.com/dalemusser/hrdesk/internal/app/system/limits"
	"github.com/dalemusser/hrdesk/internal/app/system/navigation"
	"github.com/dalemusser/hrdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	API        *hrapi.Client
	SessionMgr *auth.SessionManager
	Registry   *counts.Registry // may be nil; warms the user's aggregator
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Errors     *uierrors.Handler
	Log        *zap.Logger
}

func NewHandler(api *hrapi.Client, sessionMgr *auth.SessionManager, registry *counts.Registry,
	limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		API:        api,
		SessionMgr: sessionMgr,
		Registry:   registry,
		Limiter:    limiter,
		AuditLog:   audit,
		Errors:     errh,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	User     userView `json:"user"`
	Redirect string   `json:"redirect"`
}

// HandleLoginPost handles POST /login.
//
// Body: {"email": "...", "password": "..."}; an optional ?return= query names
// the local page to land on. On success the encrypted session cookie is set
// and the response carries the user and the redirect target.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(w, r, limits.MaxLoginBody, &req); err != nil {
		uierrors.Toast(w, http.StatusBadRequest, "Invalid login request.")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !inputval.IsValidEmail(email) || req.Password == "" {
		uierrors.Toast(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginRateLimited(r.Context(), r, email)
			uierrors.Toast(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "login")
	defer cancel()

	res, err := h.API.Login(ctx, email, req.Password)
	if err != nil {
		h.loginFailed(w, r, email, err)
		return
	}

	if !authz.Known(res.User.Role) {
		h.Log.Warn("login with unsupported role",
			zap.String("user_id", res.User.ID),
			zap.String("role", res.User.Role))
		h.AuditLog.LoginFailed(r.Context(), r, email, "unsupported role")
		uierrors.Toast(w, http.StatusForbidden, "Your account role is not supported here.")
		return
	}

	u, err := h.SessionMgr.SignIn(w, r, res.User, res.Token)
	if err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		uierrors.Toast(w, http.StatusInternalServerError, "Could not start your session.")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, u.Email, u.Role)

	if h.Registry != nil {
		if _, err := h.Registry.For(u.ID, u.Role, u.AccessToken); err != nil {
			h.Log.Warn("login: count aggregator not created", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	h.Log.Info("user signed in", zap.String("user_id", u.ID), zap.String("role", u.Role))
	uierrors.OK(w, loginResponse{
		User:     userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Redirect: navigation.SafeBackURL(r, navigation.AfterLogin),
	})
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	var ve *hrapi.ValidationError
	switch {
	case errors.Is(err, hrapi.ErrUnauthorized):
		h.AuditLog.LoginFailed(r.Context(), r, email, "invalid credentials")
		uierrors.Toast(w, http.StatusUnauthorized, "Invalid email or password.")
	case errors.As(err, &ve):
		h.AuditLog.LoginFailed(r.Context(), r, email, "rejected: "+ve.Message)
		uierrors.Toast(w, http.StatusUnauthorized, hrapi.Message(err, "Invalid email or password."))
	default:
		h.AuditLog.LoginFailed(r.Context(), r, email, "upstream error")
		h.Errors.Upstream(w, r, err, "Sign-in is unavailable right now. Please try again.")
	}
}
