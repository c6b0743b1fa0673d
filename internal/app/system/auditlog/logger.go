// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/hrdesk/internal/app/store/audit"
	"github.com/dalemusser/hrdesk/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, session expiry).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", event.Role))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	if event.Category == audit.CategoryAuth {
		setting = l.config.Auth
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, e audit.Event) audit.Event {
	e.Category = audit.CategoryAuth
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, email, role string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		EventType: audit.EventLoginSuccess,
		UserID:    userID,
		Email:     email,
		Role:      role,
		Success:   true,
	}))
}

// LoginFailed logs a login the upstream API rejected.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		EventType:     audit.EventLoginFailed,
		Email:         email,
		Success:       false,
		FailureReason: reason,
	}))
}

// LoginRateLimited logs a login blocked by the limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		EventType:     audit.EventLoginFailedRateLimit,
		Email:         email,
		Success:       false,
		FailureReason: "rate limit exceeded",
	}))
}

// Logout logs a user-initiated logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		EventType: audit.EventLogout,
		UserID:    userID,
		Email:     email,
		Success:   true,
	}))
}

// SessionExpired logs a forced logout after the upstream API rejected the
// user's token. r may be nil when the expiry was detected by a background
// refresh.
func (l *Logger) SessionExpired(ctx context.Context, r *http.Request, userID, source string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		EventType: audit.EventSessionExpired,
		UserID:    userID,
		Success:   true,
		Details:   map[string]string{"detected_by": source},
	}))
}
