// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Store  *audit.Store
	Errors *uierrors.Handler
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given audit store and logger.
func NewHandler(store *audit.Store, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Errors: errh,
		Log:    logger,
	}
}
