// Package logout ends the caller's session.
package logout

import (
	"net/http"

	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for logout.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// HandleLogout clears the session cookie.
// POST /logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("logout: clearing session failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
