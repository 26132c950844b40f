// Package login handles email+password sign-in for local accounts.
package login

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	userstore "github.com/RoelandC/our-storybook-collective/internal/app/store/users"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auditlog"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler is the feature-level handler for login.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Users    *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Users:    userstore.New(db),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleLogin verifies credentials and starts a session.
// POST /login
//
// Failed lookups and failed password checks produce the same 401 so the
// endpoint cannot be used to enumerate accounts.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		uierrors.RenderBadRequest(w, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	denied := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err == mongo.ErrNoDocuments {
		denied()
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "login: lookup user", err)
		return
	}
	if user.Status != "active" || user.PasswordHash == "" {
		denied()
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		denied()
		return
	}

	if err := auth.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
	}); err != nil {
		h.ErrLog.Internal(w, "login: start session", err)
		return
	}

	h.AuditLog.SignedIn(ctx, user.ID, "password")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
	})
}
