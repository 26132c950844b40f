// internal/app/features/stories/handler.go
package stories

import (
	"encoding/json"
	"net/http"
	"time"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	membershipstore "github.com/RoelandC/our-storybook-collective/internal/app/store/memberships"
	storystore "github.com/RoelandC/our-storybook-collective/internal/app/store/stories"
	userstore "github.com/RoelandC/our-storybook-collective/internal/app/store/users"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auditlog"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the stories feature.
// The per-operation handlers (create, view, edit, members, invites) all
// share these dependencies.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Stories  *storystore.Store
	Members  *membershipstore.Store
	Users    *userstore.Store
}

// NewHandler constructs a stories Handler. It is typically called from
// the bootstrap BuildHandler function.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Stories:  storystore.New(db, logger),
		Members:  membershipstore.New(db),
		Users:    userstore.New(db),
	}
}

/* -------------------------------------------------------------------------- */
/* Shared response shapes                                                     */
/* -------------------------------------------------------------------------- */

// storyView is the JSON representation of a story. The invite token is
// never included; it is returned only by the rotate endpoint to the
// owner who requested it.
type storyView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary,omitempty"`
	Content   string     `json:"content,omitempty"`
	IsPublic  bool       `json:"is_public"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toStoryView(st models.Story) storyView {
	return storyView{
		ID:        st.ID.Hex(),
		Title:     st.Title,
		Summary:   st.Summary,
		Content:   st.Content,
		IsPublic:  st.IsPublic,
		CreatedBy: st.CreatedByID.Hex(),
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func toStoryViews(sts []models.Story) []storyView {
	views := make([]storyView, 0, len(sts))
	for _, st := range sts {
		views = append(views, toStoryView(st))
	}
	return views
}

/* -------------------------------------------------------------------------- */
/* Shared helpers                                                             */
/* -------------------------------------------------------------------------- */

// storyIDFromURL parses the {id} URL parameter. A malformed ID gets the
// same uniform denial as a missing story: both mean "no story you can
// see lives at this address".
func storyIDFromURL(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderForbidden(w)
		return primitive.NilObjectID, false
	}
	return id, true
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
