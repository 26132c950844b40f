// internal/app/features/stories/members.go
package stories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/policy/storypolicy"
	membershipstore "github.com/RoelandC/our-storybook-collective/internal/app/store/memberships"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/txn"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type memberView struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// ServeMembersList lists a story's members with their roles.
// GET /stories/{id}/members
//
// Authorization: anyone who can view the story can see who belongs to
// it. The membership list of an invisible story is never revealed; the
// request fails the same way a request for a nonexistent story does.
func (h *Handler) ServeMembersList(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	callerID := authz.CallerID(r)

	allowed, err := storypolicy.CanView(ctx, h.DB, callerID, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "members: list authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	ms, err := h.Members.ListByStory(ctx, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "members: list", err)
		return
	}

	// Resolve display names in one query.
	ids := make([]primitive.ObjectID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.Internal(w, "members: resolve names", err)
		return
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	views := make([]memberView, 0, len(ms))
	for _, m := range ms {
		views = append(views, memberView{
			UserID:   m.UserID.Hex(),
			Name:     names[m.UserID],
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		})
	}
	renderJSON(w, http.StatusOK, map[string]any{"members": views})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// HandleAddMember grants a user a role on a story.
// POST /stories/{id}/members
//
// Authorization: owners only. The one grant this check never sees is
// the creator's own owner row, which is written by the creation
// transaction before any membership request can exist.
//
// A duplicate membership is a 409; role changes are remove then add.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		uierrors.RenderInvalid(w, "user_id must be a valid ID")
		return
	}
	if req.Role != models.RoleOwner && req.Role != models.RoleMember {
		uierrors.RenderInvalid(w, `role must be "owner" or "member"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := storypolicy.CanManageMembers(ctx, h.DB, callerID, storyID)
	if errors.Is(err, storypolicy.ErrOwnerInvariant) {
		h.ErrLog.Invariant(w, "members: add", err)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "members: add authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	// The target must be a real account; a dangling membership row would
	// show up as a ghost member.
	if _, err := h.Users.GetByID(ctx, targetID); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderInvalid(w, "no such user")
			return
		}
		h.ErrLog.Internal(w, "members: load target user", err)
		return
	}

	if err := h.Members.Add(ctx, storyID, targetID, req.Role); err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			uierrors.RenderConflict(w, "user is already a member of this story")
			return
		}
		h.ErrLog.Internal(w, "members: add", err)
		return
	}

	h.AuditLog.MemberAdded(ctx, callerID, storyID, targetID, req.Role)

	h.Log.Info("member added",
		zap.String("story_id", storyID.Hex()),
		zap.String("user_id", targetID.Hex()),
		zap.String("role", req.Role))

	w.WriteHeader(http.StatusCreated)
}

// HandleRemoveMember revokes a user's membership.
// DELETE /stories/{id}/members/{userID}
//
// Authorization: owners only, and that includes removing yourself — an
// owner may leave, but not if they are the last owner. Removing a user
// who is not a member is a no-op success, so concurrent removals and
// replays converge.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		uierrors.RenderInvalid(w, "user ID must be a valid ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := storypolicy.CanManageMembers(ctx, h.DB, callerID, storyID)
	if errors.Is(err, storypolicy.ErrOwnerInvariant) {
		h.ErrLog.Invariant(w, "members: remove", err)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "members: remove authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	// Remove writes the story document inside the transaction, so two
	// concurrent owner removals conflict instead of each passing the
	// last-owner check against its own snapshot.
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		return h.Members.Remove(ctx, storyID, targetID)
	})
	if errors.Is(err, membershipstore.ErrLastOwner) {
		uierrors.RenderConflict(w, "cannot remove the last owner; transfer ownership first")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "members: remove", err)
		return
	}

	h.AuditLog.MemberRemoved(ctx, callerID, storyID, targetID)

	h.Log.Info("member removed",
		zap.String("story_id", storyID.Hex()),
		zap.String("user_id", targetID.Hex()))

	w.WriteHeader(http.StatusNoContent)
}
