// internal/app/features/stories/invite.go
package stories

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/policy/storypolicy"
	membershipstore "github.com/RoelandC/our-storybook-collective/internal/app/store/memberships"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleRotateInvite issues a fresh invite token for a story, revoking
// whatever link was previously shared. POST /stories/{id}/invite
//
// Authorization: owners only. The token is returned only here, to the
// owner who rotated it; story reads never include it.
func (h *Handler) HandleRotateInvite(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	allowed, err := storypolicy.CanManageMembers(ctx, h.DB, callerID, storyID)
	if errors.Is(err, storypolicy.ErrOwnerInvariant) {
		h.ErrLog.Invariant(w, "invite: rotate", err)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "invite: rotate authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	token, err := h.Stories.RotateInviteToken(ctx, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "invite: rotate", err)
		return
	}

	h.AuditLog.InviteRotated(ctx, callerID, storyID)

	h.Log.Info("invite token rotated", zap.String("story_id", storyID.Hex()))

	renderJSON(w, http.StatusOK, map[string]string{"invite_token": token})
}

// HandleJoinByInvite redeems an invite token, adding the caller as a
// member. POST /stories/join/{token}
//
// Authorization: possession of the token IS the authorization; no
// membership or visibility check applies. Redeeming a token for a story
// the caller already belongs to is success, so double-clicked invite
// links do not error.
func (h *Handler) HandleJoinByInvite(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.Stories.GetByInviteToken(ctx, token)
	if err == mongo.ErrNoDocuments {
		// Unknown and revoked tokens are indistinguishable.
		uierrors.RenderForbidden(w)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "invite: resolve token", err)
		return
	}

	err = h.Members.Add(ctx, st.ID, callerID, models.RoleMember)
	if err != nil && !errors.Is(err, membershipstore.ErrDuplicateMembership) {
		h.ErrLog.Internal(w, "invite: join", err)
		return
	}
	if err == nil {
		h.AuditLog.MemberAdded(ctx, callerID, st.ID, callerID, models.RoleMember)
		h.Log.Info("member joined via invite",
			zap.String("story_id", st.ID.Hex()),
			zap.String("user_id", callerID.Hex()))
	}

	renderJSON(w, http.StatusOK, toStoryView(st))
}
