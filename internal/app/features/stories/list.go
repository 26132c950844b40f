// internal/app/features/stories/list.go
package stories

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
)

// ServeStoriesList returns every story the caller can view: public
// stories plus the ones they hold a membership for. Anonymous callers
// get the public set. GET /stories
func (h *Handler) ServeStoriesList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	callerID := authz.CallerID(r)

	sts, err := h.Stories.ListVisibleTo(ctx, callerID)
	if err != nil {
		h.ErrLog.Internal(w, "stories: list visible", err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"stories": toStoryViews(sts)})
}

// ServePublicList returns the public library. GET /stories/public
func (h *Handler) ServePublicList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sts, err := h.Stories.ListPublic(ctx)
	if err != nil {
		h.ErrLog.Internal(w, "stories: list public", err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"stories": toStoryViews(sts)})
}

type myMembershipView struct {
	StoryID   string    `json:"story_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"joined_at"`
}

// ServeMyMemberships lists the caller's own membership rows. Self-scoped
// identity data, so no story-visibility decision is involved.
// GET /stories/mine/memberships
func (h *Handler) ServeMyMemberships(w http.ResponseWriter, r *http.Request) {
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ms, err := h.Members.ListByUser(ctx, callerID)
	if err != nil {
		h.ErrLog.Internal(w, "stories: list my memberships", err)
		return
	}

	views := make([]myMembershipView, 0, len(ms))
	for _, m := range ms {
		views = append(views, myMembershipView{
			StoryID:   m.StoryID.Hex(),
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
		})
	}
	renderJSON(w, http.StatusOK, map[string]any{"memberships": views})
}
