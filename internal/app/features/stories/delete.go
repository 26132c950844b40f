// internal/app/features/stories/delete.go
package stories

import (
	"context"
	"net/http"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/policy/storypolicy"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDeleteStory removes a story and all of its memberships in one
// transaction. DELETE /stories/{id}
//
// Authorization: owners only. Repeating a delete is safe: the second
// call fails the visibility check the same way any unknown ID does.
func (h *Handler) HandleDeleteStory(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := storypolicy.CanMutate(ctx, h.DB, callerID, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "stories: delete authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	if err := h.Stories.Delete(ctx, storyID); err != nil {
		h.ErrLog.Internal(w, "stories: delete", err)
		return
	}

	h.AuditLog.StoryDeleted(ctx, callerID, storyID)

	h.Log.Info("story deleted",
		zap.String("story_id", storyID.Hex()),
		zap.String("actor_id", callerID.Hex()))

	w.WriteHeader(http.StatusNoContent)
}
