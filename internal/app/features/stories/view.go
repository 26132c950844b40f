// internal/app/features/stories/view.go
package stories

import (
	"context"
	"net/http"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/policy/storypolicy"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeStoryView returns a single story. GET /stories/{id}
//
// Authorization: public stories are open to anyone; private stories to
// members and owners. A story that does not exist and a story the
// caller may not see produce the same "access denied" response.
func (h *Handler) ServeStoryView(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	callerID := authz.CallerID(r)

	allowed, err := storypolicy.CanView(ctx, h.DB, callerID, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "stories: view authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	st, err := h.Stories.GetByID(ctx, storyID)
	if err == mongo.ErrNoDocuments {
		// Deleted between the policy check and the read. The caller was
		// allowed to see it, so a plain 404 leaks nothing.
		uierrors.RenderNotFound(w)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "stories: load story", err)
		return
	}

	renderJSON(w, http.StatusOK, toStoryView(st))
}
