// internal/app/features/stories/create.go
package stories

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/sanitize"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"go.uber.org/zap"
)

type createStoryRequest struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

// HandleCreateStory creates a story with the caller as its sole initial
// owner. POST /stories
//
// Authorization: any signed-in user may create. The creator's owner
// membership is written in the same transaction as the story, so no
// request can ever observe the story without it.
func (h *Handler) HandleCreateStory(w http.ResponseWriter, r *http.Request) {
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	var req createStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}

	title := sanitize.Plain(req.Title)
	if title == "" {
		uierrors.RenderInvalid(w, "title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.Stories.Create(ctx, models.Story{
		Title:       title,
		Summary:     sanitize.Plain(req.Summary),
		Content:     sanitize.Content(req.Content),
		IsPublic:    req.IsPublic,
		CreatedByID: callerID,
	})
	if err != nil {
		h.ErrLog.Internal(w, "stories: create", err)
		return
	}

	h.AuditLog.StoryCreated(ctx, callerID, st.ID, st.Title)
	h.AuditLog.OwnershipEstablished(ctx, callerID, st.ID)

	h.Log.Info("story created",
		zap.String("story_id", st.ID.Hex()),
		zap.String("creator_id", callerID.Hex()),
		zap.Bool("is_public", st.IsPublic))

	renderJSON(w, http.StatusCreated, toStoryView(st))
}
