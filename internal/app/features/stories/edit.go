// internal/app/features/stories/edit.go
package stories

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	"github.com/RoelandC/our-storybook-collective/internal/app/policy/storypolicy"
	storystore "github.com/RoelandC/our-storybook-collective/internal/app/store/stories"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/sanitize"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type updateStoryRequest struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
	Content *string `json:"content"`
}

// HandleUpdateStory edits a story's content fields. PATCH /stories/{id}
//
// Fields absent from the body are left untouched; sending an empty
// string clears the field. The creator-of-record and the visibility
// flag cannot be changed here; visibility has its own endpoint.
//
// Authorization: owners only.
func (h *Handler) HandleUpdateStory(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	var req updateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := storypolicy.CanMutate(ctx, h.DB, callerID, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "stories: update authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	var patch storystore.Patch
	if req.Title != nil {
		title := sanitize.Plain(*req.Title)
		patch.Title = &title
	}
	if req.Summary != nil {
		summary := sanitize.Plain(*req.Summary)
		patch.Summary = &summary
	}
	if req.Content != nil {
		content := sanitize.Content(*req.Content)
		patch.Content = &content
	}

	err = h.Stories.Update(ctx, storyID, patch)
	if err != nil {
		h.ErrLog.Internal(w, "stories: update", err)
		return
	}

	st, err := h.Stories.GetByID(ctx, storyID)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, "stories: reload after update", err)
		return
	}

	renderJSON(w, http.StatusOK, toStoryView(st))
}

type setVisibilityRequest struct {
	IsPublic *bool `json:"is_public"`
}

// HandleSetVisibility flips a story between public and private.
// PUT /stories/{id}/visibility
//
// Authorization: owners only. Making a story private takes effect on
// the next authorization decision; there is no grace period for callers
// who could view it while it was public.
func (h *Handler) HandleSetVisibility(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDFromURL(w, r)
	if !ok {
		return
	}
	_, callerID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderForbidden(w)
		return
	}

	var req setVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsPublic == nil {
		uierrors.RenderBadRequest(w, `body must be {"is_public": true|false}`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	allowed, err := storypolicy.CanMutate(ctx, h.DB, callerID, storyID)
	if err != nil {
		h.ErrLog.Internal(w, "stories: visibility authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w)
		return
	}

	if err := h.Stories.SetVisibility(ctx, storyID, *req.IsPublic); err != nil {
		h.ErrLog.Internal(w, "stories: set visibility", err)
		return
	}

	h.AuditLog.VisibilityChanged(ctx, callerID, storyID, *req.IsPublic)

	h.Log.Info("story visibility changed",
		zap.String("story_id", storyID.Hex()),
		zap.Bool("is_public", *req.IsPublic))

	w.WriteHeader(http.StatusNoContent)
}
