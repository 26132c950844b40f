// internal/app/features/stories/routes.go
package stories

import (
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public reads: anonymous callers see public stories only. The
	// authorization predicates treat a missing caller as "no membership
	// can match", so no separate anonymous code path is needed.
	r.Get("/", h.ServeStoriesList)
	r.Get("/public", h.ServePublicList)
	r.Get("/{id}", h.ServeStoryView)
	r.Get("/{id}/members", h.ServeMembersList)

	// Everything that writes requires authentication.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		// CREATE
		pr.Post("/", h.HandleCreateStory)

		// SELF-SCOPED
		pr.Get("/mine/memberships", h.ServeMyMemberships)

		// EDIT
		pr.Patch("/{id}", h.HandleUpdateStory)
		pr.Put("/{id}/visibility", h.HandleSetVisibility)

		// DELETE
		pr.Delete("/{id}", h.HandleDeleteStory)

		// MEMBERS
		pr.Post("/{id}/members", h.HandleAddMember)
		pr.Delete("/{id}/members/{userID}", h.HandleRemoveMember)

		// INVITES
		pr.Post("/{id}/invite", h.HandleRotateInvite)
		pr.Post("/join/{token}", h.HandleJoinByInvite)
	})

	return r
}
