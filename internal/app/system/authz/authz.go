// Package authz resolves the caller identity that authorization
// predicates consume. It trusts the session layer: the ID it returns is
// the opaque caller identity, and anything malformed fails closed.
package authz

import (
	"net/http"

	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it
// returns "", NilObjectID, false. Callers can trust that ok=true means
// a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed for security.
		// This should not happen in normal operation; indicates session corruption.
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}

// CallerID returns just the caller's ObjectID, or NilObjectID when the
// request is anonymous. Predicates that allow anonymous access to
// public stories accept NilObjectID as "no membership can match".
func CallerID(r *http.Request) primitive.ObjectID {
	_, id, ok := UserCtx(r)
	if !ok {
		return primitive.NilObjectID
	}
	return id
}
