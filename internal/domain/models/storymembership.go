package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles. A membership holds exactly one of these; role
// changes are modeled as remove+add, never an in-place update, which
// keeps the uniqueness and owner-count invariants easy to reason about.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// StoryMembership is the authoritative join between users and stories.
// Exactly one document per (story_id, user_id); role is a scalar.
// Every story has at least one owner row at all times after creation.
type StoryMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StoryID   primitive.ObjectID `bson:"story_id" json:"story_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"` // "owner" | "member"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
