package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story is the shared unit of collaboration.
//
// NOTE:
//   - CreatedByID records the account that created the story and is
//     immutable. It is NOT the ownership relation: ownership is held as
//     owner rows in the story_memberships collection, so a story can
//     gain and lose owners over time without schema change.
//   - IsPublic controls whether non-members may view the story.
type Story struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	TitleCI string             `bson:"title_ci" json:"-"` // lowercase, diacritics-stripped

	Summary string `bson:"summary,omitempty" json:"summary,omitempty"`
	Content string `bson:"content,omitempty" json:"content,omitempty"`

	IsPublic bool `bson:"is_public" json:"is_public"`

	// InviteToken is an owner-rotatable share token. Anyone signed in
	// who presents it joins as a member. Empty means no open invite.
	InviteToken string `bson:"invite_token,omitempty" json:"-"`

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
