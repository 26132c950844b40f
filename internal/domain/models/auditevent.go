package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEvent is one recorded administrative or authorization-relevant
// action (story created, member added, visibility changed, ...).
type AuditEvent struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Event     string              `bson:"event" json:"event"`
	ActorID   primitive.ObjectID  `bson:"actor_id" json:"actor_id"`
	StoryID   *primitive.ObjectID `bson:"story_id,omitempty" json:"story_id,omitempty"`
	TargetID  *primitive.ObjectID `bson:"target_id,omitempty" json:"target_id,omitempty"`
	Detail    string              `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
