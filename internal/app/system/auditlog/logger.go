// Package auditlog records authorization-relevant events (story and
// membership changes, sign-ins) to MongoDB and/or structured logs.
package auditlog

import (
	"context"
	"time"

	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Mode controls the logging destination:
// "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off".
type Mode = string

// Logger provides convenience methods for logging audit events.
// A nil *Logger is a valid no-op, so tests can pass nil.
type Logger struct {
	c      *mongo.Collection
	zapLog *zap.Logger
	mode   Mode
}

// New creates an audit Logger writing to the audit_events collection.
func New(db *mongo.Database, zapLog *zap.Logger, mode Mode) *Logger {
	return &Logger{
		c:      db.Collection("audit_events"),
		zapLog: zapLog,
		mode:   mode,
	}
}

func (l *Logger) log(ctx context.Context, ev models.AuditEvent) {
	if l == nil || l.mode == "off" {
		return
	}
	ev.CreatedAt = time.Now().UTC()

	if l.mode == "all" || l.mode == "log" {
		fields := []zap.Field{
			zap.Bool("audit", true),
			zap.String("event", ev.Event),
			zap.String("actor_id", ev.ActorID.Hex()),
		}
		if ev.StoryID != nil {
			fields = append(fields, zap.String("story_id", ev.StoryID.Hex()))
		}
		if ev.TargetID != nil {
			fields = append(fields, zap.String("target_id", ev.TargetID.Hex()))
		}
		if ev.Detail != "" {
			fields = append(fields, zap.String("detail", ev.Detail))
		}
		l.zapLog.Info("audit event", fields...)
	}

	if l.mode == "all" || l.mode == "db" {
		if _, err := l.c.InsertOne(ctx, ev); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event", ev.Event))
		}
	}
}

// StoryCreated records a story creation by actor.
func (l *Logger) StoryCreated(ctx context.Context, actor, storyID primitive.ObjectID, title string) {
	l.log(ctx, models.AuditEvent{Event: "story.created", ActorID: actor, StoryID: &storyID, Detail: title})
}

// StoryDeleted records a story deletion (memberships cascade with it).
func (l *Logger) StoryDeleted(ctx context.Context, actor, storyID primitive.ObjectID) {
	l.log(ctx, models.AuditEvent{Event: "story.deleted", ActorID: actor, StoryID: &storyID})
}

// VisibilityChanged records a public/private flip.
func (l *Logger) VisibilityChanged(ctx context.Context, actor, storyID primitive.ObjectID, isPublic bool) {
	detail := "private"
	if isPublic {
		detail = "public"
	}
	l.log(ctx, models.AuditEvent{Event: "story.visibility_changed", ActorID: actor, StoryID: &storyID, Detail: detail})
}

// OwnershipEstablished records the creation-time owner grant.
func (l *Logger) OwnershipEstablished(ctx context.Context, actor, storyID primitive.ObjectID) {
	l.log(ctx, models.AuditEvent{Event: "story.ownership_established", ActorID: actor, StoryID: &storyID})
}

// MemberAdded records actor adding target to a story with a role.
func (l *Logger) MemberAdded(ctx context.Context, actor, storyID, target primitive.ObjectID, role string) {
	l.log(ctx, models.AuditEvent{Event: "membership.added", ActorID: actor, StoryID: &storyID, TargetID: &target, Detail: role})
}

// MemberRemoved records actor removing target from a story.
func (l *Logger) MemberRemoved(ctx context.Context, actor, storyID, target primitive.ObjectID) {
	l.log(ctx, models.AuditEvent{Event: "membership.removed", ActorID: actor, StoryID: &storyID, TargetID: &target})
}

// InviteRotated records an invite-token rotation.
func (l *Logger) InviteRotated(ctx context.Context, actor, storyID primitive.ObjectID) {
	l.log(ctx, models.AuditEvent{Event: "story.invite_rotated", ActorID: actor, StoryID: &storyID})
}

// SignedIn records a successful sign-in.
func (l *Logger) SignedIn(ctx context.Context, userID primitive.ObjectID, method string) {
	l.log(ctx, models.AuditEvent{Event: "auth.signed_in", ActorID: userID, Detail: method})
}
