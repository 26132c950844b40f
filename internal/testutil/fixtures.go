package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		AuthMethod: "password",
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStory inserts a story document together with the creator's
// owner membership row, mirroring what the creation transaction
// produces. Use storystore.Create in tests that exercise the creation
// path itself.
func (f *Fixtures) CreateStory(ctx context.Context, title string, creatorID primitive.ObjectID, isPublic bool) models.Story {
	f.t.Helper()

	st := f.CreateStoryWithoutOwner(ctx, title, creatorID, isPublic)
	f.CreateMembership(ctx, st.ID, creatorID, models.RoleOwner)
	return st
}

// CreateStoryWithoutOwner inserts a bare story document with no
// membership rows. Only for tests that deliberately violate the owner
// invariant.
func (f *Fixtures) CreateStoryWithoutOwner(ctx context.Context, title string, creatorID primitive.ObjectID, isPublic bool) models.Story {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Story{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		IsPublic:    isPublic,
		CreatedByID: creatorID,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}

	_, err := f.db.Collection("stories").InsertOne(ctx, st)
	if err != nil {
		f.t.Fatalf("failed to create test story: %v", err)
	}
	return st
}

// CreateMembership inserts a membership row directly.
func (f *Fixtures) CreateMembership(ctx context.Context, storyID, userID primitive.ObjectID, role string) models.StoryMembership {
	f.t.Helper()

	m := models.StoryMembership{
		ID:        primitive.NewObjectID(),
		StoryID:   storyID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("story_memberships").InsertOne(ctx, m)
	if err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}
