// internal/app/store/stories/storystore.go
package storystore

import (
	"context"
	"errors"
	"strings"
	"time"

	membershipstore "github.com/RoelandC/our-storybook-collective/internal/app/store/memberships"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/txn"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store persists stories. Creation and deletion are multi-collection
// operations (the owner row lives in story_memberships), so the store
// holds the database handle and runs them through txn.Run.
type Store struct {
	db          *mongo.Database
	c           *mongo.Collection
	memberships *membershipstore.Store
	log         *zap.Logger
}

var (
	ErrTitleRequired = errors.New("title is required")
	ErrNoCreator     = errors.New("created_by_id is required")
)

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		db:          db,
		c:           db.Collection("stories"),
		memberships: membershipstore.New(db),
		log:         logger,
	}
}

// Create inserts a new Story and establishes the creator as its sole
// initial owner in the same transaction. A story is never observable
// without an owner row: if either step fails, both roll back.
func (s *Store) Create(ctx context.Context, st models.Story) (models.Story, error) {
	if strings.TrimSpace(st.Title) == "" {
		return models.Story{}, ErrTitleRequired
	}
	if st.CreatedByID.IsZero() {
		return models.Story{}, ErrNoCreator
	}

	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.TitleCI = text.Fold(st.Title)
	st.CreatedAt = now
	st.UpdatedAt = &now

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, st); err != nil {
			return err
		}
		return s.memberships.EstablishOwner(ctx, st.ID, st.CreatedByID)
	})
	if err != nil {
		return models.Story{}, err
	}
	return st, nil
}

// GetByID returns a story by its ID. Callers are expected to have made
// an authorization decision already, or to fold mongo.ErrNoDocuments
// into a uniform denial so private stories never leak existence.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Story, error) {
	var st models.Story
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st)
	if err != nil {
		return models.Story{}, err
	}
	return st, nil
}

// Patch names the content fields an update may change. Nil fields are
// left alone, so a caller sending only a title does not clear the
// summary or content; a non-nil empty string clears the field.
type Patch struct {
	Title   *string
	Summary *string
	Content *string
}

// Update applies a partial update and refreshes UpdatedAt. The
// creator-of-record and visibility flag are not touched here:
// CreatedByID is immutable, and visibility changes go through
// SetVisibility so they are auditable on their own.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) error {
	set := bson.M{}
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		set["title"] = *p.Title
		set["title_ci"] = text.Fold(*p.Title)
	}
	if p.Summary != nil {
		set["summary"] = *p.Summary
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}

	now := time.Now().UTC()
	set["updated_at"] = &now

	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetVisibility flips the public flag.
func (s *Store) SetVisibility(ctx context.Context, id primitive.ObjectID, isPublic bool) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_public":  isPublic,
		"updated_at": &now,
	}})
	return err
}

// RotateInviteToken assigns a fresh invite token and returns it. Any
// previously shared link stops working.
func (s *Store) RotateInviteToken(ctx context.Context, id primitive.ObjectID) (string, error) {
	token := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"invite_token": token,
		"updated_at":   &now,
	}})
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetByInviteToken resolves a share token to its story.
func (s *Store) GetByInviteToken(ctx context.Context, token string) (models.Story, error) {
	var st models.Story
	err := s.c.FindOne(ctx, bson.M{"invite_token": token}).Decode(&st)
	if err != nil {
		return models.Story{}, err
	}
	return st, nil
}

// Delete removes a story and cascades its memberships in the same
// transaction. Deleting an absent story is a no-op.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		_, err := s.memberships.DeleteByStory(ctx, id)
		return err
	})
}

// ListVisibleTo returns the stories the user can view: every story they
// hold a membership for, plus public stories. Sorted by title with a
// stable _id tiebreak.
func (s *Store) ListVisibleTo(ctx context.Context, userID primitive.ObjectID) ([]models.Story, error) {
	memberIDs, err := s.memberships.ListStoryIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"is_public": true},
		bson.M{"_id": bson.M{"$in": memberIDs}},
	}}
	return s.find(ctx, filter)
}

// ListPublic returns the public library.
func (s *Store) ListPublic(ctx context.Context) ([]models.Story, error) {
	return s.find(ctx, bson.M{"is_public": true})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Story, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var stories []models.Story
	if err := cur.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// Count returns the number of stories matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
