// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateEmail = errors.New("a user with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user, setting folded keys and timestamps.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.EmailCI = text.Fold(u.Email)
	if u.Status == "" {
		u.Status = "active"
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID returns a user by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks a user up by case-folded email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// ListByIDs returns the users whose IDs appear in ids. Missing IDs are
// skipped, not errors.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertGoogle finds or creates the account for a Google sign-in. An
// existing account keeps its ID (and any password it may also have);
// the name is refreshed from the Google profile.
func (s *Store) UpsertGoogle(ctx context.Context, email, fullName string) (models.User, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		if fullName != "" && fullName != existing.FullName {
			now := time.Now().UTC()
			_, _ = s.c.UpdateByID(ctx, existing.ID, bson.M{"$set": bson.M{
				"full_name":    fullName,
				"full_name_ci": text.Fold(fullName),
				"updated_at":   now,
			}})
			existing.FullName = fullName
		}
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}

	created, err := s.Create(ctx, models.User{
		FullName:   fullName,
		Email:      email,
		AuthMethod: "google",
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost a race with a concurrent first sign-in; read the winner.
		return s.GetByEmail(ctx, email)
	}
	return created, err
}
