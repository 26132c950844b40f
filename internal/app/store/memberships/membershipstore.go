// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the authoritative mapping of story -> (user, role). Every
// authorization decision reads from it. Reads here never consult story
// visibility: they are the primitive the policy layer is built from,
// which is what keeps predicate evaluation acyclic.
type Store struct {
	c *mongo.Collection

	// stories is written (not read) during owner removal so that two
	// concurrent removals share a modified document and cannot both
	// commit against the same owner-count snapshot.
	stories *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("story_memberships"),
		stories: db.Collection("stories"),
	}
}

var errBadRole = errors.New(`role must be "owner" or "member"`)

// ErrDuplicateMembership is returned when (story, user) already has a
// row. Callers replaying a creation or invite redemption should treat
// it as success.
var ErrDuplicateMembership = errors.New("user already has a membership for this story")

// ErrLastOwner is returned when removing a membership would leave the
// story with zero owners. Transfer ownership (add another owner row)
// before removing the last one.
var ErrLastOwner = errors.New("cannot remove the last owner of a story")

// Add creates a membership row. The unique index on (story_id, user_id)
// resolves concurrent duplicate adds to one winner; the loser sees
// ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, storyID, userID primitive.ObjectID, role string) error {
	if role != models.RoleOwner && role != models.RoleMember {
		return errBadRole
	}

	doc := bson.M{
		"story_id":   storyID,
		"user_id":    userID,
		"role":       role,
		"created_at": time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// EstablishOwner inserts the creator's owner row as part of story
// creation. It runs in the creation transaction and deliberately does
// NOT go through any "may this user add a member" check: that check
// requires the story to already have an owner, and this is the step
// that gives it one. A duplicate key (double-fired creation, retried
// event) is success, so the call is idempotent.
func (s *Store) EstablishOwner(ctx context.Context, storyID, creatorID primitive.ObjectID) error {
	err := s.Add(ctx, storyID, creatorID, models.RoleOwner)
	if errors.Is(err, ErrDuplicateMembership) {
		return nil
	}
	return err
}

// Remove deletes the membership row for (storyID, userID). Removing a
// row that does not exist is a no-op, which makes concurrent removals
// of the same member safe.
//
// Removing the story's last owner is refused with ErrLastOwner: a story
// must never be left ownerless. Run inside txn.Run. Snapshot isolation
// alone is not enough here: two transactions removing two different
// owner rows write disjoint documents, so both would read the same
// owner count and both commit. Owner removal therefore also updates the
// story document, forcing concurrent removals into a write conflict;
// the loser retries and counts again after the winner's commit.
func (s *Store) Remove(ctx context.Context, storyID, userID primitive.ObjectID) error {
	var m models.StoryMembership
	err := s.c.FindOne(ctx, bson.M{"story_id": storyID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}

	if m.Role == models.RoleOwner {
		now := time.Now().UTC()
		if _, err := s.stories.UpdateOne(ctx,
			bson.M{"_id": storyID},
			bson.M{"$set": bson.M{"updated_at": now}},
		); err != nil {
			return err
		}

		owners, err := s.CountOwners(ctx, storyID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	_, err = s.c.DeleteOne(ctx, bson.M{"story_id": storyID, "user_id": userID})
	return err
}

// Exists checks if any membership exists for (storyID, userID).
// Privileged single-row lookup used inside policy predicates.
func (s *Store) Exists(ctx context.Context, storyID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"story_id": storyID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasRole checks if (storyID, userID) holds the given role.
// Privileged single-row lookup used inside policy predicates.
func (s *Store) HasRole(ctx context.Context, storyID, userID primitive.ObjectID, role string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"story_id": storyID, "user_id": userID, "role": role}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoleOf returns the role held by userID on storyID, with found=false
// when there is no membership.
func (s *Store) RoleOf(ctx context.Context, storyID, userID primitive.ObjectID) (role string, found bool, err error) {
	var m models.StoryMembership
	e := s.c.FindOne(ctx, bson.M{"story_id": storyID, "user_id": userID}).Decode(&m)
	if e == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if e != nil {
		return "", false, e
	}
	return m.Role, true, nil
}

// CountOwners returns the number of owner rows for a story. Zero on an
// existing story is an invariant violation.
func (s *Store) CountOwners(ctx context.Context, storyID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"story_id": storyID, "role": models.RoleOwner})
}

// ListByStory returns all memberships for a story, owners first, stable
// by user_id.
func (s *Store) ListByStory(ctx context.Context, storyID primitive.ObjectID) ([]models.StoryMembership, error) {
	// "owner" sorts after "member", so descending role puts owners first.
	opts := options.Find().SetSort(bson.D{{Key: "role", Value: -1}, {Key: "user_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"story_id": storyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.StoryMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListByUser returns all of a user's membership rows. Self-scoped: the
// caller asks about their own identity, so no story-visibility check is
// involved.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.StoryMembership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "story_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.StoryMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListStoryIDsByUser returns the IDs of every story the user belongs to.
func (s *Store) ListStoryIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	memberships, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.StoryID)
	}
	return ids, nil
}

// DeleteByStory removes all memberships for a story (cascade on story
// delete). Returns the number of documents deleted.
func (s *Store) DeleteByStory(ctx context.Context, storyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"story_id": storyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
