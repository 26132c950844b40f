package membershipstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	membershipstore "github.com/RoelandC/our-storybook-collective/internal/app/store/memberships"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/txn"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/RoelandC/our-storybook-collective/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// requireReplicaSet skips the test unless the server can run
// multi-document transactions.
func requireReplicaSet(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var hello struct {
		SetName string `bson:"setName"`
	}
	res := db.Client().Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}})
	if err := res.Decode(&hello); err != nil || hello.SetName == "" {
		t.Skip("transactions require a replica set")
	}
}

func TestStore_Add(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	if err := store.Add(ctx, storyID, userID, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	exists, err := store.Exists(ctx, storyID, userID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected membership to exist after Add")
	}

	role, found, err := store.RoleOf(ctx, storyID, userID)
	if err != nil {
		t.Fatalf("RoleOf failed: %v", err)
	}
	if !found {
		t.Fatal("expected RoleOf to find the membership")
	}
	if role != models.RoleMember {
		t.Errorf("role: got %q, want %q", role, models.RoleMember)
	}
}

func TestStore_Add_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Add(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "editor")
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestStore_Add_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	if err := store.Add(ctx, storyID, userID, models.RoleMember); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	// Same (story, user) with any role hits the unique index.
	err := store.Add(ctx, storyID, userID, models.RoleOwner)
	if !errors.Is(err, membershipstore.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}

	// The original row is untouched.
	role, found, err := store.RoleOf(ctx, storyID, userID)
	if err != nil || !found {
		t.Fatalf("RoleOf failed: found=%v err=%v", found, err)
	}
	if role != models.RoleMember {
		t.Errorf("role after duplicate add: got %q, want %q", role, models.RoleMember)
	}
}

func TestStore_EstablishOwner_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	creatorID := primitive.NewObjectID()

	if err := store.EstablishOwner(ctx, storyID, creatorID); err != nil {
		t.Fatalf("EstablishOwner failed: %v", err)
	}

	// A double-fired creation event must be success, not conflict.
	if err := store.EstablishOwner(ctx, storyID, creatorID); err != nil {
		t.Fatalf("second EstablishOwner should be a no-op success, got %v", err)
	}

	owners, err := store.CountOwners(ctx, storyID)
	if err != nil {
		t.Fatalf("CountOwners failed: %v", err)
	}
	if owners != 1 {
		t.Errorf("owners: got %d, want 1", owners)
	}
}

func TestStore_EstablishOwner_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	creatorID := primitive.NewObjectID()

	// Two racing creation events: the unique index picks one winner and
	// the loser's duplicate key is swallowed, so neither call errors.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.EstablishOwner(ctx, storyID, creatorID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("EstablishOwner call %d surfaced %v, want nil", i, err)
		}
	}

	owners, err := store.CountOwners(ctx, storyID)
	if err != nil {
		t.Fatalf("CountOwners failed: %v", err)
	}
	if owners != 1 {
		t.Errorf("owners: got %d, want 1", owners)
	}
}

func TestStore_Remove_AbsentIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Remove(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("removing an absent membership should be a no-op, got %v", err)
	}
}

func TestStore_Remove_LastOwnerRefused(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	ownerID := primitive.NewObjectID()

	if err := store.EstablishOwner(ctx, storyID, ownerID); err != nil {
		t.Fatalf("EstablishOwner failed: %v", err)
	}

	err := store.Remove(ctx, storyID, ownerID)
	if !errors.Is(err, membershipstore.ErrLastOwner) {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}

	exists, err := store.Exists(ctx, storyID, ownerID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("refused removal must leave the owner row in place")
	}
}

func TestStore_Remove_OwnerWithCoOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	original := primitive.NewObjectID()
	coOwner := primitive.NewObjectID()

	if err := store.EstablishOwner(ctx, storyID, original); err != nil {
		t.Fatalf("EstablishOwner failed: %v", err)
	}
	if err := store.Add(ctx, storyID, coOwner, models.RoleOwner); err != nil {
		t.Fatalf("Add co-owner failed: %v", err)
	}

	// With a second owner in place, the original creator may leave.
	if err := store.Remove(ctx, storyID, original); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	owners, err := store.CountOwners(ctx, storyID)
	if err != nil {
		t.Fatalf("CountOwners failed: %v", err)
	}
	if owners != 1 {
		t.Errorf("owners: got %d, want 1", owners)
	}

	// And now the co-owner is the last owner and cannot leave.
	err = store.Remove(ctx, storyID, coOwner)
	if !errors.Is(err, membershipstore.ErrLastOwner) {
		t.Fatalf("expected ErrLastOwner for sole remaining owner, got %v", err)
	}
}

func TestStore_Remove_ConcurrentOwnerRemovals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	requireReplicaSet(t, db)

	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerA := primitive.NewObjectID()
	ownerB := primitive.NewObjectID()
	st := fixtures.CreateStory(ctx, "Contested", ownerA, false)
	fixtures.CreateMembership(ctx, st.ID, ownerB, models.RoleOwner)

	// Both owners leave at once. Each transaction deletes a different
	// row, but owner removal also writes the story document, so the two
	// transactions conflict: the loser retries after the winner commits,
	// recounts, and is refused as the last owner.
	log := zap.NewNop()
	remove := func(userID primitive.ObjectID) error {
		return txn.Run(ctx, db, log, func(ctx context.Context) error {
			return store.Remove(ctx, st.ID, userID)
		})
	}

	users := []primitive.ObjectID{ownerA, ownerB}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = remove(users[i])
		}(i)
	}
	wg.Wait()

	refused := 0
	for i, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, membershipstore.ErrLastOwner):
			refused++
		default:
			t.Fatalf("removal %d failed: %v", i, err)
		}
	}
	if refused != 1 {
		t.Errorf("refused removals: got %d, want 1", refused)
	}

	owners, err := store.CountOwners(ctx, st.ID)
	if err != nil {
		t.Fatalf("CountOwners failed: %v", err)
	}
	if owners != 1 {
		t.Errorf("owners after concurrent removals: got %d, want 1", owners)
	}
}

func TestStore_Remove_Member(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	ownerID := primitive.NewObjectID()
	memberID := primitive.NewObjectID()

	if err := store.EstablishOwner(ctx, storyID, ownerID); err != nil {
		t.Fatalf("EstablishOwner failed: %v", err)
	}
	if err := store.Add(ctx, storyID, memberID, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.Remove(ctx, storyID, memberID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	exists, err := store.Exists(ctx, storyID, memberID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected membership to be gone after Remove")
	}
}

func TestStore_HasRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	memberID := primitive.NewObjectID()

	if err := store.Add(ctx, storyID, memberID, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	isOwner, err := store.HasRole(ctx, storyID, memberID, models.RoleOwner)
	if err != nil {
		t.Fatalf("HasRole failed: %v", err)
	}
	if isOwner {
		t.Error("member must not satisfy the owner role check")
	}

	isMember, err := store.HasRole(ctx, storyID, memberID, models.RoleMember)
	if err != nil {
		t.Fatalf("HasRole failed: %v", err)
	}
	if !isMember {
		t.Error("expected member role check to pass")
	}
}

func TestStore_ListByStoryAndUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyA := primitive.NewObjectID()
	storyB := primitive.NewObjectID()
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()

	if err := store.EstablishOwner(ctx, storyA, user); err != nil {
		t.Fatalf("EstablishOwner failed: %v", err)
	}
	if err := store.Add(ctx, storyB, user, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, storyA, other, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	byStory, err := store.ListByStory(ctx, storyA)
	if err != nil {
		t.Fatalf("ListByStory failed: %v", err)
	}
	if len(byStory) != 2 {
		t.Fatalf("ListByStory: got %d rows, want 2", len(byStory))
	}
	if byStory[0].Role != models.RoleOwner {
		t.Errorf("ListByStory order: first row role %q, want owners first", byStory[0].Role)
	}

	byUser, err := store.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("ListByUser: got %d rows, want 2", len(byUser))
	}

	ids, err := store.ListStoryIDsByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListStoryIDsByUser failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListStoryIDsByUser: got %d IDs, want 2", len(ids))
	}
}

func TestStore_DeleteByStory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	storyID := primitive.NewObjectID()
	if err := store.EstablishOwner(ctx, storyID, primitive.NewObjectID()); err != nil {
		t.Fatalf("EstablishOwner failed: %v", err)
	}
	if err := store.Add(ctx, storyID, primitive.NewObjectID(), models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	deleted, err := store.DeleteByStory(ctx, storyID)
	if err != nil {
		t.Fatalf("DeleteByStory failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted: got %d, want 2", deleted)
	}

	owners, err := store.CountOwners(ctx, storyID)
	if err != nil {
		t.Fatalf("CountOwners failed: %v", err)
	}
	if owners != 0 {
		t.Errorf("owners after cascade: got %d, want 0", owners)
	}
}
