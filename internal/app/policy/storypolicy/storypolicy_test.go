package storypolicy_test

import (
	"errors"
	"testing"

	"github.com/RoelandC/our-storybook-collective/internal/app/policy/storypolicy"
	membershipstore "github.com/RoelandC/our-storybook-collective/internal/app/store/memberships"
	storystore "github.com/RoelandC/our-storybook-collective/internal/app/store/stories"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/RoelandC/our-storybook-collective/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// The full lifecycle: creator makes a private story, gains every right
// through the bootstrap owner row, invites a member, flips the story
// public, and strangers gain view access only.
func TestPolicy_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := storystore.New(db, zap.NewNop())
	members := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID() // creator
	bob := primitive.NewObjectID()   // will be invited
	carol := primitive.NewObjectID() // stranger

	st, err := store.Create(ctx, models.Story{Title: "Trip to the Coast", CreatedByID: alice})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	check := func(name string, got bool, err error, want bool) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s errored: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}

	// Private story: only alice, through the owner row written by the
	// creation transaction.
	got, err := storypolicy.CanView(ctx, db, alice, st.ID)
	check("alice CanView", got, err, true)
	got, err = storypolicy.CanMutate(ctx, db, alice, st.ID)
	check("alice CanMutate", got, err, true)
	got, err = storypolicy.CanManageMembers(ctx, db, alice, st.ID)
	check("alice CanManageMembers", got, err, true)

	got, err = storypolicy.CanView(ctx, db, bob, st.ID)
	check("bob CanView (not yet a member)", got, err, false)
	got, err = storypolicy.CanView(ctx, db, primitive.NilObjectID, st.ID)
	check("anonymous CanView private", got, err, false)

	// Alice adds bob as a member.
	if err := members.Add(ctx, st.ID, bob, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err = storypolicy.CanView(ctx, db, bob, st.ID)
	check("bob CanView (member)", got, err, true)
	got, err = storypolicy.CanMutate(ctx, db, bob, st.ID)
	check("bob CanMutate (member, not owner)", got, err, false)
	got, err = storypolicy.CanManageMembers(ctx, db, bob, st.ID)
	check("bob CanManageMembers", got, err, false)

	// Carol still sees nothing.
	got, err = storypolicy.CanView(ctx, db, carol, st.ID)
	check("carol CanView private", got, err, false)

	// Alice makes the story public.
	if err := store.SetVisibility(ctx, st.ID, true); err != nil {
		t.Fatalf("SetVisibility failed: %v", err)
	}

	got, err = storypolicy.CanView(ctx, db, carol, st.ID)
	check("carol CanView public", got, err, true)
	got, err = storypolicy.CanView(ctx, db, primitive.NilObjectID, st.ID)
	check("anonymous CanView public", got, err, true)

	// Public does not mean writable.
	got, err = storypolicy.CanMutate(ctx, db, carol, st.ID)
	check("carol CanMutate public", got, err, false)
	got, err = storypolicy.CanManageMembers(ctx, db, carol, st.ID)
	check("carol CanManageMembers public", got, err, false)
	got, err = storypolicy.CanMutate(ctx, db, primitive.NilObjectID, st.ID)
	check("anonymous CanMutate public", got, err, false)
}

func TestPolicy_MissingStoryIsDenyNotError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	caller := primitive.NewObjectID()
	ghost := primitive.NewObjectID()

	got, err := storypolicy.CanView(ctx, db, caller, ghost)
	if err != nil {
		t.Fatalf("CanView errored: %v", err)
	}
	if got {
		t.Error("missing story must deny view")
	}

	got, err = storypolicy.CanMutate(ctx, db, caller, ghost)
	if err != nil {
		t.Fatalf("CanMutate errored: %v", err)
	}
	if got {
		t.Error("missing story must deny mutate")
	}

	got, err = storypolicy.CanManageMembers(ctx, db, caller, ghost)
	if err != nil {
		t.Fatalf("CanManageMembers errored: %v", err)
	}
	if got {
		t.Error("missing story must deny member management")
	}
}

func TestPolicy_OwnerInvariantViolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	// A story that exists with no owner row: only possible if the
	// creation transaction's atomicity was broken.
	st := fixtures.CreateStoryWithoutOwner(ctx, "Broken", creator, false)

	_, err := storypolicy.CanManageMembers(ctx, db, creator, st.ID)
	if !errors.Is(err, storypolicy.ErrOwnerInvariant) {
		t.Fatalf("expected ErrOwnerInvariant, got %v", err)
	}

	if err := storypolicy.VerifyOwnerInvariant(ctx, db, st.ID); !errors.Is(err, storypolicy.ErrOwnerInvariant) {
		t.Fatalf("VerifyOwnerInvariant: expected ErrOwnerInvariant, got %v", err)
	}
}

func TestPolicy_VerifyOwnerInvariant_HealthyAndMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	st := fixtures.CreateStory(ctx, "Healthy", owner, false)

	if err := storypolicy.VerifyOwnerInvariant(ctx, db, st.ID); err != nil {
		t.Fatalf("healthy story should pass, got %v", err)
	}

	// A story that does not exist has nothing to violate.
	if err := storypolicy.VerifyOwnerInvariant(ctx, db, primitive.NewObjectID()); err != nil {
		t.Fatalf("missing story should pass, got %v", err)
	}
}

func TestPolicy_CreatorColumnGrantsNothingAfterLeaving(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := storystore.New(db, zap.NewNop())
	members := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	st, err := store.Create(ctx, models.Story{Title: "Handover", CreatedByID: alice})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Alice brings in a co-owner, then leaves. The created_by_id column
	// still names her, but rights flow from membership rows only.
	if err := members.Add(ctx, st.ID, bob, models.RoleOwner); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := members.Remove(ctx, st.ID, alice); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	got, err := storypolicy.CanView(ctx, db, alice, st.ID)
	if err != nil {
		t.Fatalf("CanView errored: %v", err)
	}
	if got {
		t.Error("departed creator must not view a private story")
	}

	got, err = storypolicy.CanManageMembers(ctx, db, alice, st.ID)
	if err != nil {
		t.Fatalf("CanManageMembers errored: %v", err)
	}
	if got {
		t.Error("departed creator must not manage members")
	}

	got, err = storypolicy.CanManageMembers(ctx, db, bob, st.ID)
	if err != nil {
		t.Fatalf("CanManageMembers errored: %v", err)
	}
	if !got {
		t.Error("remaining owner must manage members")
	}
}
