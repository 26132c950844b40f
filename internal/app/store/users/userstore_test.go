package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/RoelandC/our-storybook-collective/internal/app/store/users"
	"github.com/RoelandC/our-storybook-collective/internal/domain/models"
	"github.com/RoelandC/our-storybook-collective/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName:   "Ada Lovelace",
		Email:      "ada@example.com",
		AuthMethod: "password",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.EmailCI == "" || created.FullNameCI == "" {
		t.Error("expected folded keys to be set")
	}
	if created.Status != "active" {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "First", Email: "same@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Same address, different case: folded key collides.
	_, err := store.Create(ctx, models.User{FullName: "Second", Email: "Same@Example.COM"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{FullName: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, "ADA@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got user %v, want %v", got.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_UpsertGoogle_CreatesOnFirstSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.UpsertGoogle(ctx, "new@example.com", "New Person")
	if err != nil {
		t.Fatalf("UpsertGoogle failed: %v", err)
	}
	if u.AuthMethod != "google" {
		t.Errorf("auth method: got %q, want %q", u.AuthMethod, "google")
	}
	if u.Status != "active" {
		t.Errorf("status: got %q, want active", u.Status)
	}
}

func TestStore_UpsertGoogle_KeepsExistingAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName:   "Password Person",
		Email:      "dual@example.com",
		AuthMethod: "password",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Signing in with Google keeps the existing account and ID, and
	// refreshes the display name from the Google profile.
	u, err := store.UpsertGoogle(ctx, "dual@example.com", "Google Name")
	if err != nil {
		t.Fatalf("UpsertGoogle failed: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("expected the existing account to be reused, got %v want %v", u.ID, created.ID)
	}
	if u.FullName != "Google Name" {
		t.Errorf("full name: got %q, want refreshed name", u.FullName)
	}
}

func TestStore_ListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.User{FullName: "A", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := store.Create(ctx, models.User{FullName: "B", Email: "b@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	users, err := store.ListByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2 (missing IDs are skipped)", len(users))
	}

	none, err := store.ListByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("ListByIDs(nil) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("empty input should return no users, got %d", len(none))
	}
}
