package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_NoUser(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	name, id, ok := authz.UserCtx(r)
	if ok {
		t.Error("expected ok=false for anonymous request")
	}
	if name != "" {
		t.Errorf("name: got %q, want empty", name)
	}
	if id != primitive.NilObjectID {
		t.Errorf("id: got %v, want NilObjectID", id)
	}
}

func TestUserCtx_ValidUser(t *testing.T) {
	uid := primitive.NewObjectID()
	r := httptest.NewRequest("GET", "/", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: uid.Hex(), Name: "Maya", Email: "maya@example.com"})

	name, id, ok := authz.UserCtx(r)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if name != "Maya" {
		t.Errorf("name: got %q, want %q", name, "Maya")
	}
	if id != uid {
		t.Errorf("id: got %v, want %v", id, uid)
	}
}

func TestUserCtx_MalformedID_FailsClosed(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "not-a-hex-id", Name: "Maya"})

	_, id, ok := authz.UserCtx(r)
	if ok {
		t.Error("expected ok=false for malformed session ID")
	}
	if id != primitive.NilObjectID {
		t.Errorf("id: got %v, want NilObjectID", id)
	}
}

func TestCallerID_Anonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := authz.CallerID(r); got != primitive.NilObjectID {
		t.Errorf("CallerID: got %v, want NilObjectID", got)
	}
}
