package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	logoutfeature "github.com/RoelandC/our-storybook-collective/internal/app/features/logout"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"go.uber.org/zap"
)

func TestHandleLogout(t *testing.T) {
	logger := zap.NewNop()
	if err := auth.InitSessionStore("test-session-key-0123456789ABCDEF", "storybook-test", "", false, logger); err != nil {
		t.Fatalf("session store init failed: %v", err)
	}
	h := logoutfeature.NewHandler(logger)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}

	// The session cookie is expired.
	for _, c := range rec.Result().Cookies() {
		if c.Name == "storybook-test" && c.MaxAge >= 0 {
			t.Errorf("expected session cookie to be expired, MaxAge=%d", c.MaxAge)
		}
	}
}
