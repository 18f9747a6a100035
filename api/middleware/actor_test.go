package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

func TestActorInjectsIdentity(t *testing.T) {
	actorID := uuid.New()
	var gotID uuid.UUID
	var gotRole enums.ActorRole

	handler := Actor(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = ActorIDFromContext(r.Context())
		gotRole = ActorRoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Id", actorID.String())
	req.Header.Set("X-Actor-Role", "arbiter")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != actorID {
		t.Fatalf("expected actor id %s, got %s", actorID, gotID)
	}
	if gotRole != enums.ActorRoleArbiter {
		t.Fatalf("expected arbiter role, got %s", gotRole)
	}
}

func TestActorDefaultsRoleToBuyer(t *testing.T) {
	var gotRole enums.ActorRole
	handler := Actor(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = ActorRoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Id", uuid.NewString())
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotRole != enums.ActorRoleBuyer {
		t.Fatalf("expected buyer default, got %s", gotRole)
	}
}

func TestActorRejectsMissingOrInvalidHeaders(t *testing.T) {
	handler := Actor(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := map[string]func(*http.Request){
		"missing id": func(r *http.Request) {},
		"bad id": func(r *http.Request) {
			r.Header.Set("X-Actor-Id", "not-a-uuid")
		},
		"bad role": func(r *http.Request) {
			r.Header.Set("X-Actor-Id", uuid.NewString())
			r.Header.Set("X-Actor-Role", "superadmin")
		},
	}
	for name, mutate := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}
