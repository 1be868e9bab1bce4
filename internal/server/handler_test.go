package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	hierarchypersistence "github.com/maherrera/church-records/modules/hierarchy/infrastructure/persistence"
	profileports "github.com/maherrera/church-records/modules/profile/domain/ports"
	profiletypes "github.com/maherrera/church-records/modules/profile/domain/types"
	profilepersistence "github.com/maherrera/church-records/modules/profile/infrastructure/persistence"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("AUTHZ_MODE", "enforce")

	users := newMemoryUserStore()
	h, err := NewHandlerWithOptions(HandlerOptions{
		NodeStore:        hierarchypersistence.NewMemoryNodeStore(),
		ParishionerStore: hierarchypersistence.NewMemoryParishionerStore(),
		ProfileRegistry:  profilepersistence.NewMemoryRegistry(),
		UserStore:        users,
		SessionStore:     newMemorySessionStore(),
		IdentityProvider: newLocalIdentityProvider(users),
	})
	if err != nil {
		t.Fatalf("NewHandlerWithOptions: %v", err)
	}
	return h
}

func doJSON(t *testing.T, h http.Handler, method string, path string, sid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: sidCookieName, Value: sid})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sidFromResponse(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sidCookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatalf("no sid cookie in response (status %d, body %s)", rec.Code, rec.Body.String())
	return ""
}

func registerUser(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/users", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body.String())
	}
	return sidFromResponse(t, rec)
}

func submitProfile(t *testing.T, h http.Handler, sid string, profile map[string]any) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/profile", sid, profile)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit profile: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	h := newTestHandler(t)
	registerUser(t, h, "ana@example.com")

	// Duplicate registration is rejected.
	rec := doJSON(t, h, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "ana@example.com",
		"name":     "Ana Again",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "ana@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body.String())
	}
	sid := sidFromResponse(t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/logout", sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: status %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/profile/me", sid, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d", rec.Code)
	}
}

func TestAnonymousIsRejected(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/unions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/profile/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: status %d", rec.Code)
	}
}

func TestProfilelessUserCannotWriteRecords(t *testing.T) {
	h := newTestHandler(t)
	sid := registerUser(t, h, "new@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/unions", sid, map[string]string{"name": "Union"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("profileless create: status %d, body %s", rec.Code, rec.Body.String())
	}

	// Reading unions stays open to every authenticated user.
	rec = doJSON(t, h, http.MethodGet, "/api/unions", sid, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profileless union list: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHierarchyCreateFlow(t *testing.T) {
	h := newTestHandler(t)
	sid := registerUser(t, h, "admin@example.com")
	submitProfile(t, h, sid, map[string]any{"level": "Admin", "createUnion": true})

	rec := doJSON(t, h, http.MethodPost, "/api/unions", sid, map[string]string{"name": "Union Seven"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create union: status %d, body %s", rec.Code, rec.Body.String())
	}
	var union struct {
		ID        string `json:"id"`
		CreatedBy string `json:"createdBy"`
		Date      string `json:"date"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &union); err != nil {
		t.Fatalf("decode union: %v", err)
	}
	if union.ID == "" || union.CreatedBy == "" || union.Date == "" {
		t.Fatalf("union audit fields missing: %s", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/associations", sid, map[string]string{
		"name":  "Assoc Seven",
		"union": union.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create association: status %d, body %s", rec.Code, rec.Body.String())
	}
	var assoc struct {
		ID    string `json:"id"`
		Union string `json:"union"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &assoc); err != nil {
		t.Fatalf("decode association: %v", err)
	}
	if assoc.Union != union.ID {
		t.Fatalf("association parent = %q, want %q", assoc.Union, union.ID)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/associations/"+assoc.ID, sid, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get association: status %d, body %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Ancestors []struct {
			Kind string `json:"kind"`
			ID   string `json:"id"`
		} `json:"ancestors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Ancestors) != 1 || detail.Ancestors[0].ID != union.ID {
		t.Fatalf("ancestors = %+v", detail.Ancestors)
	}
}

func TestScopedProfileDenialsCollapseToNotFound(t *testing.T) {
	h := newTestHandler(t)

	adminSID := registerUser(t, h, "admin@example.com")
	submitProfile(t, h, adminSID, map[string]any{"level": "Admin", "createUnion": true})

	mkNode := func(path string, body map[string]string) string {
		rec := doJSON(t, h, http.MethodPost, path, adminSID, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d, body %s", path, rec.Code, rec.Body.String())
		}
		var out struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out.ID
	}

	u1 := mkNode("/api/unions", map[string]string{"name": "Union One"})
	u2 := mkNode("/api/unions", map[string]string{"name": "Union Two"})
	a1 := mkNode("/api/associations", map[string]string{"name": "Assoc One", "union": u1})
	a2 := mkNode("/api/associations", map[string]string{"name": "Assoc Two", "union": u2})

	secSID := registerUser(t, h, "sec@example.com")
	submitProfile(t, h, secSID, map[string]any{
		"level":             "Secretaria",
		"createAssociation": true,
		"union":             u1,
	})

	// Foreign association: denied, indistinguishable from missing.
	denialEnvelope := func(rec *httptest.ResponseRecorder) (code string, message string) {
		var env struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		return env.Code, env.Message
	}

	rec := doJSON(t, h, http.MethodGet, "/api/associations/"+a2, secSID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get: status %d, body %s", rec.Code, rec.Body.String())
	}
	foreignCode, foreignMsg := denialEnvelope(rec)

	rec = doJSON(t, h, http.MethodGet, "/api/associations/no-such-id", secSID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing get: status %d", rec.Code)
	}
	missingCode, missingMsg := denialEnvelope(rec)
	if foreignCode != missingCode || foreignMsg != missingMsg {
		t.Fatalf("denials distinguishable: %q/%q vs %q/%q", foreignCode, foreignMsg, missingCode, missingMsg)
	}

	// Scoped listing shows only the caller's subtree.
	rec = doJSON(t, h, http.MethodGet, "/api/associations", secSID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("scoped list: status %d", rec.Code)
	}
	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != a1 {
		t.Fatalf("scoped list = %+v, want only %s", list, a1)
	}

	// A create naming the foreign union is rejected, not rewritten.
	rec = doJSON(t, h, http.MethodPost, "/api/associations", secSID, map[string]string{
		"name":  "Sneaky",
		"union": u2,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign-parent create: status %d, body %s", rec.Code, rec.Body.String())
	}
	foreignCode, foreignMsg = denialEnvelope(rec)

	// A create naming a union that does not exist answers identically, so
	// write payloads cannot probe which records exist.
	rec = doJSON(t, h, http.MethodPost, "/api/associations", secSID, map[string]string{
		"name":  "Ghost Parent",
		"union": "no-such-union",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing-parent create: status %d, body %s", rec.Code, rec.Body.String())
	}
	missingCode, missingMsg = denialEnvelope(rec)
	if foreignCode != missingCode || foreignMsg != missingMsg {
		t.Fatalf("create denials distinguishable: %q/%q vs %q/%q", foreignCode, foreignMsg, missingCode, missingMsg)
	}
}

func TestProfileVisibilityOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	adminSID := registerUser(t, h, "admin@example.com")
	submitProfile(t, h, adminSID, map[string]any{"level": "Admin", "createUnion": true})

	secSID := registerUser(t, h, "sec@example.com")
	submitProfile(t, h, secSID, map[string]any{"level": "Secretaria"})

	rec := doJSON(t, h, http.MethodGet, "/api/profile", adminSID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: status %d", rec.Code)
	}

	// Secretaria may not list profiles at all: blocked by the route gate.
	rec = doJSON(t, h, http.MethodGet, "/api/profile", secSID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("secretaria list: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/profile/me", secSID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteProfileRemovesAccount(t *testing.T) {
	h := newTestHandler(t)
	sid := registerUser(t, h, "gone@example.com")
	submitProfile(t, h, sid, map[string]any{"level": "Secretaria"})

	rec := doJSON(t, h, http.MethodDelete, "/api/profile", sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete profile: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "gone@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login after delete: status %d", rec.Code)
	}
}

// failingRegistry simulates a profile registry outage: lookups error
// instead of reporting a missing profile.
type failingRegistry struct {
	profileports.Registry
	findErr error
}

func (f failingRegistry) FindByUser(ctx context.Context, userID string) (profiletypes.Profile, error) {
	return profiletypes.Profile{}, f.findErr
}

type failingUserStore struct {
	userStore
	getErr error
}

func (f failingUserStore) GetByID(ctx context.Context, id string) (User, error) {
	return User{}, f.getErr
}

func TestRegistryFailureIsNotADenial(t *testing.T) {
	t.Setenv("AUTHZ_MODE", "enforce")

	users := newMemoryUserStore()
	h, err := NewHandlerWithOptions(HandlerOptions{
		NodeStore:        hierarchypersistence.NewMemoryNodeStore(),
		ParishionerStore: hierarchypersistence.NewMemoryParishionerStore(),
		ProfileRegistry: failingRegistry{
			Registry: profilepersistence.NewMemoryRegistry(),
			findErr:  errors.New("registry down"),
		},
		UserStore:        users,
		SessionStore:     newMemorySessionStore(),
		IdentityProvider: newLocalIdentityProvider(users),
	})
	if err != nil {
		t.Fatalf("NewHandlerWithOptions: %v", err)
	}

	sid := registerUser(t, h, "outage@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/districts", sid, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s; want 500", rec.Code, rec.Body.String())
	}
	var env struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Code != "internal_error" {
		t.Fatalf("code = %q, want internal_error, body %s", env.Code, rec.Body.String())
	}
}

func TestCallerProfileDistinguishesMissingFromFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/unions", nil)
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "u-1"}))

	prof, ok, err := callerProfile(req, profilepersistence.NewMemoryRegistry())
	if err != nil || !ok {
		t.Fatalf("missing profile: ok=%v err=%v, want flagless profile", ok, err)
	}
	if prof.UserID != "u-1" || prof.CreateUnion {
		t.Fatalf("profile = %+v, want empty flagless profile for u-1", prof)
	}

	_, _, err = callerProfile(req, failingRegistry{findErr: errors.New("registry down")})
	if err == nil {
		t.Fatalf("registry failure was swallowed")
	}
}

func TestSessionUserStoreFailureIsNotAnonymous(t *testing.T) {
	sessions := newMemorySessionStore()
	sid, err := sessions.Create(context.Background(), "u-1", time.Now().Add(time.Hour), "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("request passed through as anonymous")
	})
	h := withSession(nil, sessions, failingUserStore{getErr: errors.New("user store down")}, next)

	req := httptest.NewRequest(http.MethodGet, "/api/unions", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: sidCookieName, Value: sid})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
