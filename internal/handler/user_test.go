package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/metrics"
	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/repository"
	"github.com/gatehouse/gatehouse/internal/service"
)

// fakeStore is an in-memory user store for handler tests. It mirrors the
// database's email uniqueness constraint.
type fakeStore struct {
	users map[string]*model.User
	order []string
	seq   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*model.User)}
}

func (f *fakeStore) CreateUser(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	// Spread CreatedAt so list ordering is deterministic
	f.seq++
	user.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	copied := *user
	f.users[user.ID] = &copied
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		if u, ok := f.users[f.order[i]]; ok {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, u := range f.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// userTestEnv bundles a router with its backing store. Requests go through
// the real chi routing so URL params resolve like in production.
type userTestEnv struct {
	router *chi.Mux
	store  *fakeStore
}

func newUserTestEnv() *userTestEnv {
	store := newFakeStore()
	svc := service.NewUserService(store, metrics.NewInMemory())
	h := NewUserHandler(svc, testLogger())

	router := chi.NewRouter()
	router.Route("/admin-api/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return &userTestEnv{router: router, store: store}
}

// do issues a request as the given admin session and decodes the JSON body
// into out when it is non-nil.
func (e *userTestEnv) do(t *testing.T, method, path string, body any, session *model.Session, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if session != nil {
		req = req.WithContext(auth.ContextWithSession(req.Context(), session))
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}

	return rec
}

func adminSession(email string) *model.Session {
	return &model.Session{Email: email, Role: model.RoleAdmin}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestUserHandler_List_Empty(t *testing.T) {
	env := newUserTestEnv()

	var users []*model.User
	rec := env.do(t, http.MethodGet, "/admin-api/users", nil, adminSession("admin@example.com"), &users)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if len(users) != 0 {
		t.Errorf("expected empty list, got %d users", len(users))
	}
}

func TestUserHandler_Create(t *testing.T) {
	env := newUserTestEnv()

	var created model.User
	rec := env.do(t, http.MethodPost, "/admin-api/users", map[string]string{
		"email": " New.User@Example.COM ",
		"name":  "New User",
	}, adminSession("admin@example.com"), &created)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if created.Email != "new.user@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.Role != model.RoleUser {
		t.Errorf("expected default role user, got %q", created.Role)
	}
	if created.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestUserHandler_Create_InvalidEmail(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(t, http.MethodPost, "/admin-api/users", map[string]string{
		"email": "not-an-email",
	}, adminSession("admin@example.com"), nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Valid email is required" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	env := newUserTestEnv()
	admin := adminSession("admin@example.com")

	if rec := env.do(t, http.MethodPost, "/admin-api/users", map[string]string{"email": "dupe@example.com"}, admin, nil); rec.Code != http.StatusOK {
		t.Fatalf("first create failed with %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/admin-api/users", map[string]string{"email": "DUPE@example.com"}, admin, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "User with this email already exists" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestUserHandler_Create_InvalidJSON(t *testing.T) {
	env := newUserTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/admin-api/users", bytes.NewReader([]byte("{not json")))
	req = req.WithContext(auth.ContextWithSession(req.Context(), adminSession("admin@example.com")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(t, http.MethodGet, "/admin-api/users/missing", nil, adminSession("admin@example.com"), nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "User not found" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestUserHandler_Update_TakenEmail(t *testing.T) {
	env := newUserTestEnv()
	admin := adminSession("admin@example.com")

	var alice, bob model.User
	env.do(t, http.MethodPost, "/admin-api/users", map[string]string{"email": "alice@example.com"}, admin, &alice)
	env.do(t, http.MethodPost, "/admin-api/users", map[string]string{"email": "bob@example.com"}, admin, &bob)

	rec := env.do(t, http.MethodPut, "/admin-api/users/"+bob.ID, map[string]string{
		"email": "alice@example.com",
	}, admin, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "User with this email already exists" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestUserHandler_Update_NotFound(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(t, http.MethodPut, "/admin-api/users/missing", map[string]string{
		"email": "alice@example.com",
	}, adminSession("admin@example.com"), nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestUserHandler_Delete_Self(t *testing.T) {
	env := newUserTestEnv()
	admin := adminSession("admin@example.com")

	var self model.User
	env.do(t, http.MethodPost, "/admin-api/users", map[string]string{
		"email": "admin@example.com",
		"role":  model.RoleAdmin,
	}, admin, &self)

	rec := env.do(t, http.MethodDelete, "/admin-api/users/"+self.ID, nil, admin, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Cannot delete yourself" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestUserHandler_Delete_NotFound(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(t, http.MethodDelete, "/admin-api/users/missing", nil, adminSession("admin@example.com"), nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

// TestUserHandler_AdminLifecycle walks the full management flow a single
// admin performs: seed users, verify ordering, promote one, try to delete
// themselves, then delete another and confirm it is gone.
func TestUserHandler_AdminLifecycle(t *testing.T) {
	env := newUserTestEnv()
	admin := adminSession("root@example.com")

	var self model.User
	env.do(t, http.MethodPost, "/admin-api/users", map[string]string{
		"email": "root@example.com",
		"role":  model.RoleAdmin,
	}, admin, &self)

	var members [3]model.User
	for i := range members {
		rec := env.do(t, http.MethodPost, "/admin-api/users", map[string]string{
			"email": fmt.Sprintf("member%d@example.com", i),
		}, admin, &members[i])
		if rec.Code != http.StatusOK {
			t.Fatalf("create member %d failed with %d", i, rec.Code)
		}
	}

	// Newest first
	var listed []*model.User
	env.do(t, http.MethodGet, "/admin-api/users", nil, admin, &listed)
	if len(listed) != 4 {
		t.Fatalf("expected 4 users, got %d", len(listed))
	}
	if listed[0].Email != "member2@example.com" {
		t.Errorf("expected newest user first, got %q", listed[0].Email)
	}

	// Promote member0 to admin via PUT
	var promoted model.User
	rec := env.do(t, http.MethodPut, "/admin-api/users/"+members[0].ID, map[string]string{
		"email": members[0].Email,
		"role":  model.RoleAdmin,
	}, admin, &promoted)
	if rec.Code != http.StatusOK {
		t.Fatalf("promotion failed with %d", rec.Code)
	}
	if promoted.Role != model.RoleAdmin {
		t.Errorf("expected role admin after promotion, got %q", promoted.Role)
	}

	// Self-delete refused
	if rec := env.do(t, http.MethodDelete, "/admin-api/users/"+self.ID, nil, admin, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected self-delete to return 400, got %d", rec.Code)
	}

	// Deleting someone else succeeds
	var deleted map[string]bool
	rec = env.do(t, http.MethodDelete, "/admin-api/users/"+members[1].ID, nil, admin, &deleted)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed with %d", rec.Code)
	}
	if !deleted["success"] {
		t.Error("expected success true in delete response")
	}

	if rec := env.do(t, http.MethodGet, "/admin-api/users/"+members[1].ID, nil, admin, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected deleted user to 404, got %d", rec.Code)
	}
}
