package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/comment-feed/internal/api"
	"github.com/example/comment-feed/internal/session"
)

func newAuthServer(t *testing.T, loginStatus int, loginBody string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	r := chi.NewRouter()
	handler := func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.WriteHeader(loginStatus)
		_, _ = w.Write([]byte(loginBody))
	}
	r.Post("/auth/login", handler)
	r.Post("/auth/register", handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newSessions(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestLogin_PersistsSession(t *testing.T) {
	srv, _ := newAuthServer(t, http.StatusOK,
		`{"data":{"token":"tok-1","user":{"_id":"u1","name":"Ada"}}}`)
	sessions := newSessions(t)
	c := New(srv.URL, sessions, nil)

	sess, err := c.Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "tok-1" || sess.User.Name != "Ada" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if got := sessions.Token(); got != "tok-1" {
		t.Fatalf("session not persisted, token=%q", got)
	}
}

func TestLogin_MissingFields_NoNetworkCall(t *testing.T) {
	srv, calls := newAuthServer(t, http.StatusOK, `{}`)
	c := New(srv.URL, newSessions(t), nil)

	if _, err := c.Login(context.Background(), "", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := c.Login(context.Background(), "ada@example.com", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("validation errors must not reach the server, saw %d calls", *calls)
	}
}

func TestLogin_ServerError_Normalized(t *testing.T) {
	srv, _ := newAuthServer(t, http.StatusUnauthorized, `{"message":"invalid credentials"}`)
	c := New(srv.URL, newSessions(t), nil)

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if apiErr.Message != "invalid credentials" {
		t.Fatalf("expected server message, got %q", apiErr.Message)
	}
}

func TestRegister_Validation(t *testing.T) {
	srv, calls := newAuthServer(t, http.StatusOK, `{}`)
	c := New(srv.URL, newSessions(t), nil)
	ctx := context.Background()

	base := RegisterInput{
		Name: "Ada", Email: "ada@example.com", Phone: "+1 (555) 123-4567",
		Password: "pw12345", Confirm: "pw12345",
	}

	missing := base
	missing.Email = " "
	if _, err := c.Register(ctx, missing); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	shortPhone := base
	shortPhone.Phone = "12-34"
	if _, err := c.Register(ctx, shortPhone); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}

	mismatch := base
	mismatch.Confirm = "different"
	if _, err := c.Register(ctx, mismatch); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if *calls != 0 {
		t.Fatalf("validation errors must not reach the server, saw %d calls", *calls)
	}
}

func TestRegister_SendsFormWithoutConfirm(t *testing.T) {
	var payload map[string]string
	r := chi.NewRouter()
	r.Post("/auth/register", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"token":"tok-2","user":{"id":"u2","name":"Lin"}}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(srv.URL, newSessions(t), nil)
	_, err := c.Register(context.Background(), RegisterInput{
		Name: "Lin", Email: "lin@example.com", Phone: "5551234567",
		Password: "pw12345", Confirm: "pw12345",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := payload["confirm"]; ok {
		t.Fatal("confirm must never be sent to the server")
	}
	if payload["name"] != "Lin" || payload["phone"] != "5551234567" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	sessions := newSessions(t)
	if err := sessions.Save(session.Session{Token: "tok-1"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	c := New("http://unused", sessions, nil)

	if err := c.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.Current() != nil {
		t.Fatal("expected session cleared")
	}
}

func TestLogin_UnusableSessionPayload(t *testing.T) {
	srv, _ := newAuthServer(t, http.StatusOK, `{"ok":true}`) // 200 but no token anywhere
	c := New(srv.URL, newSessions(t), nil)

	if _, err := c.Login(context.Background(), "ada@example.com", "pw"); err == nil {
		t.Fatal("expected error for tokenless session payload")
	}
}
