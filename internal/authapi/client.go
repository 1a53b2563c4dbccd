// Package authapi is the client for the authentication backend: login and
// register, with client-side validation performed before any network call.
// Issued sessions are normalized and persisted through internal/session.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/example/comment-feed/internal/api"
	"github.com/example/comment-feed/internal/session"
)

// Validation failures; caught before the request is built.
var (
	ErrMissingFields    = errors.New("auth: please fill in all fields")
	ErrPasswordMismatch = errors.New("auth: passwords do not match")
	ErrInvalidPhone     = errors.New("auth: please enter a valid phone number")
)

const minPhoneDigits = 7

const maxResponseBytes = 1 << 20

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Sessions   *session.Store
	Log        *zap.Logger
}

func New(baseURL string, sessions *session.Store, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Sessions:   sessions,
		Log:        log,
	}
}

// RegisterInput is the registration form. Confirm is checked client-side and
// never sent to the server.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Confirm  string
}

// Login authenticates with an email-or-phone identifier and persists the
// issued session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*session.Session, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, ErrMissingFields
	}
	return c.authenticate(ctx, "/auth/login", map[string]string{
		"identifier": strings.TrimSpace(identifier),
		"password":   password,
	})
}

// Register creates an account and persists the issued session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*session.Session, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" ||
		strings.TrimSpace(in.Phone) == "" || in.Password == "" || in.Confirm == "" {
		return nil, ErrMissingFields
	}
	if countDigits(in.Phone) < minPhoneDigits {
		return nil, ErrInvalidPhone
	}
	if in.Password != in.Confirm {
		return nil, ErrPasswordMismatch
	}
	return c.authenticate(ctx, "/auth/register", map[string]string{
		"name":     strings.TrimSpace(in.Name),
		"email":    strings.TrimSpace(in.Email),
		"phone":    strings.TrimSpace(in.Phone),
		"password": in.Password,
	})
}

// Logout drops the persisted session. Purely local; the bearer token simply
// stops being presented.
func (c *Client) Logout() error {
	return c.Sessions.Clear()
}

func (c *Client) authenticate(ctx context.Context, path string, payload map[string]string) (*session.Session, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("auth: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &api.Error{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &api.Error{Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, api.FromResponse(resp.StatusCode, body)
	}

	sess, err := c.Sessions.SaveRaw(body)
	if err != nil {
		return nil, fmt.Errorf("auth: unusable session payload: %w", err)
	}
	c.Log.Info("authenticated", zap.String("user_id", sess.User.ID))
	return sess, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
