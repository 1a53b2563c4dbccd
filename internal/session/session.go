// Package session persists the authenticated session (bearer token + minimal
// profile) and normalizes the several shapes backends use to deliver it. The
// stored credential is read-only configuration for everything else in the
// client: it is re-read on every use and never cached.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/comment-feed/internal/comments"
)

// ErrNoToken reports a session payload that carried no usable credential.
var ErrNoToken = errors.New("session: no token in payload")

// Profile is the minimal user identity the feed needs for ownership checks.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the normalized persisted credential.
type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Store reads and writes the session file. A missing file simply means no
// session; it is not an error.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: strings.TrimSpace(path)}
}

// Current re-reads and normalizes the persisted session. Returns nil when no
// session exists or the file cannot be interpreted.
func (s *Store) Current() *Session {
	if s == nil || s.Path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil
	}
	sess, err := Normalize(raw)
	if err != nil {
		return nil
	}
	return sess
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Store) Token() string {
	if sess := s.Current(); sess != nil {
		return sess.Token
	}
	return ""
}

// SaveRaw normalizes a server-issued session payload and persists it.
func (s *Store) SaveRaw(raw []byte) (*Session, error) {
	sess, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Save(*sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) Save(sess Session) error {
	if strings.TrimSpace(sess.Token) == "" {
		return ErrNoToken
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	if err := os.WriteFile(s.Path, b, 0o600); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is fine.
func (s *Store) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

type rawSession struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"accessToken"`
	AccessSnake string          `json:"access_token"`
	Data        json.RawMessage `json:"data"`
	User        json.RawMessage `json:"user"`
	ID          comments.FlexID `json:"id"`
	MongoID     comments.FlexID `json:"_id"`
	Name        string          `json:"name"`
	Username    string          `json:"username"`
}

// Normalize extracts the token and profile from any of the tolerated session
// payload shapes: the token at the top level (token/accessToken/access_token)
// or nested under data or user, the profile likewise. When the payload carries
// no profile, identity falls back to the token's JWT claims.
func Normalize(raw []byte) (*Session, error) {
	sess := &Session{}
	fill(sess, raw, 0)
	if strings.TrimSpace(sess.Token) == "" {
		return nil, ErrNoToken
	}
	if sess.User.ID == "" || sess.User.Name == "" {
		claimsFallback(sess)
	}
	return sess, nil
}

func fill(sess *Session, raw []byte, depth int) {
	raw = bytes.TrimSpace(raw)
	if depth > 3 || len(raw) == 0 || raw[0] != '{' {
		return
	}
	var r rawSession
	if err := json.Unmarshal(raw, &r); err != nil {
		return
	}
	if sess.Token == "" {
		for _, t := range []string{r.Token, r.AccessToken, r.AccessSnake} {
			if strings.TrimSpace(t) != "" {
				sess.Token = strings.TrimSpace(t)
				break
			}
		}
	}
	if sess.User.ID == "" && r.ID.String() != "" {
		sess.User.ID = r.ID.String()
	}
	if sess.User.ID == "" && r.MongoID.String() != "" {
		sess.User.ID = r.MongoID.String()
	}
	if sess.User.Name == "" {
		if r.Name != "" {
			sess.User.Name = r.Name
		} else if r.Username != "" {
			sess.User.Name = r.Username
		}
	}
	fill(sess, r.User, depth+1)
	fill(sess, r.Data, depth+1)
}

// claimsFallback fills missing identity fields from the bearer token itself.
// The client holds no signing key, so the parse is unverified; the server
// remains the authority on the token's validity.
func claimsFallback(sess *Session) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, claims); err != nil {
		return
	}
	if sess.User.ID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			sess.User.ID = sub
		}
	}
	if sess.User.Name == "" {
		if name, ok := claims["name"].(string); ok {
			sess.User.Name = name
		}
	}
}
