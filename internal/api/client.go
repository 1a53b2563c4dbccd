// Package api is the HTTP client for the comment backend. It translates feed
// intents into authenticated requests and normalizes the backend's response
// shapes through the adapters in internal/comments; nothing outside this
// package builds comment API requests.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/comment-feed/internal/comments"
	"github.com/example/comment-feed/internal/session"
)

// ErrUnauthenticated is returned by mutating operations when no credential is
// present; no network call is made in that case.
var ErrUnauthenticated = errors.New("comment api: not authenticated")

const maxResponseBytes = 4 << 20

// ReactionKind selects the reaction endpoint.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// ReactionResult carries whichever shape the reaction endpoint answered with:
// the full updated comment, or counters only.
type ReactionResult struct {
	Comment *comments.Comment
	Counts  *comments.ReactionCounts
}

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

// List fetches one page of top-level comments.
func (c *Client) List(ctx context.Context, page, limit int, sort comments.SortKey) (comments.PageData, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sortBy", string(sort))

	body, err := c.do(ctx, http.MethodGet, "/comments?"+q.Encode(), nil, false)
	if err != nil {
		return comments.PageData{}, err
	}
	return comments.ParseList(body, page)
}

// Create posts a new top-level comment.
func (c *Client) Create(ctx context.Context, content string) (comments.Comment, error) {
	body, err := c.do(ctx, http.MethodPost, "/comments", map[string]string{"content": content}, true)
	if err != nil {
		return comments.Comment{}, err
	}
	return comments.ParseComment(body)
}

// Edit rewrites an existing comment's content.
func (c *Client) Edit(ctx context.Context, id comments.FlexID, content string) (comments.Comment, error) {
	body, err := c.do(ctx, http.MethodPut, "/comments/"+url.PathEscape(id.String()), map[string]string{"content": content}, true)
	if err != nil {
		return comments.Comment{}, err
	}
	return comments.ParseComment(body)
}

// Remove deletes a comment. The server returns no useful body; the caller
// already holds the id for store removal.
func (c *Client) Remove(ctx context.Context, id comments.FlexID) error {
	_, err := c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id.String()), nil, true)
	return err
}

// React registers a like or dislike. The server owns toggle semantics; the
// response reflects its authoritative post-mutation state, as either a full
// comment or reaction counters.
func (c *Client) React(ctx context.Context, id comments.FlexID, kind ReactionKind) (ReactionResult, error) {
	if kind != ReactionLike && kind != ReactionDislike {
		return ReactionResult{}, fmt.Errorf("comment api: unknown reaction kind %q", kind)
	}
	body, err := c.do(ctx, http.MethodPost, "/comments/"+url.PathEscape(id.String())+"/"+string(kind), struct{}{}, true)
	if err != nil {
		return ReactionResult{}, err
	}

	if full, err := comments.ParseComment(body); err == nil {
		return ReactionResult{Comment: &full}, nil
	}
	counts, err := comments.ParseReactionCounts(body)
	if err != nil {
		return ReactionResult{}, fmt.Errorf("comment api: unrecognized reaction response: %w", err)
	}
	return ReactionResult{Counts: &counts}, nil
}

// Reply posts a reply under the given parent. The returned reply always
// carries the parent id, inferred from the request when the payload omits it.
func (c *Client) Reply(ctx context.Context, id comments.FlexID, content string) (comments.Comment, error) {
	body, err := c.do(ctx, http.MethodPost, "/comments/"+url.PathEscape(id.String())+"/reply", map[string]string{"content": content}, true)
	if err != nil {
		return comments.Comment{}, err
	}
	reply, err := comments.ParseReply(body)
	if err != nil {
		return comments.Comment{}, err
	}
	if reply.ParentID.IsZero() {
		reply.ParentID = id
	}
	return reply, nil
}

// do issues one request. The bearer token is read from the session store at
// call time; reads proceed without it, while mutations (authRequired) fail
// fast with ErrUnauthenticated before any network I/O.
func (c *Client) do(ctx context.Context, method, path string, payload any, authRequired bool) ([]byte, error) {
	token := c.Sessions.Token()
	if authRequired && token == "" {
		return nil, ErrUnauthenticated
	}

	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("comment api: encode request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("comment api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.Log.Debug("comment api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, FromResponse(resp.StatusCode, b)
	}
	return b, nil
}
