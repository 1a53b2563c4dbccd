// Package controller drives one feed view: it owns the page/sort intent,
// funnels fetch results and the user's own action results into the feed
// store, and is the only layer that turns failures into the store's
// user-visible error state.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/comment-feed/internal/api"
	"github.com/example/comment-feed/internal/comments"
	"github.com/example/comment-feed/internal/feed"
)

// Content validation failures, caught before any network call.
var (
	ErrEmptyContent   = errors.New("comment cannot be empty")
	ErrContentTooLong = errors.New("comment is too long")
)

// MaxContentLength matches the backend's form limit.
const MaxContentLength = 1000

// CommentAPI is the slice of the comment backend the controller needs.
// *api.Client implements it.
type CommentAPI interface {
	List(ctx context.Context, page, limit int, sort comments.SortKey) (comments.PageData, error)
	Create(ctx context.Context, content string) (comments.Comment, error)
	Edit(ctx context.Context, id comments.FlexID, content string) (comments.Comment, error)
	Remove(ctx context.Context, id comments.FlexID) error
	React(ctx context.Context, id comments.FlexID, kind api.ReactionKind) (api.ReactionResult, error)
	Reply(ctx context.Context, id comments.FlexID, content string) (comments.Comment, error)
}

var _ CommentAPI = (*api.Client)(nil)

type Controller struct {
	Store *feed.Store
	API   CommentAPI
	Log   *zap.Logger

	// Confirm gates irreversible actions; nil means no confirmation step.
	Confirm func(prompt string) bool

	mu   sync.Mutex
	page int
	size int
	sort comments.SortKey
	seq  uint64 // latest issued list fetch; stale responses are discarded
}

func New(store *feed.Store, client CommentAPI, pageSize int, log *zap.Logger) *Controller {
	if pageSize <= 0 {
		pageSize = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		Store: store,
		API:   client,
		Log:   log,
		page:  1,
		size:  pageSize,
		sort:  comments.SortNewest,
	}
}

func (c *Controller) Page() int { c.mu.Lock(); defer c.mu.Unlock(); return c.page }

func (c *Controller) Sort() comments.SortKey { c.mu.Lock(); defer c.mu.Unlock(); return c.sort }

// Load fetches the current page. Each issued fetch carries a sequence number;
// only the latest issued fetch may apply its ReplacePage, so a slow response
// from a superseded page/sort intent is discarded instead of clobbering the
// newer result.
func (c *Controller) Load(ctx context.Context) error {
	c.Store.ClearStatus()
	c.Store.SetLoading(true)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	page, size, sort := c.page, c.size, c.sort
	c.mu.Unlock()

	pd, err := c.API.List(ctx, page, size, sort)

	c.mu.Lock()
	stale := seq != c.seq
	c.mu.Unlock()
	if stale {
		c.Log.Debug("discarding stale list response", zap.Int("page", page))
		return nil
	}

	c.Store.SetLoading(false)
	if err != nil {
		return c.fail(err)
	}

	c.Store.ReplacePage(pd.Comments, pd.TotalPages, pd.Page, pd.TotalComments)
	c.Store.SetSort(sort)
	return nil
}

// SetPage moves to page n (1-based) and reloads.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.page = n
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetSort switches the sort order, resets to page 1 and reloads.
func (c *Controller) SetSort(ctx context.Context, key comments.SortKey) error {
	c.mu.Lock()
	c.sort = key
	c.page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// Post creates a top-level comment and prepends it to the store. The realtime
// echo of the same creation dedups against this insert by id.
func (c *Controller) Post(ctx context.Context, content string) error {
	c.Store.ClearStatus()
	if err := validateContent(content); err != nil {
		return c.fail(err)
	}
	created, err := c.API.Create(ctx, content)
	if err != nil {
		return c.fail(err)
	}
	c.Store.InsertCreated(created)
	return nil
}

// Edit rewrites a comment's content and replaces it in place.
func (c *Controller) Edit(ctx context.Context, id comments.FlexID, content string) error {
	c.Store.ClearStatus()
	if err := validateContent(content); err != nil {
		return c.fail(err)
	}
	updated, err := c.API.Edit(ctx, id, content)
	if err != nil {
		return c.fail(err)
	}
	c.Store.ReplaceByID(updated)
	return nil
}

// Delete removes a comment after the confirmation hook approves; deletion is
// irreversible. A declined confirmation is a quiet no-op.
func (c *Controller) Delete(ctx context.Context, id comments.FlexID) error {
	c.Store.ClearStatus()
	if c.Confirm != nil && !c.Confirm("Are you sure you want to delete this comment?") {
		return nil
	}
	if err := c.API.Remove(ctx, id); err != nil {
		return c.fail(err)
	}
	c.Store.RemoveByID(id)
	return nil
}

func (c *Controller) Like(ctx context.Context, id comments.FlexID) error {
	return c.react(ctx, id, api.ReactionLike)
}

func (c *Controller) Dislike(ctx context.Context, id comments.FlexID) error {
	return c.react(ctx, id, api.ReactionDislike)
}

func (c *Controller) react(ctx context.Context, id comments.FlexID, kind api.ReactionKind) error {
	c.Store.ClearStatus()
	res, err := c.API.React(ctx, id, kind)
	if err != nil {
		return c.fail(err)
	}
	switch {
	case res.Comment != nil:
		c.Store.ReplaceByID(*res.Comment)
	case res.Counts != nil:
		c.Store.PatchReactionCounts(res.Counts.CommentID, res.Counts.LikeCount, res.Counts.DislikeCount)
	}
	return nil
}

// Reply posts a reply and attaches it under its parent.
func (c *Controller) Reply(ctx context.Context, id comments.FlexID, content string) error {
	c.Store.ClearStatus()
	if err := validateContent(content); err != nil {
		return c.fail(err)
	}
	reply, err := c.API.Reply(ctx, id, content)
	if err != nil {
		return c.fail(err)
	}
	c.Store.AppendReply(reply.ParentID, reply)
	return nil
}

// fail writes the normalized message into the store's error state and passes
// the error through to the caller.
func (c *Controller) fail(err error) error {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		c.Store.SetError(apiErr.Message)
	case errors.Is(err, api.ErrUnauthenticated):
		c.Store.SetError("Not authenticated")
	default:
		c.Store.SetError(err.Error())
	}
	return err
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}
