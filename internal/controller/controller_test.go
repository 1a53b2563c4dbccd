package controller

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/comment-feed/internal/api"
	"github.com/example/comment-feed/internal/comments"
	"github.com/example/comment-feed/internal/feed"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	listFn  func(page, limit int, sort comments.SortKey) (comments.PageData, error)
	reactFn func(id comments.FlexID, kind api.ReactionKind) (api.ReactionResult, error)

	createErr error
	removeErr error

	listCalls   int
	createCalls int
	editCalls   int
	removeCalls int
	replyCalls  int
}

func (f *fakeAPI) List(_ context.Context, page, limit int, sort comments.SortKey) (comments.PageData, error) {
	f.listCalls++
	if f.listFn != nil {
		return f.listFn(page, limit, sort)
	}
	return comments.PageData{Page: page}, nil
}

func (f *fakeAPI) Create(_ context.Context, content string) (comments.Comment, error) {
	f.createCalls++
	if f.createErr != nil {
		return comments.Comment{}, f.createErr
	}
	return comments.Comment{ID: "new", Content: content}, nil
}

func (f *fakeAPI) Edit(_ context.Context, id comments.FlexID, content string) (comments.Comment, error) {
	f.editCalls++
	return comments.Comment{ID: id, Content: content}, nil
}

func (f *fakeAPI) Remove(_ context.Context, id comments.FlexID) error {
	f.removeCalls++
	return f.removeErr
}

func (f *fakeAPI) React(_ context.Context, id comments.FlexID, kind api.ReactionKind) (api.ReactionResult, error) {
	if f.reactFn != nil {
		return f.reactFn(id, kind)
	}
	return api.ReactionResult{}, nil
}

func (f *fakeAPI) Reply(_ context.Context, id comments.FlexID, content string) (comments.Comment, error) {
	f.replyCalls++
	return comments.Comment{ID: "r1", Content: content, ParentID: id}, nil
}

func page(ids ...string) comments.PageData {
	items := make([]comments.Comment, len(ids))
	for i, id := range ids {
		items[i] = comments.Comment{ID: comments.FlexID(id), Content: "body " + id}
	}
	return comments.PageData{Comments: items, Page: 1, TotalPages: 1, TotalComments: len(ids)}
}

func newController(f *fakeAPI) (*Controller, *feed.Store) {
	store := feed.New()
	return New(store, f, 10, nil), store
}

func TestLoad_ReplacesPage(t *testing.T) {
	f := &fakeAPI{listFn: func(p, _ int, _ comments.SortKey) (comments.PageData, error) {
		return page("c1", "c2"), nil
	}}
	ctrl, store := newController(f)

	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	p := store.Snapshot()
	if len(p.Comments) != 2 || p.TotalComments != 2 || p.Loading {
		t.Fatalf("unexpected store state: %+v", p)
	}
}

func TestLoad_StaleResponseDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	f := &fakeAPI{}
	f.listFn = func(p, _ int, sort comments.SortKey) (comments.PageData, error) {
		if sort == comments.SortNewest {
			close(entered)
			<-release // first fetch straggles
			return page("stale"), nil
		}
		return page("fresh1", "fresh2"), nil
	}
	ctrl, store := newController(f)

	done := make(chan error, 1)
	go func() { done <- ctrl.Load(context.Background()) }()
	<-entered

	// a newer intent supersedes the in-flight fetch
	if err := ctrl.SetSort(context.Background(), comments.SortMostLiked); err != nil {
		t.Fatalf("set sort: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale load must not error: %v", err)
	}

	p := store.Snapshot()
	if len(p.Comments) != 2 || p.Comments[0].ID != "fresh1" {
		t.Fatalf("stale response clobbered the newer page: %+v", p)
	}
	if p.Sort != comments.SortMostLiked {
		t.Fatalf("expected sort mostLiked, got %s", p.Sort)
	}
}

func TestSetSort_ResetsToPageOne(t *testing.T) {
	var gotPage int
	var gotSort comments.SortKey
	f := &fakeAPI{listFn: func(p, _ int, sort comments.SortKey) (comments.PageData, error) {
		gotPage, gotSort = p, sort
		return page("c1"), nil
	}}
	ctrl, store := newController(f)

	if err := ctrl.SetPage(context.Background(), 3); err != nil {
		t.Fatalf("set page: %v", err)
	}
	if gotPage != 3 {
		t.Fatalf("expected fetch for page 3, got %d", gotPage)
	}

	if err := ctrl.SetSort(context.Background(), comments.SortOldest); err != nil {
		t.Fatalf("set sort: %v", err)
	}
	if gotPage != 1 || gotSort != comments.SortOldest {
		t.Fatalf("sort change must reset to page 1, got page=%d sort=%s", gotPage, gotSort)
	}
	if store.Snapshot().Sort != comments.SortOldest {
		t.Fatal("store sort not updated")
	}
}

func TestPost_PrependsResult(t *testing.T) {
	f := &fakeAPI{listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
		return page("c1"), nil
	}}
	ctrl, store := newController(f)
	_ = ctrl.Load(context.Background())

	if err := ctrl.Post(context.Background(), "hello"); err != nil {
		t.Fatalf("post: %v", err)
	}
	p := store.Snapshot()
	if p.Comments[0].ID != "new" || p.TotalComments != 2 {
		t.Fatalf("expected new comment prepended, got %+v", p)
	}
}

func TestContentValidation_NoNetworkCall(t *testing.T) {
	f := &fakeAPI{}
	ctrl, store := newController(f)
	ctx := context.Background()

	if err := ctrl.Post(ctx, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if err := ctrl.Post(ctx, strings.Repeat("x", MaxContentLength+1)); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
	if err := ctrl.Edit(ctx, "c1", ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent on edit, got %v", err)
	}
	if err := ctrl.Reply(ctx, "c1", ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent on reply, got %v", err)
	}

	if f.createCalls != 0 || f.editCalls != 0 || f.replyCalls != 0 {
		t.Fatalf("validation failures must not call the API: %+v", f)
	}
	if p := store.Snapshot(); !p.Err || p.Message == "" {
		t.Fatalf("expected error surfaced in store, got %+v", p)
	}
}

func TestContentValidation_ExactLimitAccepted(t *testing.T) {
	f := &fakeAPI{}
	ctrl, _ := newController(f)

	if err := ctrl.Post(context.Background(), strings.Repeat("y", MaxContentLength)); err != nil {
		t.Fatalf("content at the limit must pass: %v", err)
	}
	if f.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", f.createCalls)
	}
}

func TestFail_MessageMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"api error message", &api.Error{Status: 422, Message: "content rejected"}, "content rejected"},
		{"unauthenticated", api.ErrUnauthenticated, "Not authenticated"},
		{"plain error", errors.New("connection reset"), "connection reset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeAPI{createErr: tc.err}
			ctrl, store := newController(f)

			if err := ctrl.Post(context.Background(), "hello"); err == nil {
				t.Fatal("expected error passed through")
			}
			p := store.Snapshot()
			if !p.Err || p.Message != tc.want {
				t.Fatalf("expected message %q, got %+v", tc.want, p)
			}
		})
	}
}

func TestDelete_ConfirmDeclined(t *testing.T) {
	f := &fakeAPI{listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
		return page("c1"), nil
	}}
	ctrl, store := newController(f)
	_ = ctrl.Load(context.Background())
	ctrl.Confirm = func(string) bool { return false }

	if err := ctrl.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("declined confirm is not an error: %v", err)
	}
	if f.removeCalls != 0 {
		t.Fatal("declined confirm must not call the API")
	}
	if store.Len() != 1 {
		t.Fatal("declined confirm must not touch the store")
	}
}

func TestDelete_ConfirmApproved(t *testing.T) {
	f := &fakeAPI{listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
		return page("c1", "c2"), nil
	}}
	ctrl, store := newController(f)
	_ = ctrl.Load(context.Background())
	ctrl.Confirm = func(string) bool { return true }

	if err := ctrl.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.removeCalls != 1 {
		t.Fatalf("expected one remove call, got %d", f.removeCalls)
	}
	p := store.Snapshot()
	if store.Len() != 1 || p.TotalComments != 1 {
		t.Fatalf("expected c1 removed, got %+v", p)
	}
}

func TestReact_FullCommentPath(t *testing.T) {
	f := &fakeAPI{
		listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
			return page("c1"), nil
		},
		reactFn: func(id comments.FlexID, kind api.ReactionKind) (api.ReactionResult, error) {
			return api.ReactionResult{Comment: &comments.Comment{
				ID: id, Content: "body c1", Likes: []comments.FlexID{"u1"}, LikeCount: 1,
			}}, nil
		},
	}
	ctrl, store := newController(f)
	_ = ctrl.Load(context.Background())

	if err := ctrl.Like(context.Background(), "c1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	got, _ := store.Get("c1")
	if got.LikeCount != 1 || !got.LikedBy("u1") {
		t.Fatalf("expected full replace, got %+v", got)
	}
}

func TestReact_CountersPath(t *testing.T) {
	f := &fakeAPI{
		listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
			return page("c1"), nil
		},
		reactFn: func(id comments.FlexID, kind api.ReactionKind) (api.ReactionResult, error) {
			return api.ReactionResult{Counts: &comments.ReactionCounts{
				CommentID: id, LikeCount: 4, DislikeCount: 1,
			}}, nil
		},
	}
	ctrl, store := newController(f)
	_ = ctrl.Load(context.Background())

	if err := ctrl.Dislike(context.Background(), "c1"); err != nil {
		t.Fatalf("dislike: %v", err)
	}
	got, _ := store.Get("c1")
	if got.LikeCount != 4 || got.DislikeCount != 1 {
		t.Fatalf("expected counters patched, got %+v", got)
	}
	if got.Content != "body c1" {
		t.Fatalf("counters patch clobbered content: %q", got.Content)
	}
}

func TestReply_AttachesUnderParent(t *testing.T) {
	f := &fakeAPI{listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
		return page("c1"), nil
	}}
	ctrl, store := newController(f)
	_ = ctrl.Load(context.Background())

	if err := ctrl.Reply(context.Background(), "c1", "re"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	got, _ := store.Get("c1")
	if len(got.Replies) != 1 || got.ReplyCount != 1 {
		t.Fatalf("expected reply attached, got %+v", got)
	}
}

func TestActionClearsPriorError(t *testing.T) {
	f := &fakeAPI{listFn: func(int, int, comments.SortKey) (comments.PageData, error) {
		return page("c1"), nil
	}}
	ctrl, store := newController(f)
	store.SetError("old failure")

	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if p := store.Snapshot(); p.Err || p.Message != "" {
		t.Fatalf("expected prior error cleared, got %+v", p)
	}
}
