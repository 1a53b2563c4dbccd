// Package feed holds the authoritative client-side view of the current page
// of comments. Every inbound source — list fetches, the user's own action
// results, and realtime pushes — mutates it through the same small operation
// vocabulary, deduplicated by identifier so at-least-once event delivery never
// produces visible duplicates.
package feed

import (
	"sync"

	"github.com/example/comment-feed/internal/comments"
)

// Page is a point-in-time copy of the store, safe to render without locks.
type Page struct {
	Comments      []comments.Comment
	CurrentPage   int
	TotalPages    int
	TotalComments int
	Sort          comments.SortKey
	Loading       bool
	Err           bool
	Message       string
}

// Store is safe for concurrent use; realtime handlers and the caller's own
// goroutine both write through it.
type Store struct {
	mu sync.RWMutex

	comments      []comments.Comment
	currentPage   int
	totalPages    int
	totalComments int
	sort          comments.SortKey

	loading bool
	err     bool
	message string
}

func New() *Store {
	return &Store{currentPage: 1, sort: comments.SortNewest}
}

// ReplacePage swaps in a freshly fetched page wholesale. No merge with prior
// content: the server's page is authoritative after a deliberate fetch.
func (s *Store) ReplacePage(items []comments.Comment, totalPages, currentPage, totalComments int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments = make([]comments.Comment, len(items))
	copy(s.comments, items)
	s.totalPages = totalPages
	s.currentPage = currentPage
	s.totalComments = totalComments
}

// InsertCreated prepends a newly created top-level comment. A second insert
// with the same id (optimistic result followed by its realtime echo) is a
// no-op.
func (s *Store) InsertCreated(c comments.Comment) {
	if c.ID.IsZero() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID) >= 0 {
		return
	}
	s.comments = append([]comments.Comment{c}, s.comments...)
	s.totalComments++
}

// ReplaceByID overwrites an existing top-level comment in place. No-op when
// the id is not on the current page.
func (s *Store) ReplaceByID(c comments.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(c.ID); i >= 0 {
		s.comments[i] = c
	}
}

// PatchReactionCounts overwrites only the like/dislike counters of the target,
// preserving every other field. Used when the realtime channel sends counters
// instead of a full entity, so concurrently edited content is not clobbered.
func (s *Store) PatchReactionCounts(commentID comments.FlexID, likeCount, dislikeCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(commentID); i >= 0 {
		s.comments[i].LikeCount = likeCount
		s.comments[i].DislikeCount = dislikeCount
	}
}

// RemoveByID drops a top-level comment and decrements the total. No-op when
// absent, so a duplicate delete event changes nothing.
func (s *Store) RemoveByID(commentID comments.FlexID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(commentID)
	if i < 0 {
		return
	}
	s.comments = append(s.comments[:i], s.comments[i+1:]...)
	if s.totalComments > 0 {
		s.totalComments--
	}
}

// AppendReply attaches a reply to its parent, deduplicated by reply id.
// No-op when the parent is not on the current page: replies have no
// independent existence in the top-level feed.
func (s *Store) AppendReply(parentID comments.FlexID, reply comments.Comment) {
	if reply.ID.IsZero() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(parentID)
	if i < 0 {
		return
	}
	for _, r := range s.comments[i].Replies {
		if r.ID.Equal(reply.ID) {
			return
		}
	}
	s.comments[i].Replies = append(s.comments[i].Replies, reply)
	s.comments[i].ReplyCount++
}

// Reset clears the store to its initial unloaded state; called on view
// teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments = nil
	s.currentPage = 1
	s.totalPages = 0
	s.totalComments = 0
	s.sort = comments.SortNewest
	s.loading = false
	s.err = false
	s.message = ""
}

func (s *Store) SetSort(k comments.SortKey) {
	s.mu.Lock()
	s.sort = k
	s.mu.Unlock()
}

func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// SetError records a user-visible failure; surfaced once, cleared by the next
// attempted action.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	s.err = true
	s.message = message
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) ClearStatus() {
	s.mu.Lock()
	s.err = false
	s.message = ""
	s.mu.Unlock()
}

// Snapshot returns a deep-enough copy for rendering: the comment slice is
// copied, nested reply slices are shared but never mutated in place.
func (s *Store) Snapshot() Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]comments.Comment, len(s.comments))
	copy(items, s.comments)
	return Page{
		Comments:      items,
		CurrentPage:   s.currentPage,
		TotalPages:    s.totalPages,
		TotalComments: s.totalComments,
		Sort:          s.sort,
		Loading:       s.loading,
		Err:           s.err,
		Message:       s.message,
	}
}

// Get returns a copy of the comment with the given id.
func (s *Store) Get(id comments.FlexID) (comments.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.comments[i], true
	}
	return comments.Comment{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.comments)
}

// indexOf requires the caller to hold s.mu.
func (s *Store) indexOf(id comments.FlexID) int {
	if id.IsZero() {
		return -1
	}
	for i, c := range s.comments {
		if c.ID.Equal(id) {
			return i
		}
	}
	return -1
}
