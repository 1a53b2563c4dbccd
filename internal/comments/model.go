// Package comments holds the client-side comment model and the adapters that
// normalize the backend's varying response shapes into it. All field probing
// lives here; callers only ever see the canonical types.
package comments

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// SortKey enumerates the feed sort orders accepted by the list endpoint.
type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortMostLiked    SortKey = "mostLiked"
	SortMostDisliked SortKey = "mostDisliked"
)

// ParseSortKey maps loose user input to a SortKey, defaulting to newest.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oldest":
		return SortOldest
	case "mostliked", "most-liked", "liked":
		return SortMostLiked
	case "mostdisliked", "most-disliked", "disliked":
		return SortMostDisliked
	default:
		return SortNewest
	}
}

// Author is a comment's user reference. The backend sends either a bare id or
// an object with id/name under several key aliases.
type Author struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

func (a *Author) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = Author{}
		return nil
	}
	if b[0] != '{' {
		// bare id (string or number)
		var id FlexID
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*a = Author{ID: id}
		return nil
	}
	var raw struct {
		MongoID  FlexID `json:"_id"`
		ID       FlexID `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.ID = raw.ID
	if a.ID.IsZero() {
		a.ID = raw.MongoID
	}
	a.Name = strings.TrimSpace(raw.Name)
	if a.Name == "" {
		a.Name = strings.TrimSpace(raw.Username)
	}
	return nil
}

// Comment is the canonical client-side comment. Replies are one level deep and
// carry ParentID back to their parent; they never appear in the top-level feed.
type Comment struct {
	ID           FlexID     `json:"id"`
	Content      string     `json:"content"`
	Author       Author     `json:"user"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	Likes        []FlexID   `json:"likes,omitempty"`
	Dislikes     []FlexID   `json:"dislikes,omitempty"`
	LikeCount    int        `json:"likeCount"`
	DislikeCount int        `json:"dislikeCount"`
	ParentID     FlexID     `json:"parentComment,omitempty"`
	Replies      []Comment  `json:"replies,omitempty"`
	ReplyCount   int        `json:"replyCount"`
}

type rawComment struct {
	MongoID      FlexID     `json:"_id"`
	ID           FlexID     `json:"id"`
	Content      string     `json:"content"`
	Text         string     `json:"text"`
	User         Author     `json:"user"`
	Author       Author     `json:"author"`
	CreatedAt    flexTime   `json:"createdAt"`
	CreatedSnake flexTime   `json:"created_at"`
	UpdatedAt    flexTime   `json:"updatedAt"`
	Likes        []FlexID   `json:"likes"`
	Dislikes     []FlexID   `json:"dislikes"`
	LikeCount    *int       `json:"likeCount"`
	DislikeCount *int       `json:"dislikeCount"`
	Parent       FlexID     `json:"parentComment"`
	ParentCamel  FlexID     `json:"parentCommentId"`
	ParentSnake  FlexID     `json:"parent_id"`
	Replies      []*Comment `json:"replies"`
	ReplyCount   *int       `json:"replyCount"`
}

func (c *Comment) UnmarshalJSON(b []byte) error {
	var raw rawComment
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = raw.normalize()
	return nil
}

func (r rawComment) normalize() Comment {
	c := Comment{
		Content:  r.Content,
		Likes:    r.Likes,
		Dislikes: r.Dislikes,
	}
	c.ID = r.ID
	if c.ID.IsZero() {
		c.ID = r.MongoID
	}
	if strings.TrimSpace(c.Content) == "" {
		c.Content = r.Text
	}
	c.Author = r.User
	if c.Author.ID.IsZero() && c.Author.Name == "" {
		c.Author = r.Author
	}
	c.CreatedAt = time.Time(r.CreatedAt)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Time(r.CreatedSnake)
	}
	if u := time.Time(r.UpdatedAt); !u.IsZero() {
		c.UpdatedAt = &u
	}
	// Counts may arrive precomputed; otherwise derive from the id sets.
	if r.LikeCount != nil {
		c.LikeCount = *r.LikeCount
	} else {
		c.LikeCount = len(r.Likes)
	}
	if r.DislikeCount != nil {
		c.DislikeCount = *r.DislikeCount
	} else {
		c.DislikeCount = len(r.Dislikes)
	}
	c.ParentID = r.Parent
	if c.ParentID.IsZero() {
		c.ParentID = r.ParentCamel
	}
	if c.ParentID.IsZero() {
		c.ParentID = r.ParentSnake
	}
	for _, rep := range r.Replies {
		if rep != nil {
			c.Replies = append(c.Replies, *rep)
		}
	}
	if r.ReplyCount != nil {
		c.ReplyCount = *r.ReplyCount
	} else {
		c.ReplyCount = len(c.Replies)
	}
	return c
}

// OwnedBy reports whether the given user id authored this comment.
func (c Comment) OwnedBy(userID FlexID) bool {
	return !userID.IsZero() && c.Author.ID.Equal(userID)
}

// LikedBy reports whether userID appears in the like set. Count-only payloads
// carry no membership information, so this can only answer from the set.
func (c Comment) LikedBy(userID FlexID) bool {
	return containsID(c.Likes, userID)
}

func (c Comment) DislikedBy(userID FlexID) bool {
	return containsID(c.Dislikes, userID)
}

func containsID(ids []FlexID, id FlexID) bool {
	for _, v := range ids {
		if v.Equal(id) {
			return true
		}
	}
	return false
}

// flexTime parses RFC3339-ish timestamps and epoch values, never failing the
// enclosing decode: unparseable input becomes the zero time.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = flexTime{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = flexTime{}
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if v, err := time.Parse(layout, s); err == nil {
				*t = flexTime(v)
				return nil
			}
		}
		*t = flexTime{}
		return nil
	}
	var epoch int64
	if err := json.Unmarshal(b, &epoch); err != nil {
		*t = flexTime{}
		return nil
	}
	if epoch > 1e12 {
		*t = flexTime(time.UnixMilli(epoch).UTC())
	} else {
		*t = flexTime(time.Unix(epoch, 0).UTC())
	}
	return nil
}
