package comments

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageData is a normalized list response: one page of comments plus the
// server's pagination metadata.
type PageData struct {
	Comments      []Comment
	Page          int
	TotalPages    int
	TotalComments int
}

// ReactionCounts is the counters-only reaction payload some endpoints and
// realtime events send instead of a full comment.
type ReactionCounts struct {
	CommentID    FlexID
	LikeCount    int
	DislikeCount int
}

type rawListEnvelope struct {
	Data     []Comment `json:"data"`
	Comments []Comment `json:"comments"`

	Page        *int `json:"page"`
	CurrentPage *int `json:"currentPage"`

	Pages      *int `json:"pages"`
	TotalPages *int `json:"totalPages"`
	PageCount  *int `json:"page_count"`

	Total         *int `json:"total"`
	TotalComments *int `json:"totalComments"`
	Count         *int `json:"count"`
}

// ParseList decodes a list response. The endpoint returns either a bare JSON
// array or an envelope whose data and pagination fields go by several names
// depending on the backend version. fallbackPage is the page the caller asked
// for, used when the server omits its own page field.
func ParseList(body []byte, fallbackPage int) (PageData, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return PageData{}, fmt.Errorf("parse list: empty body")
	}

	if body[0] == '[' {
		var items []Comment
		if err := json.Unmarshal(body, &items); err != nil {
			return PageData{}, fmt.Errorf("parse list: %w", err)
		}
		return PageData{Comments: items, Page: fallbackPage, TotalPages: 1, TotalComments: len(items)}, nil
	}

	var env rawListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PageData{}, fmt.Errorf("parse list: %w", err)
	}

	pd := PageData{Comments: env.Data}
	if pd.Comments == nil {
		pd.Comments = env.Comments
	}
	if pd.Comments == nil {
		pd.Comments = []Comment{}
	}

	pd.Page = firstInt(fallbackPage, env.Page, env.CurrentPage)
	pd.TotalPages = firstInt(1, env.Pages, env.TotalPages, env.PageCount)
	pd.TotalComments = firstInt(len(pd.Comments), env.Total, env.TotalComments, env.Count)
	return pd, nil
}

// ParseComment decodes a single-comment response, unwrapping the
// {success, message, data} envelope when present.
func ParseComment(body []byte) (Comment, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Comment{}, fmt.Errorf("parse comment: empty body")
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(bytes.TrimSpace(env.Data)) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		body = env.Data
	}

	var c Comment
	if err := json.Unmarshal(body, &c); err != nil {
		return Comment{}, fmt.Errorf("parse comment: %w", err)
	}
	if c.ID.IsZero() {
		return Comment{}, fmt.Errorf("parse comment: missing id")
	}
	return c, nil
}

// ParseReply decodes a created-reply payload. The reply arrives either bare
// (with its own parent field) or wrapped as {reply, parentCommentId}. The
// returned reply always has ParentID set when the payload allowed it.
func ParseReply(body []byte) (Comment, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Comment{}, fmt.Errorf("parse reply: empty body")
	}

	var wrapper struct {
		Data            json.RawMessage `json:"data"`
		Reply           json.RawMessage `json:"reply"`
		ParentCommentID FlexID          `json:"parentCommentId"`
	}
	parent := FlexID("")
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if len(bytes.TrimSpace(wrapper.Data)) > 0 && !bytes.Equal(bytes.TrimSpace(wrapper.Data), []byte("null")) {
			// envelope may nest the wrapper one level down
			return ParseReply(wrapper.Data)
		}
		if len(bytes.TrimSpace(wrapper.Reply)) > 0 {
			body = wrapper.Reply
			parent = wrapper.ParentCommentID
		}
	}

	var reply Comment
	if err := json.Unmarshal(body, &reply); err != nil {
		return Comment{}, fmt.Errorf("parse reply: %w", err)
	}
	if reply.ID.IsZero() {
		return Comment{}, fmt.Errorf("parse reply: missing id")
	}
	if reply.ParentID.IsZero() {
		reply.ParentID = parent
	}
	return reply, nil
}

// ParseDeletedID extracts the target id from a deletion payload, which is
// either a bare id or an object wrapping one.
func ParseDeletedID(body []byte) (FlexID, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", fmt.Errorf("parse deleted id: empty body")
	}

	if body[0] != '{' {
		var id FlexID
		if err := json.Unmarshal(body, &id); err != nil {
			return "", fmt.Errorf("parse deleted id: %w", err)
		}
		if id.IsZero() {
			return "", fmt.Errorf("parse deleted id: empty id")
		}
		return id, nil
	}

	var obj struct {
		CommentID FlexID `json:"commentId"`
		Snake     FlexID `json:"comment_id"`
		ID        FlexID `json:"id"`
		MongoID   FlexID `json:"_id"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("parse deleted id: %w", err)
	}
	for _, id := range []FlexID{obj.CommentID, obj.Snake, obj.ID, obj.MongoID} {
		if !id.IsZero() {
			return id, nil
		}
	}
	return "", fmt.Errorf("parse deleted id: no recognizable id field")
}

// ParseReactionCounts decodes a counters-only reaction payload.
func ParseReactionCounts(body []byte) (ReactionCounts, error) {
	var obj struct {
		CommentID    FlexID `json:"commentId"`
		Snake        FlexID `json:"comment_id"`
		ID           FlexID `json:"id"`
		LikeCount    *int   `json:"likeCount"`
		DislikeCount *int   `json:"dislikeCount"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil {
		return ReactionCounts{}, fmt.Errorf("parse reaction counts: %w", err)
	}
	rc := ReactionCounts{CommentID: obj.CommentID}
	if rc.CommentID.IsZero() {
		rc.CommentID = obj.Snake
	}
	if rc.CommentID.IsZero() {
		rc.CommentID = obj.ID
	}
	if rc.CommentID.IsZero() {
		return ReactionCounts{}, fmt.Errorf("parse reaction counts: missing comment id")
	}
	if obj.LikeCount == nil && obj.DislikeCount == nil {
		return ReactionCounts{}, fmt.Errorf("parse reaction counts: no counters present")
	}
	if obj.LikeCount != nil {
		rc.LikeCount = *obj.LikeCount
	}
	if obj.DislikeCount != nil {
		rc.DislikeCount = *obj.DislikeCount
	}
	return rc, nil
}

func firstInt(fallback int, candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return fallback
}
