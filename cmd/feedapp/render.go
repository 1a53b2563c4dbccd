package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/comment-feed/internal/api"
	"github.com/example/comment-feed/internal/comments"
	"github.com/example/comment-feed/internal/session"
)

func (a *app) render() {
	page := a.store.Snapshot()
	me := a.sessions.Current()

	var meID comments.FlexID
	var meName string
	if me != nil {
		meID = comments.FlexID(me.User.ID)
		meName = me.User.Name
	}

	fmt.Println()
	fmt.Printf("=== Comments (%d) — sort: %s", page.TotalComments, page.Sort)
	if meName != "" {
		fmt.Printf(" — signed in as %s", meName)
	}
	fmt.Println(" ===")

	if page.Loading {
		fmt.Println("Loading comments...")
		return
	}
	if len(page.Comments) == 0 {
		fmt.Println("No comments yet.")
	}

	for _, c := range page.Comments {
		renderComment(c, meID)
	}

	if page.TotalPages > 1 {
		fmt.Printf("-- page %d of %d --\n", page.CurrentPage, page.TotalPages)
	}
	if page.Err && page.Message != "" {
		fmt.Println("error:", page.Message)
	}
}

func renderComment(c comments.Comment, me comments.FlexID) {
	owner := ""
	if c.OwnedBy(me) {
		owner = " (you)"
	}
	liked := ""
	if c.LikedBy(me) {
		liked = " *liked*"
	} else if c.DislikedBy(me) {
		liked = " *disliked*"
	}

	fmt.Printf("[%s] %s%s — %s\n", c.ID, authorName(c.Author), owner, formatDate(c.CreatedAt))
	fmt.Printf("    %s\n", c.Content)
	fmt.Printf("    +%d / -%d%s", c.LikeCount, c.DislikeCount, liked)
	if c.ReplyCount > 0 {
		fmt.Printf(" — %d %s", c.ReplyCount, plural(c.ReplyCount, "reply", "replies"))
	}
	fmt.Println()

	for _, r := range c.Replies {
		fmt.Printf("      ↳ %s — %s\n        %s\n", authorName(r.Author), formatDate(r.CreatedAt), r.Content)
	}
}

func authorName(a comments.Author) string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return "Anonymous"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func displayName(sess *session.Session) string {
	if sess == nil {
		return "there"
	}
	if sess.User.Name != "" {
		return sess.User.Name
	}
	return sess.User.ID
}

func asAPIError(err error, target **api.Error) bool {
	return errors.As(err, target)
}

func printHelp() {
	fmt.Print(`commands:
  login [identifier]      sign in
  register                create an account
  logout                  drop the stored session
  post <text>             post a comment
  edit <id> <text>        edit your comment
  del <id>                delete your comment (asks for confirmation)
  like <id>               like a comment
  dislike <id>            dislike a comment
  reply <id> <text>       reply to a comment
  page <n>                jump to page n
  sort <key>              newest | oldest | mostLiked | mostDisliked
  refresh                 re-fetch the current page
  quit                    exit
`)
}
