// Package realtime keeps the feed fresh without re-fetching: it owns a single
// subscription on the shared comments topic and translates named push events
// into feed store operations. It is a best-effort enhancement layer — list
// fetches remain the source of truth, and malformed pushes are dropped, never
// surfaced to the user.
package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/comment-feed/internal/comments"
	"github.com/example/comment-feed/internal/feed"
	"github.com/example/comment-feed/internal/platform/natsconn"
	"github.com/example/comment-feed/internal/session"
)

// Topic is the single shared subject root all comment events publish under.
const Topic = "comments"

// State is the listener lifecycle.
type State int32

const (
	StateUnsubscribed State = iota
	StateConnecting
	StateSubscribed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateErrored:
		return "errored"
	default:
		return "unsubscribed"
	}
}

// Listener owns the connection and its teardown; one instance per view
// lifetime, so repeated mount/unmount cycles never leak subscriptions.
type Listener struct {
	URL      string
	Sessions *session.Store
	Store    *feed.Store
	Log      *zap.Logger

	mu    sync.Mutex
	nc    *nats.Conn
	sub   *nats.Subscription
	state State
}

func New(url string, sessions *session.Store, store *feed.Store, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{URL: url, Sessions: sessions, Store: store, Log: log}
}

// Start connects and subscribes. Without a credential the listener stays
// Unsubscribed for this view instance; that is not an error. Transport
// failures move it to Errored and are logged only — the feed still works
// through fetches.
func (l *Listener) Start(ctx context.Context) error {
	token := l.Sessions.Token()
	if token == "" {
		l.Log.Debug("realtime disabled: no credential")
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateConnecting || l.state == StateSubscribed {
		return nil
	}
	l.state = StateConnecting

	nc, err := natsconn.Connect(natsconn.Options{URL: l.URL, Token: token})
	if err != nil {
		l.state = StateErrored
		l.Log.Warn("realtime connect failed", zap.Error(err))
		return err
	}

	sub, err := nc.Subscribe(Topic+".>", l.handle)
	if err != nil {
		nc.Close()
		l.state = StateErrored
		l.Log.Warn("realtime subscribe failed", zap.Error(err))
		return err
	}

	l.nc = nc
	l.sub = sub
	l.state = StateSubscribed
	l.Log.Info("realtime subscribed", zap.String("topic", Topic))

	if ctx != nil {
		go func() {
			<-ctx.Done()
			l.Close()
		}()
	}
	return nil
}

// State reports the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close unsubscribes and releases the connection. Handlers are drained before
// returning so none fire against a torn-down store. Safe to call repeatedly.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sub != nil {
		_ = l.sub.Drain()
		l.sub = nil
	}
	if l.nc != nil {
		l.nc.Close()
		l.nc = nil
	}
	l.state = StateUnsubscribed
}

func (l *Listener) handle(m *nats.Msg) {
	l.dispatch(m.Subject, m.Data)
}

// dispatch maps one named event onto one store operation. Unrecognized
// subjects and payloads it cannot interpret are dropped; the store's
// id-keyed dedup makes redelivered events harmless.
func (l *Listener) dispatch(subject string, data []byte) {
	event := strings.TrimPrefix(subject, Topic+".")
	switch event {
	case "created":
		c, err := comments.ParseComment(data)
		if err != nil {
			l.drop(event, err)
			return
		}
		l.Store.InsertCreated(c)

	case "updated":
		c, err := comments.ParseComment(data)
		if err != nil {
			l.drop(event, err)
			return
		}
		l.Store.ReplaceByID(c)

	case "deleted":
		id, err := comments.ParseDeletedID(data)
		if err != nil {
			l.drop(event, err)
			return
		}
		l.Store.RemoveByID(id)

	case "liked", "disliked":
		// full entity when the publisher affords it, counters otherwise
		if c, err := comments.ParseComment(data); err == nil {
			l.Store.ReplaceByID(c)
			return
		}
		rc, err := comments.ParseReactionCounts(data)
		if err != nil {
			l.drop(event, err)
			return
		}
		l.Store.PatchReactionCounts(rc.CommentID, rc.LikeCount, rc.DislikeCount)

	case "reply":
		reply, err := comments.ParseReply(data)
		if err != nil {
			l.drop(event, err)
			return
		}
		if reply.ParentID.IsZero() {
			l.drop(event, errNoParent)
			return
		}
		l.Store.AppendReply(reply.ParentID, reply)

	default:
		l.Log.Debug("realtime: unknown event", zap.String("subject", subject))
	}
}

func (l *Listener) drop(event string, err error) {
	l.Log.Debug("realtime: dropped malformed payload",
		zap.String("event", event), zap.Error(err))
}

var errNoParent = errors.New("reply carries no parent id")
