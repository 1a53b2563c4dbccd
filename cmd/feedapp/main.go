package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/comment-feed/internal/api"
	"github.com/example/comment-feed/internal/authapi"
	"github.com/example/comment-feed/internal/comments"
	"github.com/example/comment-feed/internal/controller"
	"github.com/example/comment-feed/internal/feed"
	"github.com/example/comment-feed/internal/platform/config"
	"github.com/example/comment-feed/internal/platform/logging"
	"github.com/example/comment-feed/internal/platform/run"
	"github.com/example/comment-feed/internal/realtime"
	"github.com/example/comment-feed/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	sessions := session.NewStore(cfg.SessionFile)
	store := feed.New()
	client := api.New(cfg.APIBaseURL, sessions, log)
	auth := authapi.New(cfg.APIBaseURL, sessions, log)

	app := &app{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		store:    store,
		auth:     auth,
		in:       bufio.NewReader(os.Stdin),
	}
	app.ctrl = controller.New(store, client, cfg.PageSize, log)
	app.ctrl.Confirm = app.confirm
	app.listener = realtime.New(cfg.NATSURL, sessions, store, log)

	r := run.New(log)
	code := r.WithSignals(app.loop)
	app.listener.Close()
	run.Exit(code)
}

type app struct {
	cfg      config.Config
	log      *zap.Logger
	sessions *session.Store
	store    *feed.Store
	ctrl     *controller.Controller
	auth     *authapi.Client
	listener *realtime.Listener
	in       *bufio.Reader
}

func (a *app) loop(ctx context.Context) error {
	if err := a.ctrl.Load(ctx); err != nil {
		a.log.Warn("initial load failed", zap.Error(err))
	}
	// best-effort: the feed works without realtime
	_ = a.listener.Start(ctx)

	a.render()
	fmt.Println(`Type "help" for commands.`)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Print("> ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			return nil // EOF
		}
		if done := a.handle(ctx, strings.TrimSpace(line)); done {
			return nil
		}
	}
}

// handle runs one command; returns true when the session should end.
func (a *app) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		a.store.Reset()
		return true

	case "help":
		printHelp()

	case "login":
		a.login(ctx, rest)

	case "register":
		a.register(ctx)

	case "logout":
		if err := a.auth.Logout(); err != nil {
			fmt.Println("error:", err)
			return false
		}
		a.listener.Close()
		fmt.Println("logged out")

	case "refresh":
		a.reload(ctx)

	case "post":
		if err := a.ctrl.Post(ctx, rest); err == nil {
			a.render()
		} else {
			a.showError()
		}

	case "edit":
		id, content, ok := idAndText(rest)
		if !ok {
			fmt.Println("usage: edit <id> <text>")
			return false
		}
		if err := a.ctrl.Edit(ctx, id, content); err == nil {
			a.render()
		} else {
			a.showError()
		}

	case "del", "delete":
		if rest == "" {
			fmt.Println("usage: del <id>")
			return false
		}
		if err := a.ctrl.Delete(ctx, comments.FlexID(rest)); err == nil {
			a.render()
		} else {
			a.showError()
		}

	case "like":
		a.reactCmd(ctx, rest, a.ctrl.Like)

	case "dislike":
		a.reactCmd(ctx, rest, a.ctrl.Dislike)

	case "reply":
		id, content, ok := idAndText(rest)
		if !ok {
			fmt.Println("usage: reply <id> <text>")
			return false
		}
		if err := a.ctrl.Reply(ctx, id, content); err == nil {
			a.render()
		} else {
			a.showError()
		}

	case "page":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			fmt.Println("usage: page <n>")
			return false
		}
		if err := a.ctrl.SetPage(ctx, n); err == nil {
			a.render()
		} else {
			a.showError()
		}

	case "sort":
		if err := a.ctrl.SetSort(ctx, comments.ParseSortKey(rest)); err == nil {
			a.render()
		} else {
			a.showError()
		}

	default:
		fmt.Printf("unknown command %q; type \"help\"\n", cmd)
	}
	return false
}

func (a *app) login(ctx context.Context, identifier string) {
	if identifier == "" {
		identifier = a.prompt("Email or phone: ")
	}
	password := a.prompt("Password: ")
	sess, err := a.auth.Login(ctx, identifier, password)
	if err != nil {
		fmt.Println("login failed:", errMessage(err))
		return
	}
	fmt.Printf("welcome, %s\n", displayName(sess))
	a.listener.Close()
	_ = a.listener.Start(ctx)
	a.reload(ctx)
}

func (a *app) register(ctx context.Context) {
	in := authapi.RegisterInput{
		Name:     a.prompt("Name: "),
		Email:    a.prompt("Email: "),
		Phone:    a.prompt("Phone: "),
		Password: a.prompt("Password: "),
		Confirm:  a.prompt("Confirm password: "),
	}
	sess, err := a.auth.Register(ctx, in)
	if err != nil {
		fmt.Println("registration failed:", errMessage(err))
		return
	}
	fmt.Printf("welcome, %s\n", displayName(sess))
	a.listener.Close()
	_ = a.listener.Start(ctx)
	a.reload(ctx)
}

func (a *app) reload(ctx context.Context) {
	if err := a.ctrl.Load(ctx); err != nil {
		a.showError()
		return
	}
	a.render()
}

func (a *app) reactCmd(ctx context.Context, rest string, do func(context.Context, comments.FlexID) error) {
	if rest == "" {
		fmt.Println("usage: like|dislike <id>")
		return
	}
	if err := do(ctx, comments.FlexID(rest)); err == nil {
		a.render()
	} else {
		a.showError()
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (a *app) confirm(question string) bool {
	answer := a.prompt(question + " [y/N] ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (a *app) showError() {
	p := a.store.Snapshot()
	if p.Err && p.Message != "" {
		fmt.Println("error:", p.Message)
	}
}

func idAndText(rest string) (comments.FlexID, string, bool) {
	id, text, _ := strings.Cut(rest, " ")
	text = strings.TrimSpace(text)
	if id == "" || text == "" {
		return "", "", false
	}
	return comments.FlexID(id), text, true
}

func errMessage(err error) string {
	var apiErr *api.Error
	if ok := asAPIError(err, &apiErr); ok {
		return apiErr.Message
	}
	return err.Error()
}
