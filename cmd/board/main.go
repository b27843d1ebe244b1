package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mccayce/qboard/internal/client"
	"github.com/mccayce/qboard/internal/config"
	"github.com/mccayce/qboard/internal/db"
	"github.com/mccayce/qboard/internal/feed"
	"github.com/mccayce/qboard/internal/logging"
	"github.com/mccayce/qboard/internal/poller"
	"github.com/mccayce/qboard/internal/voter"
)

func printHelp(w io.Writer) {
	fmt.Fprint(w, `board: terminal view of the question board

Usage:
  board [-url URL] feed     public feed
  board [-url URL] admin    moderation view

Feed commands:
  ask <text>    submit a question
  up <n>        upvote item n

Admin commands:
  hide <n>      hide item n
  unhide <n>    unhide item n
  del <n>       delete item n
  clear         delete every question

Both:
  refresh       reload now
  away, back    slow down / resume polling
  quit          exit
`)
}

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	apiURL := fs.String("url", "", "question endpoint (default $BOARD_API_URL)")
	fs.Usage = func() { printHelp(fs.Output()) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if fs.NArg() != 1 {
		printHelp(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.APIURL)
	view := feed.NewTextView(os.Stdout)
	in := bufio.NewScanner(os.Stdin)

	switch fs.Arg(0) {
	case "feed":
		tracker, err := openTracker(ctx, cfg.StateDB, logger)
		if err != nil {
			logger.Fatal("open voter state", zap.Error(err))
		}
		f := feed.NewFeed(api, tracker, view, logger)
		runFeed(ctx, f, in, view)
	case "admin":
		m := feed.NewModeration(api, view, logger)
		runModeration(ctx, m, in, view)
	default:
		printHelp(os.Stderr)
		os.Exit(2)
	}
}

func openTracker(ctx context.Context, path string, logger *zap.Logger) (*voter.Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	conn, err := db.Open("sqlite://"+path, logger, &db.KVEntry{})
	if err != nil {
		return nil, err
	}
	return voter.Load(ctx, db.NewKV(conn), logger), nil
}

type renderer interface {
	Render(ctx context.Context)
}

func runFeed(ctx context.Context, f *feed.Feed, in *bufio.Scanner, view *feed.TextView) {
	p := poller.New(poller.FeedVisible, poller.FeedHidden, f.Render)
	p.Start(ctx)
	defer p.Stop()
	f.Render(ctx)

	pick := func(arg string) (string, error) {
		items := f.Items()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(items) {
			return "", fmt.Errorf("no item %q", arg)
		}
		return items[n-1].ID, nil
	}

	loop(ctx, in, func(cmd, arg string) bool {
		switch cmd {
		case "ask":
			if err := f.Submit(ctx, arg); errors.Is(err, feed.ErrEmptyQuestion) {
				view.ShowStatus("Type a question first.")
			}
		case "up":
			id, err := pick(arg)
			if err != nil {
				view.ShowStatus(err.Error())
				return true
			}
			switch err := f.Upvote(ctx, id); {
			case errors.Is(err, feed.ErrAlreadyVoted):
				view.ShowStatus("Already upvoted.")
			case err != nil:
				view.ShowStatus("Couldn't upvote right now.")
			}
		default:
			return common(ctx, cmd, p, f, view)
		}
		return true
	})
}

func runModeration(ctx context.Context, m *feed.Moderation, in *bufio.Scanner, view *feed.TextView) {
	p := poller.New(poller.ModerationVisible, poller.ModerationHidden, m.Render)
	p.Start(ctx)
	defer p.Stop()
	m.Render(ctx)

	pick := func(arg string) (string, error) {
		items := m.Items()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(items) {
			return "", fmt.Errorf("no item %q", arg)
		}
		return items[n-1].ID, nil
	}
	act := func(arg string, fn func(context.Context, string) error) {
		id, err := pick(arg)
		if err != nil {
			view.ShowStatus(err.Error())
			return
		}
		if err := fn(ctx, id); err != nil {
			view.ShowStatus("Action failed: " + err.Error())
		}
	}

	confirming := false
	loop(ctx, in, func(cmd, arg string) bool {
		if confirming {
			confirming = false
			if cmd != "yes" {
				return true
			}
			if err := m.ClearAll(ctx); err != nil {
				view.ShowStatus("Action failed: " + err.Error())
			}
			return true
		}
		switch cmd {
		case "hide":
			act(arg, m.Hide)
		case "unhide":
			act(arg, m.Unhide)
		case "del":
			act(arg, m.Delete)
		case "clear":
			view.ShowStatus("Delete all questions? (yes/no)")
			confirming = true
		default:
			return common(ctx, cmd, p, m, view)
		}
		return true
	})
}

func common(ctx context.Context, cmd string, p *poller.Poller, r renderer, view *feed.TextView) bool {
	switch cmd {
	case "refresh":
		r.Render(ctx)
	case "away":
		p.SetVisible(false)
	case "back":
		p.SetVisible(true)
	case "quit", "exit":
		return false
	case "help":
		printHelp(os.Stdout)
	case "":
	default:
		view.ShowStatus("unknown command " + strconv.Quote(cmd) + ", try help")
	}
	return true
}

// loop feeds stdin lines to handle until it returns false, stdin closes or
// ctx is done.
func loop(ctx context.Context, in *bufio.Scanner, handle func(cmd, arg string) bool) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			select {
			case lines <- in.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
			if !handle(cmd, strings.TrimSpace(arg)) {
				return
			}
		}
	}
}
