package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/cache"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/config"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/console"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database"
	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/netstate"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/outbox"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/rest"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/resource"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/session"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/shutdown"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/submit"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/voting"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

var version string

func main() {
	ctx, done := shutdown.New()
	defer done()

	cfg := config.Client{}
	if err := envconfig.Process("", &cfg); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(cfg.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, cfg, done); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, cfg config.Client, done func()) error {
	logger := logging.FromContext(ctx).Named("main.realMain")
	logger.Debugf("%s %s, backend %s", resource.ProjectName, version, cfg.BackendURL)

	db, err := database.NewFromEnv(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	kvCache, err := cache.NewARC(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create arc cache: %w", err)
	}

	optionsCache, err := cache.NewARC(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create arc cache: %w", err)
	}

	kv := kvDb.New(db, kvCache)
	client := rest.NewClient(cfg.BackendURL, cfg.RequestTimeout)

	monitor := netstate.New(netstate.Config{Prober: client, Interval: cfg.ProbeInterval, Online: true})
	monitor.Check(ctx)

	box := outbox.New(outbox.Config{KV: kv, Remote: client, Net: monitor, RequestTimeout: cfg.RequestTimeout})
	if _, err := box.Load(ctx); err != nil {
		// A corrupt queue must not keep the session from starting.
		logger.Errorf("load outbox: %v", err)
	}

	store := session.New(session.Config{
		Remote:         client,
		KV:             kv,
		Outbox:         box,
		Options:        optionsCache,
		RequestTimeout: cfg.RequestTimeout,
	})
	store.Initialize(ctx)

	foreground := make(chan struct{}, 1)
	con := console.New(console.Config{
		Store: store,
		Submit: submit.New(submit.Config{
			Store:          store,
			Outbox:         box,
			Remote:         client,
			Net:            monitor,
			RequestTimeout: cfg.RequestTimeout,
		}),
		Voting:     voting.New(voting.Config{Remote: client, KV: kv, RequestTimeout: cfg.RequestTimeout}),
		Outbox:     box,
		Net:        monitor,
		Foreground: foreground,
	})

	online, release := monitor.Subscribe()
	defer release()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		box.Run(gctx, online, foreground)
		return nil
	})
	g.Go(func() error {
		store.WatchDeadline(gctx, cfg.DeadlineInterval)
		return nil
	})
	g.Go(func() error {
		defer done()
		return repl(gctx, con, store, os.Stdin, os.Stdout)
	})

	err = g.Wait()
	store.WaitFlushed()
	logger.Debugw("session closed", "session", store.String(), "outbox", box.Status())
	return err
}

// repl reads commands until quit or shutdown and redraws the screen after
// every session change.
func repl(ctx context.Context, con *console.Console, store *session.Store, in io.Reader, out io.Writer) error {
	changes, release := store.Subscribe()
	defer release()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	_, _ = fmt.Fprint(out, resource.Greeting)
	_, _ = fmt.Fprintln(out, con.Render(ctx))

	for {
		_, _ = fmt.Fprint(out, "> ")

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			drain(changes)
			_, _ = fmt.Fprintln(out, "\n"+con.Render(ctx))
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			text, err := con.Execute(ctx, line)
			if errors.Is(err, console.ErrQuit) {
				return nil
			}
			if text != "" {
				_, _ = fmt.Fprintln(out, text)
			}
			if err != nil {
				_, _ = fmt.Fprintf(out, "error: %v\n", err)
			}
			if drain(changes) {
				_, _ = fmt.Fprintln(out, con.Render(ctx))
			}
		}
	}
}

// drain empties the change channel and reports whether anything changed.
func drain(changes <-chan session.Change) bool {
	changed := false
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return changed
			}
			changed = true
		default:
			return changed
		}
	}
}
