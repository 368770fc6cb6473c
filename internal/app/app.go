// Package app wires configuration, logging, the local store, the credential
// codec and the portal client into a sync pass and prints its summary.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/config"
	"github.com/dmitrijs2005/mdrzasync/internal/cryptox"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/dmitrijs2005/mdrzasync/internal/portal"
	"github.com/dmitrijs2005/mdrzasync/internal/store"
	"github.com/dmitrijs2005/mdrzasync/internal/syncer"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *store.Store
	syncer *syncer.Syncer
	out    io.Writer
}

// NewApp validates cfg and opens the store. Logs go to logOut, the summary
// to out. The caller must Close the app.
func NewApp(ctx context.Context, cfg *config.Config, logOut, out io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	codec, err := cryptox.NewCodec(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}

	client, err := portal.NewClient(cfg.BaseURL, cfg.LoginPath, cfg.SubmitPath, cfg.HTTPTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("portal: %w", err)
	}

	st, err := store.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	s := syncer.New(st, syncer.NewHTTPPortal(client), codec, cfg.DataDir, logger,
		syncer.WithPacing(cfg.PacingInterval))

	return &App{config: cfg, logger: logger, store: st, syncer: s, out: out}, nil
}

// initSignalHandler cancels the run on SIGINT, SIGTERM or SIGQUIT. The
// returned func stops listening.
func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run executes one sync pass and writes the summary, also when the pass
// aborted part way.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	app.logger.Info(ctx, "Starting sync...", "data_dir", app.config.DataDir, "database", app.config.DatabaseDSN)

	rep, err := app.syncer.Run(ctx)
	if rep != nil {
		PrintSummary(app.out, rep)
	}
	if err != nil {
		app.logger.Error(ctx, "sync aborted", "error", err)
		return err
	}
	return nil
}

// Close releases the store.
func (app *App) Close() error {
	return app.store.Close()
}

// PrintSummary writes a human-readable account of a pass.
func PrintSummary(w io.Writer, rep *syncer.Report) {
	t := rep.Totals()

	fmt.Fprintf(w, "Run %s\n", rep.RunID)
	fmt.Fprintf(w, "  files read:      %d (ignored %d, failed %d)\n",
		rep.Import.Files, rep.Import.Ignored, rep.Import.FailedFiles)
	fmt.Fprintf(w, "  rows staged:     %d trips, %d usernames, %d passwords (skipped %d)\n",
		rep.Import.Trips, rep.Import.Usernames, rep.Import.Passwords, rep.Import.Skipped)
	fmt.Fprintf(w, "  trips merged:    %d inserted, %d modified, %d unchanged\n",
		rep.Merge.Trips.Inserted, rep.Merge.Trips.Modified, rep.Merge.Trips.Unchanged)
	fmt.Fprintf(w, "  logins merged:   %d inserted, %d updated, %d unchanged, %d dropped\n",
		rep.Merge.Logins.Inserted, rep.Merge.Logins.Updated, rep.Merge.Logins.Unchanged, rep.Merge.Logins.Dropped())
	fmt.Fprintf(w, "  users:           %d synced, %d skipped, %d idle\n", t.Synced, t.Skipped, t.Idle)
	fmt.Fprintf(w, "  trips replayed:  %d settled, %d failed\n", t.Settled, t.Failed)

	for _, u := range rep.Users {
		if u.Idle {
			continue
		}
		line := fmt.Sprintf("    %-20s %-8s settled %d/%d", u.InternalUser, u.State, u.Settled, u.Pending)
		if u.Err != nil {
			line += ": " + u.Err.Error()
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "Elapsed: %s\n", rep.Elapsed.Round(time.Millisecond))
}
