package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/importer"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/dmitrijs2005/mdrzasync/internal/merge"
	"github.com/dmitrijs2005/mdrzasync/internal/models"
	"github.com/dmitrijs2005/mdrzasync/internal/portal"
	"github.com/dmitrijs2005/mdrzasync/internal/store"
	"github.com/google/uuid"
)

// DefaultPacing is the pause between two portal submissions.
const DefaultPacing = 250 * time.Millisecond

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithPacing sets the pause between submissions.
func WithPacing(d time.Duration) Option {
	return func(s *Syncer) { s.pacing = d }
}

// WithWait replaces the blocking pause, mainly for tests.
func WithWait(w WaitFunc) Option {
	return func(s *Syncer) { s.wait = w }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(s *Syncer) { s.newRunID = func() string { return id } }
}

// Syncer runs sync passes against one store and one portal.
type Syncer struct {
	store    *store.Store
	importer *importer.Importer
	merger   *merge.Engine
	portal   Portal
	codec    Decrypter
	dataDir  string

	pacing   time.Duration
	wait     WaitFunc
	newRunID func() string
	logger   logging.Logger
}

// New builds a Syncer with a 250ms pacing and a random run id per pass.
func New(st *store.Store, p Portal, codec Decrypter, dataDir string, logger logging.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		store:    st,
		importer: importer.New(logger),
		merger:   merge.NewEngine(st, logger),
		portal:   p,
		codec:    codec,
		dataDir:  dataDir,
		pacing:   DefaultPacing,
		wait:     sleep,
		newRunID: uuid.NewString,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run performs one pass. The report is returned even when the pass aborts,
// holding whatever was done up to that point.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{RunID: s.newRunID()}
	log := s.logger.With("run_id", rep.RunID)
	defer func() { rep.Elapsed = time.Since(start) }()

	log.Info(ctx, "sync started", "data_dir", s.dataDir)

	err := s.store.WithTx(ctx, func(ctx context.Context, repos *store.Repositories) error {
		var err error
		rep.Import, err = s.importer.Import(ctx, s.dataDir, repos.Staging)
		return err
	})
	if err != nil {
		return rep, fmt.Errorf("import: %w", err)
	}
	log.Info(ctx, "export files staged",
		"files", rep.Import.Files, "trips", rep.Import.Trips,
		"usernames", rep.Import.Usernames, "passwords", rep.Import.Passwords,
		"skipped_rows", rep.Import.Skipped)

	if rep.Merge, err = s.merger.Run(ctx); err != nil {
		return rep, fmt.Errorf("merge: %w", err)
	}

	if err := s.replay(ctx, log, rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Syncer) replay(ctx context.Context, log logging.Logger, rep *Report) error {
	repos := s.store.Repositories()

	users, err := repos.Logins.List(ctx)
	if err != nil {
		return fmt.Errorf("list logins: %w", err)
	}

	r := &replayer{Syncer: s, repos: repos}
	for _, u := range users {
		ur := UserReport{InternalUser: u.InternalUser, State: StateIdle}
		err := r.user(ctx, log.With("internal_user", u.InternalUser), u, &ur)
		rep.Users = append(rep.Users, ur)
		if err != nil {
			return err
		}
	}
	return nil
}

// replayer holds state shared across users within one pass.
type replayer struct {
	*Syncer
	repos *store.Repositories

	// submitted is set once the first submission of the pass went out.
	submitted bool
}

// user drives one user through the state machine. A returned error aborts
// the whole pass; per-user failures are recorded in ur instead.
func (r *replayer) user(ctx context.Context, log logging.Logger, u models.UserLogin, ur *UserReport) error {
	pending, err := r.repos.Trips.ListPending(ctx, u.InternalUser)
	if err != nil {
		return fmt.Errorf("list pending trips of %s: %w", u.InternalUser, err)
	}
	ur.Pending = len(pending)
	if len(pending) == 0 {
		ur.Idle = true
		r.advance(ctx, log, ur, StateSkipped)
		log.Debug(ctx, "nothing pending")
		return nil
	}

	r.advance(ctx, log, ur, StateAuthenticating)
	sess, pid, token, err := r.authenticate(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ur.Err = err
		r.advance(ctx, log, ur, StateSkipped)
		log.Error(ctx, "authentication failed, trips stay pending", "pending", len(pending), "error", err)
		return nil
	}
	r.advance(ctx, log, ur, StateAuthenticated)

	r.advance(ctx, log, ur, StateReplaying)
	for i, t := range pending {
		next, err := r.trip(ctx, log, sess, pid, token, t, ur)
		if err != nil {
			if errors.Is(err, errTokenLost) {
				ur.Err = err
				r.advance(ctx, log, ur, StateSkipped)
				log.Error(ctx, "no anti-forgery token in portal response, remaining trips stay pending",
					"remaining", len(pending)-i-1)
				return nil
			}
			return err
		}
		token = next
	}

	r.advance(ctx, log, ur, StateDone)
	log.Info(ctx, "user synced", "settled", ur.Settled, "failed", ur.Failed)
	return nil
}

func (r *replayer) advance(ctx context.Context, log logging.Logger, ur *UserReport, to State) {
	if ur.State.terminal() {
		log.Warn(ctx, "ignoring transition out of terminal state", "from", ur.State, "to", to)
		return
	}
	log.Debug(ctx, "state", "from", ur.State, "to", to)
	ur.State = to
}

func (r *replayer) authenticate(ctx context.Context, u models.UserLogin) (Session, string, string, error) {
	password, err := r.codec.Decrypt(u.EncryptedPassword)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: decrypt password: %w", common.ErrAuth, err)
	}

	sess, page, err := r.portal.Login(ctx, u.PortalUsername, password)
	if err != nil {
		return nil, "", "", err
	}

	pid, err := page.ParticipantID()
	if err != nil {
		return nil, "", "", err
	}
	token, err := page.CSRFToken()
	if err != nil {
		return nil, "", "", err
	}
	return sess, pid, token, nil
}

var errTokenLost = errors.New("anti-forgery token lost")

// trip replays one pending trip and returns the token for the next
// submission. Submission failures are recorded and the old token is kept.
func (r *replayer) trip(ctx context.Context, log logging.Logger, sess Session, pid, token string, t models.Trip, ur *UserReport) (string, error) {
	entry := portal.Entry{Day: t.TripDate, Kilometers: t.Kilometers, ParticipantID: pid}
	log = log.With("trip_date", t.TripDate, "km", t.Kilometers)

	if t.NeedsRemoval() {
		next, ok, err := r.remove(ctx, log, sess, entry, token)
		if err != nil {
			return token, err
		}
		if !ok {
			ur.Failed++
			return token, nil
		}
		token = next
	}

	page, err := r.submit(ctx, sess.Submit, entry, token)
	if err != nil {
		if ctx.Err() != nil {
			return token, ctx.Err()
		}
		ur.Failed++
		log.Error(ctx, "submission failed, trip stays pending", "error", err)
		return token, nil
	}

	// The portal has the entry now; do not let a cancelled run skip the settle.
	if err := r.repos.Trips.Settle(context.WithoutCancel(ctx), t.InternalUser, t.TripDate); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return token, fmt.Errorf("settle trip %s %s: %w", t.InternalUser, t.TripDate, err)
		}
		log.Warn(ctx, "submitted trip vanished from the store", "error", err)
	} else {
		ur.Settled++
		log.Info(ctx, "trip submitted")
	}

	next, err := page.CSRFToken()
	if err != nil {
		return token, fmt.Errorf("%w: %w", errTokenLost, err)
	}
	return next, nil
}

// remove deletes the portal's older value of a modified trip when the
// session supports it. ok is false when the removal failed and the trip
// must not be inserted.
func (r *replayer) remove(ctx context.Context, log logging.Logger, sess Session, entry portal.Entry, token string) (string, bool, error) {
	rm, supported := sess.(Remover)
	if !supported {
		log.Warn(ctx, "portal session cannot remove entries, submitting modified trip as a new entry")
		return token, true, nil
	}

	page, err := r.submit(ctx, rm.Remove, entry, token)
	if err != nil {
		if ctx.Err() != nil {
			return token, false, ctx.Err()
		}
		if errors.Is(err, common.ErrNotImplemented) {
			log.Warn(ctx, "portal session cannot remove this entry, submitting modified trip as a new entry")
			return token, true, nil
		}
		log.Error(ctx, "removing previous entry failed, trip stays pending", "error", err)
		return token, false, nil
	}

	next, err := page.CSRFToken()
	if err != nil {
		return token, false, fmt.Errorf("%w: %w", errTokenLost, err)
	}
	return next, true, nil
}

// submit paces and sends one form post.
func (r *replayer) submit(ctx context.Context, send func(context.Context, portal.Entry, string) (Page, error), entry portal.Entry, token string) (Page, error) {
	if r.submitted {
		if err := r.wait(ctx, r.pacing); err != nil {
			return nil, err
		}
	}
	r.submitted = true
	return send(ctx, entry, token)
}
