package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/9Nov/Strava-Sync/ledger"
	"github.com/9Nov/Strava-Sync/strava"
)

// Ledger is the subset of the ledger used by the syncer.
type Ledger interface {
	User(ctx context.Context, name string) (*ledger.User, error)
	Users(ctx context.Context) ([]ledger.User, error)
	Link(ctx context.Context, user ledger.User) (bool, error)
	UpdateRefreshToken(ctx context.Context, name, token string) error
	LatestActivityDate(ctx context.Context, name string) (string, error)
	ActivityIDs(ctx context.Context, name string) (map[string]bool, error)
	RepairHeader(ctx context.Context, name string) (bool, error)
	Append(ctx context.Context, name string, activities []strava.Activity) error
}

// Refresher exchanges a refresh token for an access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*strava.Token, error)
}

// Fetcher retrieves a page of activities in a time window.
type Fetcher interface {
	Activities(ctx context.Context, accessToken string, after int64, before *int64) ([]strava.Activity, error)
}

type Strava interface {
	Refresher
	Fetcher
}

type Result struct {
	User     string
	Fetched  int
	Imported int
	Message  string
}

// Outcome is the result of one user's sync in SyncAll.
type Outcome struct {
	User   string
	Result *Result
	Err    error
}

type Syncer struct {
	ledger   Ledger
	strava   Strava
	perPage  int
	parallel int
	log      *log.Logger
	debug    bool
	acquire  func(name string) (func(), error)

	locks map[string]*sync.Mutex
	guard sync.Mutex
}

type Option func(*Syncer)

func WithLogger(logger *log.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithDebug(debug bool) Option {
	return func(s *Syncer) {
		s.debug = debug
	}
}

// WithLock sets a function that acquires a lock on a user across processes for the duration of a
// sync e.g. a lockfile. The returned function releases the lock.
func WithLock(acquire func(name string) (func(), error)) Option {
	return func(s *Syncer) {
		s.acquire = acquire
	}
}

// WithPageSize sets the page size the fetcher uses, which is used to warn when a sync may
// not have retrieved all pending activities.
func WithPageSize(n int) Option {
	return func(s *Syncer) {
		s.perPage = n
	}
}

// WithParallelism sets the maximum number of users synced concurrently by SyncAll.
func WithParallelism(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.parallel = n
		}
	}
}

func NewSyncer(l Ledger, s Strava, options ...Option) *Syncer {
	syncer := Syncer{
		ledger:   l,
		strava:   s,
		perPage:  strava.PerPage,
		parallel: 4,
		log:      log.New(os.Stderr, "", log.LstdFlags),
		locks:    map[string]*sync.Mutex{},
	}

	for _, option := range options {
		option(&syncer)
	}

	return &syncer
}

// Sync imports the user's new Strava activities into the user's worksheet. If start is nil the
// sync resumes from the last activity in the worksheet, otherwise it covers the calendar days
// from start to end (inclusive), or from start onwards if end is nil.
//
// Concurrent syncs of the same user are serialised within the process. Syncs from separate
// processes are only serialised if a lock was configured with WithLock, otherwise they can append
// the same activity twice if they race between reading the existing activity IDs and appending.
func (s *Syncer) Sync(ctx context.Context, name string, start, end *time.Time) (*Result, error) {
	unlock := s.lock(name)
	defer unlock()

	id := uuid.New().String()[:8]
	fetched := 0

	if s.acquire != nil {
		release, err := s.acquire(name)
		if err != nil {
			err = fmt.Errorf("unable to lock '%v' for sync (%w)", name, err)
			s.errorf(id, "%v  %v", name, err)
			recordSync(name, 0, 0, err)
			return nil, err
		}

		defer release()
	}

	result, err := s.sync(ctx, id, name, start, end, &fetched)
	if err != nil {
		s.errorf(id, "%v  sync failed (%v)", name, err)
		recordSync(name, fetched, 0, err)
		return nil, err
	}

	recordSync(name, result.Fetched, result.Imported, nil)

	return result, nil
}

func (s *Syncer) sync(ctx context.Context, id, name string, start, end *time.Time, fetched *int) (*Result, error) {
	user, err := s.ledger.User(ctx, name)
	if err != nil {
		return nil, err
	}

	window, err := Resolve(ctx, s.ledger, name, start, end)
	if err != nil {
		return nil, err
	}

	s.debugf(id, "%v  window %v", name, window)

	token, err := s.strava.Refresh(ctx, user.RefreshToken)
	if err != nil {
		return nil, err
	}

	if token.RefreshToken != "" && token.RefreshToken != user.RefreshToken {
		if err := s.ledger.UpdateRefreshToken(ctx, name, token.RefreshToken); err != nil {
			s.warnf(id, "%v  could not save rotated refresh token (%v)", name, err)
		} else {
			s.infof(id, "%v  saved rotated refresh token", name)
		}
	}

	activities, err := s.strava.Activities(ctx, token.AccessToken, window.After, window.Before)
	if err != nil {
		return nil, err
	}

	*fetched = len(activities)

	if s.perPage > 0 && len(activities) >= s.perPage {
		s.warnf(id, "%v  retrieved a full page of %v activities - there may be more, run the sync again to retrieve them", name, len(activities))
	}

	sortByStartDate(activities)

	existing, err := s.ledger.ActivityIDs(ctx, name)
	if err != nil {
		return nil, err
	}

	list := Dedup(activities, existing)

	s.debugf(id, "%v  fetched:%v  new:%v  duplicate:%v", name, len(activities), len(list), len(activities)-len(list))

	if len(activities) > 0 {
		if repaired, err := s.ledger.RepairHeader(ctx, name); err != nil {
			return nil, err
		} else if repaired {
			s.infof(id, "%v  rewrote worksheet header", name)
		}
	}

	if len(list) > 0 {
		if err := s.ledger.Append(ctx, name, list); err != nil {
			return nil, err
		}
	}

	s.infof(id, "%v  synced %v new activities", name, len(list))

	return &Result{
		User:     name,
		Fetched:  len(activities),
		Imported: len(list),
		Message:  fmt.Sprintf("Synced %v new activities.", len(list)),
	}, nil
}

// SyncAll syncs every linked user. Users are synced concurrently (up to the configured
// parallelism) and a failed sync does not stop the others.
func (s *Syncer) SyncAll(ctx context.Context, start, end *time.Time) ([]Outcome, error) {
	users, err := s.ledger.Users(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(users))

	var g errgroup.Group
	g.SetLimit(s.parallel)

	for i, u := range users {
		g.Go(func() error {
			result, err := s.Sync(ctx, u.Name, start, end)
			outcomes[i] = Outcome{
				User:   u.Name,
				Result: result,
				Err:    err,
			}

			return nil
		})
	}

	g.Wait()

	return outcomes, nil
}

// Link adds a Strava athlete to the ledger under the display name or, if the display name is
// already linked, replaces the stored refresh token. Returns true if a new user was created.
func (s *Syncer) Link(ctx context.Context, name, athleteID, refreshToken string) (bool, error) {
	unlock := s.lock(name)
	defer unlock()

	user := ledger.User{
		Name:         name,
		AthleteID:    athleteID,
		RefreshToken: refreshToken,
	}

	created, err := s.ledger.Link(ctx, user)
	if err != nil {
		return false, err
	}

	if created {
		s.infof("", "%v  linked Strava athlete %v", name, athleteID)
	} else {
		s.infof("", "%v  updated Strava refresh token", name)
	}

	return created, nil
}

func (s *Syncer) lock(name string) func() {
	s.guard.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.guard.Unlock()

	l.Lock()

	return l.Unlock
}

func (s *Syncer) debugf(id string, format string, args ...any) {
	if s.debug {
		s.printf("DEBUG", id, format, args...)
	}
}

func (s *Syncer) infof(id string, format string, args ...any) {
	s.printf("INFO", id, format, args...)
}

func (s *Syncer) warnf(id string, format string, args ...any) {
	s.printf("WARN", id, format, args...)
}

func (s *Syncer) errorf(id string, format string, args ...any) {
	s.printf("ERROR", id, format, args...)
}

func (s *Syncer) printf(level string, id string, format string, args ...any) {
	if id == "" {
		s.log.Printf("%-5s %s", level, fmt.Sprintf(format, args...))
	} else {
		s.log.Printf("%-5s %s  %s", level, id, fmt.Sprintf(format, args...))
	}
}
