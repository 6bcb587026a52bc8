// Package app owns the single competition aggregate. It turns caller input
// into timestamped commands, serializes access to the replayer behind one
// lock, and signals observers after every successful change.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/padraicbc/racetiming/broadcast"
	"github.com/padraicbc/racetiming/replay"
	"github.com/padraicbc/racetiming/repository"
	"github.com/padraicbc/racetiming/timing"
)

var (
	ErrCompetitionNotConfigured         = errors.New("competition has not been configured")
	ErrCompetitionConfigurationNotFound = errors.New("competition configuration not found")
)

// Competition is the replayed aggregate the App serves.
type Competition = replay.Replayer[timing.Command, error, *timing.Competition]

// App serves one competition at a time. All reads and writes take mu.
type App struct {
	mu          sync.Mutex
	competition *Competition
	configID    timing.ConfigurationID

	configs     repository.ConfigurationRepository
	changes     *broadcast.Broadcaster
	newResultID func() timing.ResultID
	log         *zap.Logger
}

type Option func(*App)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithResultIDs replaces the ksuid result id generator.
func WithResultIDs(fn func() timing.ResultID) Option {
	return func(a *App) { a.newResultID = fn }
}

func New(configs repository.ConfigurationRepository, opts ...Option) *App {
	a := &App{
		configs:     configs,
		changes:     broadcast.New(),
		newResultID: func() timing.ResultID { return timing.ResultID(ksuid.New().String()) },
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Timestamp converts milliseconds since the Unix epoch into a logical timestamp.
func Timestamp(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func at(ms int64) timing.At { return timing.At{Time: Timestamp(ms)} }

// CreateCompetition replaces the current competition, and its whole command
// log, with a fresh one built from the named configuration.
func (a *App) CreateCompetition(ctx context.Context, id timing.ConfigurationID) error {
	cfg, ok, err := a.configs.CompetitionConfiguration(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup configuration %q: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("configuration %q: %w", id, ErrCompetitionConfigurationNotFound)
	}

	a.mu.Lock()
	discarded := 0
	if a.competition != nil {
		discarded = a.competition.Len()
	}
	a.competition = replay.New[timing.Command, error](cfg.Build)
	a.configID = id
	a.mu.Unlock()

	a.log.Info("competition created",
		zap.String("configuration_id", string(id)),
		zap.Int("tracks", len(cfg.Tracks)),
		zap.Int("discarded_commands", discarded),
	)
	a.notify()
	return nil
}

// ConfigurationID reports which configuration the current competition uses.
func (a *App) ConfigurationID() (timing.ConfigurationID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.competition == nil {
		return "", ErrCompetitionNotConfigured
	}
	return a.configID, nil
}

func (a *App) submit(cmd timing.Command) error {
	a.mu.Lock()
	if a.competition == nil {
		a.mu.Unlock()
		return ErrCompetitionNotConfigured
	}
	before := a.competition.Replays()
	err := a.competition.Submit(cmd)
	replayed := a.competition.Replays() != before
	logged := a.competition.Len()
	a.mu.Unlock()

	fields := []zap.Field{
		zap.String("command", cmd.Name()),
		zap.Time("at", cmd.Timestamp()),
		zap.Int("log_length", logged),
	}
	if replayed {
		a.log.Info("late command replayed", fields...)
	}
	if err != nil {
		a.log.Debug("command rejected", append(fields, zap.Error(err))...)
		return err
	}
	a.log.Debug("command applied", fields...)
	a.notify()
	return nil
}

func (a *App) notify() {
	if err := a.changes.Notify(); err != nil {
		a.log.Warn("state change notification dropped", zap.Error(err))
	}
}

// Close stops every subscription.
func (a *App) Close() {
	a.changes.Close()
}
