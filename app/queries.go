package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/padraicbc/racetiming/broadcast"
	"github.com/padraicbc/racetiming/timing"
)

// read runs fn on the current competition while holding the lock.
func (a *App) read(fn func(c *timing.Competition) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.competition == nil {
		return ErrCompetitionNotConfigured
	}
	return fn(a.competition.Snapshot())
}

func (a *App) RegisteredNextCar(track timing.TrackID) (timing.EntryID, bool, error) {
	var (
		entry timing.EntryID
		ok    bool
	)
	err := a.read(func(c *timing.Competition) error {
		t, err := c.Track(track)
		if err != nil {
			return err
		}
		entry, ok = t.Pending()
		return nil
	})
	return entry, ok, err
}

func (a *App) RunningCars(track timing.TrackID) ([]timing.EntryID, error) {
	var running []timing.EntryID
	err := a.read(func(c *timing.Competition) error {
		t, err := c.Track(track)
		if err != nil {
			return err
		}
		running = t.Running()
		return nil
	})
	return running, err
}

func (a *App) CurrentTracks() ([]timing.TrackID, error) {
	var ids []timing.TrackID
	err := a.read(func(c *timing.Competition) error {
		ids = c.TrackIDs()
		return nil
	})
	return ids, err
}

// State returns a copy of the whole competition.
func (a *App) State() (timing.CompetitionState, error) {
	var s timing.CompetitionState
	err := a.read(func(c *timing.Competition) error {
		s = c.State()
		return nil
	})
	return s, err
}

// StateTree renders the whole competition as YAML.
func (a *App) StateTree() (string, error) {
	s, err := a.State()
	if err != nil {
		return "", err
	}
	return EncodeStateTree(s)
}

// EncodeStateTree renders a competition state as indented YAML text.
func EncodeStateTree(s timing.CompetitionState) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("encode state tree: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode state tree: %w", err)
	}
	return buf.String(), nil
}

// Subscribe streams a full state tree each time the competition changes.
// Bursts of changes coalesce; a slow reader skips intermediate states but
// always ends up with the latest one. The channel closes when ctx ends or
// the App is closed. Before a competition exists the tree is empty.
func (a *App) Subscribe(ctx context.Context, buffer int) <-chan string {
	out := make(chan string, buffer)
	w := a.changes.Watch()
	a.log.Debug("subscriber attached", zap.Int("subscribers", a.changes.Watchers()))

	go func() {
		defer close(out)
		defer w.Stop()
		for {
			if err := w.Wait(ctx); err != nil {
				if !errors.Is(err, broadcast.ErrClosed) && !errors.Is(err, context.Canceled) {
					a.log.Warn("subscriber stopped", zap.Error(err))
				}
				a.log.Debug("subscriber detached")
				return
			}
			tree, err := a.StateTree()
			if err != nil && !errors.Is(err, ErrCompetitionNotConfigured) {
				a.log.Error("render state tree", zap.Error(err))
			}
			select {
			case out <- tree:
			case <-ctx.Done():
				a.log.Debug("subscriber detached")
				return
			}
		}
	}()
	return out
}
