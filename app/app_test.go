package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/padraicbc/racetiming/repository"
	"github.com/padraicbc/racetiming/timing"
)

func sequentialIDs() func() timing.ResultID {
	n := 0
	return func() timing.ResultID {
		n++
		return timing.ResultID(fmt.Sprintf("r%d", n))
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	repo := repository.NewMemory(timing.CompetitionConfiguration{
		ID: "cup",
		Tracks: map[timing.TrackID]timing.TrackConfiguration{
			"0": {OverlapLimit: 2},
			"1": {OverlapLimit: 1, RecordType: "heat"},
		},
	})
	a := New(repo, WithLogger(zaptest.NewLogger(t)), WithResultIDs(sequentialIDs()))
	t.Cleanup(a.Close)
	return a
}

func newConfiguredApp(t *testing.T) *App {
	t.Helper()
	a := newTestApp(t)
	if err := a.CreateCompetition(context.Background(), "cup"); err != nil {
		t.Fatalf("create competition: %v", err)
	}
	return a
}

func TestOperationsRequireCompetition(t *testing.T) {
	a := newTestApp(t)
	if err := a.Start(0, "0"); !errors.Is(err, ErrCompetitionNotConfigured) {
		t.Fatalf("start err = %v, want %v", err, ErrCompetitionNotConfigured)
	}
	if _, err := a.Stop(0, "0", ""); !errors.Is(err, ErrCompetitionNotConfigured) {
		t.Fatalf("stop err = %v, want %v", err, ErrCompetitionNotConfigured)
	}
	if _, err := a.StateTree(); !errors.Is(err, ErrCompetitionNotConfigured) {
		t.Fatalf("state tree err = %v, want %v", err, ErrCompetitionNotConfigured)
	}
	if _, _, err := a.RegisteredNextCar("0"); !errors.Is(err, ErrCompetitionNotConfigured) {
		t.Fatalf("registered next car err = %v, want %v", err, ErrCompetitionNotConfigured)
	}
}

func TestCreateCompetitionUnknownConfiguration(t *testing.T) {
	a := newTestApp(t)
	err := a.CreateCompetition(context.Background(), "missing")
	if !errors.Is(err, ErrCompetitionConfigurationNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrCompetitionConfigurationNotFound)
	}
}

func TestCreateCompetitionDiscardsPreviousState(t *testing.T) {
	a := newConfiguredApp(t)
	if err := a.RegisterNextCar(0, "0", "A"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := a.CreateCompetition(context.Background(), "cup"); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if _, ok, _ := a.RegisteredNextCar("0"); ok {
		t.Fatal("new competition should start empty")
	}
	if id, _ := a.ConfigurationID(); id != "cup" {
		t.Fatalf("configuration id = %q, want cup", id)
	}
}

func TestFIFOStopProducesRecords(t *testing.T) {
	a := newConfiguredApp(t)
	steps := []error{
		a.RegisterNextCar(0, "0", "A"),
		a.Start(5, "0"),
		a.RegisterNextCar(6, "0", "B"),
		a.Start(8, "0"),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if running, _ := a.RunningCars("0"); !slices.Equal(running, []timing.EntryID{"A", "B"}) {
		t.Fatalf("running = %v, want [A B]", running)
	}

	first, err := a.Stop(20, "0", "")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	second, err := a.Stop(30, "0", "")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if first != "r1" || second != "r2" {
		t.Fatalf("result ids = %s, %s; want r1, r2", first, second)
	}

	s, _ := a.State()
	if len(s.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(s.Records))
	}
	if s.Records[0].EntryID != "A" || s.Records[0].Duration != 15*time.Millisecond {
		t.Fatalf("first record = %+v", s.Records[0])
	}
	if s.Records[1].EntryID != "B" || s.Records[1].Duration != 22*time.Millisecond {
		t.Fatalf("second record = %+v", s.Records[1])
	}
}

func TestFailedTerminalCommandReturnsNoID(t *testing.T) {
	a := newConfiguredApp(t)
	id, err := a.Stop(0, "0", "ghost")
	if !errors.Is(err, timing.ErrTrackSpecifiedCarNotFound) || id != "" {
		t.Fatalf("stop = %q, %v", id, err)
	}
	if _, err := a.MarkDNF(0, "9", "A"); !errors.Is(err, timing.ErrNoSuchTrack) {
		t.Fatalf("dnf err = %v, want %v", err, timing.ErrNoSuchTrack)
	}
}

func TestRecordCorrections(t *testing.T) {
	a := newConfiguredApp(t)
	_ = a.RegisterNextCar(0, "1", "A")
	_ = a.Start(10, "1")
	_ = a.MarkDerailment(12, "1", "A")
	id, err := a.MarkMissCourse(40, "1", "A")
	if err != nil {
		t.Fatalf("miss course: %v", err)
	}
	for _, err := range []error{
		a.RecoveryRecord(50, id),
		a.ChangeRecordPylonTouchCount(51, id, 3),
		a.ChangeRecordDerailmentCount(52, id, 0),
		a.ChangeRecordType(53, id, "final"),
	} {
		if err != nil {
			t.Fatalf("correction: %v", err)
		}
	}
	s, _ := a.State()
	got := s.Records[0]
	if got.State != timing.RecordCheckered || got.PylonTouchCount != 3 || got.DerailmentCount != 0 || got.RecordType != "final" {
		t.Fatalf("record = %+v", got)
	}
	if err := a.RemoveRecord(60, "nope"); !errors.Is(err, timing.ErrNoSuchRecord) {
		t.Fatalf("err = %v, want %v", err, timing.ErrNoSuchRecord)
	}
}

func TestLateStartIsReplayed(t *testing.T) {
	a := newConfiguredApp(t)
	_ = a.RegisterNextCar(0, "0", "early")
	_ = a.RegisterNextCar(5, "0", "A")
	_ = a.Start(10, "0")
	if _, err := a.Stop(40, "0", ""); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// The start of "early" happened at t=2 but reaches us last.
	if err := a.Start(2, "0"); err != nil {
		t.Fatalf("late start: %v", err)
	}
	s, _ := a.State()
	if len(s.Records) != 1 || s.Records[0].EntryID != "early" || s.Records[0].Duration != 38*time.Millisecond {
		t.Fatalf("records = %+v", s.Records)
	}
	if running, _ := a.RunningCars("0"); !slices.Equal(running, []timing.EntryID{"A"}) {
		t.Fatalf("running = %v, want [A]", running)
	}
}

func TestStateTreeIsYAML(t *testing.T) {
	a := newConfiguredApp(t)
	_ = a.RegisterNextCar(0, "0", "A")
	_ = a.SetTrackRecordType(1, "0", "practice")
	tree, err := a.StateTree()
	if err != nil {
		t.Fatalf("state tree: %v", err)
	}
	for _, want := range []string{"tracks:", "id: \"0\"", "pending_car: A", "record_type: practice", "records: []"} {
		if !strings.Contains(tree, want) {
			t.Fatalf("state tree missing %q:\n%s", want, tree)
		}
	}
	tracks, _ := a.CurrentTracks()
	if !slices.Equal(tracks, []timing.TrackID{"0", "1"}) {
		t.Fatalf("tracks = %v", tracks)
	}
}

func TestSubscribeCoalescesAndConverges(t *testing.T) {
	a := newConfiguredApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := a.Subscribe(ctx, 1)
	const n = 25
	for i := 0; i < n; i++ {
		if err := a.RegisterNextCar(int64(i), "0", timing.EntryID(fmt.Sprintf("car-%d", i))); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	want, _ := a.StateTree()

	received := 0
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tree, ok := <-updates:
			if !ok {
				t.Fatal("subscription closed early")
			}
			received++
			if tree == want {
				if received > n+1 {
					t.Fatalf("received %d updates for %d changes", received, n+1)
				}
				return
			}
		case <-deadline:
			t.Fatalf("never observed final state after %d updates", received)
		}
	}
}

func TestSubscribeEndsWithContext(t *testing.T) {
	a := newConfiguredApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	updates := a.Subscribe(ctx, 4)
	<-updates // competition creation
	cancel()
	select {
	case _, ok := <-updates:
		if ok {
			// A change raced the cancel; the channel must still close.
			<-updates
		}
	case <-time.After(time.Second):
		t.Fatal("subscription did not close")
	}
}
