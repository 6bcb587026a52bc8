// Package replay keeps an ordered command log in front of an aggregate and
// guarantees that the aggregate reflects the log sorted by logical time,
// whatever order the commands arrived in.
//
// Commands are applied eagerly, so in-order submission costs one Apply. A
// command older than the newest logged one forces a rebuild: the log is
// sorted by (timestamp, insertion sequence), the aggregate is recreated from
// its factory, and every command is applied again. Replay uses the same
// Apply path as live submission, so both produce the same state.
package replay

import (
	"cmp"
	"slices"
	"time"
)

// Command is anything carrying a logical timestamp.
type Command interface {
	Timestamp() time.Time
}

// Aggregate applies commands of type C and reports a result R for each.
type Aggregate[C Command, R any] interface {
	Apply(cmd C) R
}

type entry[C Command, R any] struct {
	seq    uint64
	at     time.Time
	cmd    C
	result R
}

func (e entry[C, R]) compare(o entry[C, R]) int {
	if c := e.at.Compare(o.at); c != 0 {
		return c
	}
	return cmp.Compare(e.seq, o.seq)
}

// Replayer owns an aggregate and the full log of commands applied to it.
// It is not safe for concurrent use; callers serialize access.
type Replayer[C Command, R any, A Aggregate[C, R]] struct {
	factory func() A
	entity  A
	log     []entry[C, R]
	next    uint64
	replays int
}

// New returns a Replayer around a fresh aggregate built by factory.
func New[C Command, R any, A Aggregate[C, R]](factory func() A) *Replayer[C, R, A] {
	return &Replayer[C, R, A]{factory: factory, entity: factory()}
}

// Submit applies cmd and records it. The returned result is the one cmd
// produced at its position in logical order, which for a late command is the
// result recomputed during replay.
func (r *Replayer[C, R, A]) Submit(cmd C) R {
	e := entry[C, R]{
		seq:    r.next,
		at:     cmd.Timestamp(),
		cmd:    cmd,
		result: r.entity.Apply(cmd),
	}
	r.next++

	inOrder := len(r.log) == 0 || e.compare(r.log[len(r.log)-1]) >= 0
	r.log = append(r.log, e)
	if inOrder {
		return e.result
	}

	slices.SortStableFunc(r.log, entry[C, R].compare)
	r.rebuild()
	for _, le := range r.log {
		if le.seq == e.seq {
			return le.result
		}
	}
	return e.result
}

func (r *Replayer[C, R, A]) rebuild() {
	r.replays++
	r.entity = r.factory()
	for i := range r.log {
		r.log[i].result = r.entity.Apply(r.log[i].cmd)
	}
}

// Snapshot returns the current aggregate. Callers must treat it as read only.
func (r *Replayer[C, R, A]) Snapshot() A {
	return r.entity
}

// Len reports how many commands have been logged.
func (r *Replayer[C, R, A]) Len() int {
	return len(r.log)
}

// Replays reports how many full rebuilds late commands have caused.
func (r *Replayer[C, R, A]) Replays() int {
	return r.replays
}
