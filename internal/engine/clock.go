package engine

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Clock hands out the seq stamped on every collection and document write.
//
// Seqs are monotone, not dense: a write the store rejects (a duplicate ID)
// has already taken its seq. A document rejected by the cast never reaches
// the clock.
type Clock struct {
	seq atomic.Int64
}

// SeqSource reports the highest seq already persisted.
// *store.Store satisfies it.
type SeqSource interface {
	ReadMaxSeq(ctx context.Context) (int64, error)
}

// NewClock creates a clock for an empty store.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next seq is last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// ResumeClock positions a clock after every collection and document src
// holds, so writes after a reopen sort after the ones before it.
func ResumeClock(ctx context.Context, src SeqSource) (*Clock, error) {
	last, err := src.ReadMaxSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	if last < 0 {
		return nil, fmt.Errorf("resume clock: negative seq %d in store", last)
	}
	return NewClockAt(last), nil
}

// Next takes one seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Reserve takes n consecutive seqs and returns the first. A batch insert
// stamps its documents from one reservation, so concurrent writers never
// interleave seqs inside a batch. n must be positive.
func (c *Clock) Reserve(n int) int64 {
	if n <= 0 {
		panic(fmt.Sprintf("engine: Clock.Reserve(%d)", n))
	}
	return c.seq.Add(int64(n)) - int64(n) + 1
}

// Current returns the last seq handed out, or the resume point if none has
// been taken yet.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
