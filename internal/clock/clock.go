// Package clock implements a per-game clock with increment.
//
// Elapsed time is always derived from LastMoveAt and the caller-supplied
// timestamp; nothing is accumulated between calls. All times are
// milliseconds.
package clock

import "github.com/chdb/checkers/internal/board"

type Clock struct {
	InitialMs        int64      `json:"initial_time_ms"`
	IncrementMs      int64      `json:"increment_ms"`
	RedRemainingMs   int64      `json:"red_time_ms"`
	BlackRemainingMs int64      `json:"black_time_ms"`
	LastMoveAt       int64      `json:"last_move_at"`
	Active           board.Side `json:"active"`
	Running          bool       `json:"running"`
}

func New(tc TimeControl) *Clock {
	if !tc.Valid() {
		tc = DefaultTimeControl
	}
	return &Clock{
		InitialMs:        tc.InitialMs(),
		IncrementMs:      tc.IncrementMs(),
		RedRemainingMs:   tc.InitialMs(),
		BlackRemainingMs: tc.InitialMs(),
	}
}

func (c *Clock) Start(now int64) {
	c.LastMoveAt = now
	c.Active = board.Red
	c.Running = true
}

// MakeMove charges the side that just moved. It returns false when the
// clock was never started or when that side's flag fell during the move.
func (c *Clock) MakeMove(now int64) bool {
	if !c.Running {
		return false
	}

	elapsed := c.elapsed(now)
	remaining := c.remainingPtr(c.Active)
	if elapsed >= *remaining {
		*remaining = 0
		return false
	}

	*remaining = *remaining - elapsed + c.IncrementMs
	c.Active = c.Active.Opposite()
	c.LastMoveAt = now
	return true
}

// TimedOut reports the running side if it has used up its time.
func (c *Clock) TimedOut(now int64) (board.Side, bool) {
	if !c.Running {
		return board.Red, false
	}
	if c.elapsed(now) >= *c.remainingPtr(c.Active) {
		return c.Active, true
	}
	return board.Red, false
}

func (c *Clock) Remaining(side board.Side, now int64) int64 {
	stored := *c.remainingPtr(side)
	if !c.Running || side != c.Active {
		return stored
	}
	elapsed := c.elapsed(now)
	if elapsed >= stored {
		return 0
	}
	return stored - elapsed
}

func (c *Clock) TimeControl() TimeControl {
	return FromDurations(c.InitialMs, c.IncrementMs)
}

func (c *Clock) elapsed(now int64) int64 {
	if now <= c.LastMoveAt {
		return 0
	}
	return now - c.LastMoveAt
}

func (c *Clock) remainingPtr(side board.Side) *int64 {
	if side == board.Black {
		return &c.BlackRemainingMs
	}
	return &c.RedRemainingMs
}
