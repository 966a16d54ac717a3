// Copyright (c) 2024 Neomantra Corp
//
// Clock and Timer: nanosecond-timestamped scheduling shared by the live
// and backtest clocks (see helpers.go for the nanosecond conversions).

package tradecore

import (
	"time"
)

// TimerCallback is invoked when a Timer fires. name identifies the timer
// that fired; tsEvent is its scheduled nanosecond timestamp.
type TimerCallback func(name string, tsEvent int64)

// Timer is a named, possibly-recurring schedule owned by a Clock.
type Timer struct {
	Name        string
	IntervalNs  int64
	NextTimeNs  int64
	StopTimeNs  int64 // 0 means no stop time
	Callback    TimerCallback
	isExpired   bool
}

func (t *Timer) advance() {
	t.NextTimeNs += t.IntervalNs
	if t.StopTimeNs > 0 && t.NextTimeNs > t.StopTimeNs {
		t.isExpired = true
	}
}

// Clock abstracts time so the engine can run identically live or in a
// deterministic backtest. Both implementations are single-threaded-
// cooperative: nothing in the core calls these concurrently from
// multiple goroutines.
type Clock interface {
	TimeNs() int64
	SetTimer(name string, interval time.Duration, startTimeNs int64, stopTimeNs int64, callback TimerCallback) error
	CancelTimer(name string) error
	CancelTimers()
	HasTimer(name string) bool
}

///////////////////////////////////////////////////////////////////////////////
// RealClock

// RealClock derives time from the operating system. SetTimer schedules
// are tracked but only fired by an explicit call to FireDue: the core
// never blocks waiting on a live clock itself, an external event loop
// drives it.
type RealClock struct {
	timers map[string]*Timer
}

func NewRealClock() *RealClock {
	return &RealClock{timers: make(map[string]*Timer)}
}

func (c *RealClock) TimeNs() int64 {
	return time.Now().UnixNano()
}

func (c *RealClock) SetTimer(name string, interval time.Duration, startTimeNs int64, stopTimeNs int64, callback TimerCallback) error {
	c.timers[name] = &Timer{
		Name:       name,
		IntervalNs: interval.Nanoseconds(),
		NextTimeNs: startTimeNs,
		StopTimeNs: stopTimeNs,
		Callback:   callback,
	}
	return nil
}

func (c *RealClock) CancelTimer(name string) error {
	if _, ok := c.timers[name]; !ok {
		return ErrTimerNotFound
	}
	delete(c.timers, name)
	return nil
}

func (c *RealClock) CancelTimers() {
	c.timers = make(map[string]*Timer)
}

func (c *RealClock) HasTimer(name string) bool {
	_, ok := c.timers[name]
	return ok
}

// FireDue fires (and reschedules) any timer whose NextTimeNs <= now,
// in NextTimeNs order, then timer name for ties.
func (c *RealClock) FireDue(now int64) {
	fireTimersDue(c.timers, nil, now)
}

///////////////////////////////////////////////////////////////////////////////
// TestClock

// TestClock advances only via AdvanceTimeTo, firing any due timers inline
// (reentrant-safe: a callback may itself SetTimer/CancelTimer without
// corrupting the in-progress sweep, because each firing picks the
// earliest due timer afresh from the current timer map).
type TestClock struct {
	nowNs  int64
	timers map[string]*Timer
	order  []string // insertion order, for stable tie-breaking
}

func NewTestClock(startTimeNs int64) *TestClock {
	return &TestClock{nowNs: startTimeNs, timers: make(map[string]*Timer)}
}

func (c *TestClock) TimeNs() int64 {
	return c.nowNs
}

func (c *TestClock) SetTimer(name string, interval time.Duration, startTimeNs int64, stopTimeNs int64, callback TimerCallback) error {
	if _, exists := c.timers[name]; !exists {
		c.order = append(c.order, name)
	}
	c.timers[name] = &Timer{
		Name:       name,
		IntervalNs: interval.Nanoseconds(),
		NextTimeNs: startTimeNs,
		StopTimeNs: stopTimeNs,
		Callback:   callback,
	}
	return nil
}

func (c *TestClock) CancelTimer(name string) error {
	if _, ok := c.timers[name]; !ok {
		return ErrTimerNotFound
	}
	delete(c.timers, name)
	return nil
}

func (c *TestClock) CancelTimers() {
	c.timers = make(map[string]*Timer)
	c.order = nil
}

func (c *TestClock) HasTimer(name string) bool {
	_, ok := c.timers[name]
	return ok
}

// NextTimerNs returns the named timer's NextTimeNs, and whether a timer
// of that name exists, without advancing the clock.
func (c *TestClock) NextTimerNs(name string) (int64, bool) {
	t, ok := c.timers[name]
	if !ok {
		return 0, false
	}
	return t.NextTimeNs, true
}

// AdvanceTimeTo moves the clock forward to targetNs, firing every timer
// whose NextTimeNs <= targetNs in timestamp order (insertion order breaks
// ties), then sets nowNs = targetNs. Timers are rescheduled (NextTimeNs +=
// IntervalNs) after firing; expired ones (past StopTimeNs) are removed.
func (c *TestClock) AdvanceTimeTo(targetNs int64) {
	if targetNs < c.nowNs {
		return
	}
	fireTimersDue(c.timers, c.order, targetNs)
	c.nowNs = targetNs
	for name, t := range c.timers {
		if t.isExpired {
			delete(c.timers, name)
		}
	}
}

// fireTimersDue drains every (name, timer) whose NextTimeNs <= now, in
// timestamp then insertion order, advancing each after it fires. A timer
// whose interval is shorter than the jump to now fires once per boundary
// crossed, not just once total — catching up fully before nowNs moves. A
// callback that schedules a new timer is picked up on the next sweep of
// this same drain (it can fire within the same AdvanceTimeTo call if its
// own NextTimeNs <= now), consistent with "reentrant-safe": the timer map
// is read fresh before every firing, and nothing is precomputed.
// insertionOrder may be nil, in which case ties break by name.
func fireTimersDue(timers map[string]*Timer, insertionOrder []string, now int64) {
	seqOf := make(map[string]int, len(insertionOrder))
	for i, name := range insertionOrder {
		seqOf[name] = i
	}
	seq := func(name string) int {
		if s, ok := seqOf[name]; ok {
			return s
		}
		return len(insertionOrder)
	}

	for {
		var nextName string
		var next *Timer
		for name, t := range timers {
			if t.NextTimeNs > now || t.isExpired {
				continue
			}
			if next == nil ||
				t.NextTimeNs < next.NextTimeNs ||
				(t.NextTimeNs == next.NextTimeNs && seq(name) < seq(nextName)) ||
				(t.NextTimeNs == next.NextTimeNs && seq(name) == seq(nextName) && name < nextName) {
				nextName, next = name, t
			}
		}
		if next == nil {
			return
		}
		tsEvent := next.NextTimeNs
		if next.Callback != nil {
			next.Callback(nextName, tsEvent)
		}
		next.advance()
	}
}
