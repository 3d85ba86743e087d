package llm

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Schedule is the fixed ladder of waits between attempts. A call makes
// len(Schedule) retried attempts plus one final attempt that is never
// retried.
type Schedule []time.Duration

// DefaultSchedule balances responsiveness against provider rate-limit
// windows.
var DefaultSchedule = Schedule{10 * time.Second, 30 * time.Second, 65 * time.Second}

// Attempts is the total number of attempts a call may make.
func (s Schedule) Attempts() int {
	return len(s) + 1
}

// BackOff returns a fresh cursor over the schedule. The schedule itself
// is never mutated, so one Schedule can serve any number of calls.
func (s Schedule) BackOff() backoff.BackOff {
	return &ladder{delays: s}
}

// ladder walks a Schedule left to right and then stops.
type ladder struct {
	delays Schedule
	next   int
}

func (l *ladder) NextBackOff() time.Duration {
	if l.next >= len(l.delays) {
		return backoff.Stop
	}
	d := l.delays[l.next]
	l.next++
	return d
}

func (l *ladder) Reset() {
	l.next = 0
}
