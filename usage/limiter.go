package usage

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Limiter answers "may this identity generate another story today". Admin
// identities bypass the limit entirely. A failing store never blocks
// generation; the failure is logged and the request allowed, because losing
// a usage row is cheaper than losing a run.
type Limiter struct {
	Store  Store
	Limit  int
	Admins []string
	Log    *logrus.Logger
}

func NewLimiter(store Store, limit int, admins []string, log *logrus.Logger) *Limiter {
	return &Limiter{Store: store, Limit: limit, Admins: admins, Log: log}
}

func (l *Limiter) IsAdmin(identity string) bool {
	for _, a := range l.Admins {
		if a == identity {
			return true
		}
	}
	return false
}

// Allow reports whether identity may generate one more story now, and how
// many generations remain today. Admins always get remaining = Limit.
func (l *Limiter) Allow(identity string, now time.Time) (bool, int) {
	if l.IsAdmin(identity) {
		return true, l.Limit
	}
	count, err := l.Store.Count(identity, Day(now))
	if err != nil {
		l.logErr("usage count failed, allowing request", err)
		return true, l.Limit
	}
	remaining := l.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining > 0, remaining
}

// Remaining reports how many generations identity has left today.
func (l *Limiter) Remaining(identity string, now time.Time) int {
	_, remaining := l.Allow(identity, now)
	return remaining
}

// Record counts one successful story generation. Called only after the
// story itself succeeded, so failed attempts never consume quota.
func (l *Limiter) Record(identity string, now time.Time) {
	if l.IsAdmin(identity) {
		return
	}
	if err := l.Store.Increment(identity, Day(now)); err != nil {
		l.logErr("usage increment failed", err)
	}
}

func (l *Limiter) logErr(msg string, err error) {
	if l.Log != nil {
		l.Log.WithError(err).Warn(msg)
	}
}
