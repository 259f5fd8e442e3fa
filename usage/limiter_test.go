package usage

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLimiterEnforcesDailyLimit(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), 3, nil, quietLogger())
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ok, remaining := l.Allow("user-1", now)
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if remaining != 3-i {
			t.Errorf("remaining = %d, want %d", remaining, 3-i)
		}
		l.Record("user-1", now)
	}

	ok, remaining := l.Allow("user-1", now)
	if ok || remaining != 0 {
		t.Errorf("fourth request: ok=%v remaining=%d, want denied with 0", ok, remaining)
	}

	// Other identities are unaffected.
	if ok, _ := l.Allow("user-2", now); !ok {
		t.Error("a different identity should not share the quota")
	}
}

func TestLimiterResetsAtMidnight(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), 1, nil, quietLogger())
	today := time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC)
	tomorrow := today.Add(2 * time.Minute)

	l.Record("user-1", today)
	if ok, _ := l.Allow("user-1", today); ok {
		t.Error("limit should be reached today")
	}
	if ok, _ := l.Allow("user-1", tomorrow); !ok {
		t.Error("quota should reset on the next day")
	}
}

func TestAdminBypassesLimit(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), 1, []string{"root"}, quietLogger())
	now := time.Now()

	for i := 0; i < 10; i++ {
		ok, remaining := l.Allow("root", now)
		if !ok || remaining != 1 {
			t.Fatalf("admin request %d: ok=%v remaining=%d", i, ok, remaining)
		}
		l.Record("root", now)
	}
	// Admin records are not written at all.
	if count, _ := l.Store.Count("root", Day(now)); count != 0 {
		t.Errorf("admin usage count = %d, want 0", count)
	}
}

type brokenStore struct{}

func (brokenStore) Count(string, string) (int, error) { return 0, errors.New("db down") }
func (brokenStore) Increment(string, string) error    { return errors.New("db down") }

func TestFailingStoreAllowsRequests(t *testing.T) {
	l := NewLimiter(brokenStore{}, 2, nil, quietLogger())
	ok, remaining := l.Allow("user-1", time.Now())
	if !ok || remaining != 2 {
		t.Errorf("a broken store should fail open: ok=%v remaining=%d", ok, remaining)
	}
	// Record must not panic either.
	l.Record("user-1", time.Now())
}

func TestDayFormat(t *testing.T) {
	d := Day(time.Date(2026, 8, 24, 15, 4, 5, 0, time.UTC))
	if d != "2026-08-24" {
		t.Errorf("Day = %q", d)
	}
}
