// Package usage enforces the per-identity daily story limit. Counts reset
// at midnight by keying on the calendar day; nothing is ever decremented.
package usage

import (
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storyforge/models"
)

// DayFormat keys usage records by calendar day.
const DayFormat = "2006-01-02"

// Day formats a time as a usage-record day key.
func Day(t time.Time) string { return t.Format(DayFormat) }

// Store counts story generations per identity per day.
type Store interface {
	Count(identity, day string) (int, error)
	Increment(identity, day string) error
}

// MemoryStore keeps counts in process memory. Used by the batch CLI and in
// tests, where persistence across restarts does not matter.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int)}
}

func (s *MemoryStore) Count(identity, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[identity+"|"+day], nil
}

func (s *MemoryStore) Increment(identity, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[identity+"|"+day]++
	return nil
}

// GormStore persists counts in the usage_records table.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Count(identity, day string) (int, error) {
	var rec models.UsageRecord
	err := s.DB.Where("identity = ? AND day = ?", identity, day).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Count, nil
}

func (s *GormStore) Increment(identity, day string) error {
	rec := models.UsageRecord{Identity: identity, Day: day, Count: 1}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("usage_records.count + 1")}),
	}).Create(&rec).Error
}
