package models

import "time"

// UsageRecord counts successful story generations per identity per local day.
// The counter resets implicitly at midnight because Day changes.
type UsageRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Identity  string    `gorm:"not null;uniqueIndex:idx_usage_identity_day" json:"identity"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_usage_identity_day" json:"day"` // YYYY-MM-DD
	Count     int       `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
