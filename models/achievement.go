package models

import "time"

// SharedAchievement is an append-only entry in the public feed.
type SharedAchievement struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Text      string    `gorm:"size:500;not null" json:"text"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
