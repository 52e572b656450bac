package models

import "time"

// Mission reward defaults. XP is fixed at MissionXPReward for every mission
// regardless of what the generator was told by the AI.
const (
	MissionXPReward     = 50
	DefaultMissionCoins = 10
)

// Mission is a one-shot objective with a deadline. It is terminal once
// Completed is true: either the user finished it (rewarded) or the expiry
// job closed it past its due time (Expired set, penalty applied). No mission
// is ever re-opened.
type Mission struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	XPReward   int       `gorm:"default:50" json:"xp_reward"`
	CoinReward int       `gorm:"default:10" json:"coin_reward"`
	Completed  bool      `gorm:"default:false;index" json:"completed"`
	Expired    bool      `gorm:"default:false" json:"expired"`
	DueAt      time.Time `gorm:"index;not null" json:"due_at"`
	UserID     string    `gorm:"index;not null" json:"user_id"`
	LifeAreaID *string   `gorm:"type:uuid;index" json:"life_area_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
