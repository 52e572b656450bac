package models

import "time"

// Default reward values for manually created habits.
const (
	DefaultHabitXP      = 10
	DefaultHabitCoins   = 5
	DefaultHabitPenalty = 5
)

// Habit is a recurring behavior the user tracks. Completing it grows the
// streak and rewards the user; failing it resets the streak and costs health.
type Habit struct {
	ID            string  `gorm:"primaryKey;type:uuid" json:"id"`
	Title         string  `gorm:"size:200;not null" json:"title"`
	Streak        int     `gorm:"default:0" json:"streak"`
	XPReward      int     `gorm:"default:10" json:"xp_reward"`
	CoinReward    int     `gorm:"default:5" json:"coin_reward"`
	HealthPenalty int     `gorm:"default:5" json:"health_penalty"`
	UserID        string  `gorm:"index;not null" json:"user_id"`
	LifeAreaID    *string `gorm:"type:uuid;index" json:"life_area_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
