package models

import (
	"time"
)

// OnboardingStatus tracks how far a user has progressed through onboarding.
// The AI setup step is only reachable from StatusGoalsSet and moves the user
// to StatusGenerated, so initial generation runs at most once per account.
type OnboardingStatus string

const (
	StatusRegistered OnboardingStatus = "registered"
	StatusProfiled   OnboardingStatus = "profiled"
	StatusGoalsSet   OnboardingStatus = "goals_set"
	StatusGenerated  OnboardingStatus = "generated"
)

// Health is clamped to [MinHealth, MaxHealth] by every mutation.
const (
	MinHealth = 0
	MaxHealth = 100
)

type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Username     string `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string `gorm:"size:256;not null" json:"-"`

	// Game stats
	Level         int `gorm:"default:1" json:"level"`
	CurrentXP     int `gorm:"default:0" json:"current_xp"`
	XPToNextLevel int `gorm:"default:100" json:"xp_to_next_level"`
	Coins         int `gorm:"default:0" json:"coins"`
	Health        int `gorm:"default:100" json:"health"`

	// Profile, filled in during onboarding
	AgeBracket        *string `gorm:"size:40" json:"age_bracket,omitempty"`
	FreeTime          *string `gorm:"size:40" json:"free_time,omitempty"`
	Hobbies           *string `gorm:"type:text" json:"hobbies,omitempty"`
	PersonalGoals     *string `gorm:"type:text" json:"personal_goals,omitempty"`
	ProfessionalGoals *string `gorm:"type:text" json:"professional_goals,omitempty"`

	// Loose name reference into the personality catalog; resolved at read
	// time with a "friendly" fallback.
	AssistantPersonality string `gorm:"size:40;default:'friendly'" json:"assistant_personality"`

	// How much content the AI jobs generate for this user.
	MissionsPerDay   int `gorm:"default:3" json:"missions_per_day"`
	HabitsToGenerate int `gorm:"default:3" json:"habits_to_generate"`
	ShopItemsPerDay  int `gorm:"default:3" json:"shop_items_per_day"`

	OnboardingStatus OnboardingStatus `gorm:"size:20;default:'registered';index" json:"onboarding_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	LifeAreas          []LifeArea          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Habits             []Habit             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Missions           []Mission           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ShopItems          []ShopItem          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SharedAchievements []SharedAchievement `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AssistantMessages  []AssistantMessage  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ClampHealth forces a health value back into its legal range.
func ClampHealth(h int) int {
	if h < MinHealth {
		return MinHealth
	}
	if h > MaxHealth {
		return MaxHealth
	}
	return h
}
