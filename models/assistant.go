package models

import "time"

// AssistantMessage is narrative feedback authored by the AI jobs, consumed by
// a polling read endpoint that marks it read.
type AssistantMessage struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Read      bool      `gorm:"default:false;index" json:"read"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AssistantPersonality is a global catalog entry. Users reference it by name,
// not by foreign key, so lookups must tolerate stale names.
type AssistantPersonality struct {
	ID                string `gorm:"primaryKey;type:uuid" json:"id"`
	Name              string `gorm:"uniqueIndex;size:40;not null" json:"name"`
	PromptDescription string `gorm:"type:text;not null" json:"prompt_description"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DefaultPersonalityName is the fallback when a user's selected personality
// no longer resolves.
const DefaultPersonalityName = "friendly"

// PersonalityCatalog is seeded at startup if the table is empty.
var PersonalityCatalog = []AssistantPersonality{
	{
		Name:              "friendly",
		PromptDescription: "Warm and encouraging. Celebrates every win, softens every setback, and always suggests one small next step.",
	},
	{
		Name:              "drill-sergeant",
		PromptDescription: "Strict and loud. No excuses, short sentences, demands discipline, but acknowledges real effort when it shows.",
	},
	{
		Name:              "sage",
		PromptDescription: "Calm and reflective. Frames progress and failure as part of a longer journey, quotes no one, keeps advice practical.",
	},
	{
		Name:              "jester",
		PromptDescription: "Playful and teasing. Uses humor to defuse failure and over-the-top fanfare for success, never mean-spirited.",
	},
}
