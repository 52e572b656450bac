package models

import "time"

// LifeArea groups a user's habits, missions and shop rewards thematically
// ("Salud", "Carrera", ...). Created by hand or by the initial AI setup.
type LifeArea struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	Name   string `gorm:"size:120;not null" json:"name"`
	Icon   string `gorm:"size:80" json:"icon"`
	UserID string `gorm:"index;not null" json:"user_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
