package models

import "time"

const DefaultShopItemCost = 50

// ShopItem is a personalized reward the user can buy with coins. The catalog
// is replaced wholesale by the daily shop refresh job.
type ShopItem struct {
	ID         string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name       string  `gorm:"size:200;not null" json:"name"`
	Cost       int     `gorm:"not null" json:"cost"`
	UserID     string  `gorm:"index;not null" json:"user_id"`
	LifeAreaID *string `gorm:"type:uuid;index" json:"life_area_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DefaultShopCatalog seeds a fresh account before the first AI refresh runs.
var DefaultShopCatalog = []ShopItem{
	{Name: "1h de Videojuegos", Cost: 50},
	{Name: "Cena especial (delivery)", Cost: 150},
	{Name: "Día libre de tareas", Cost: 300},
}
