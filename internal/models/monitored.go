package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MonitoredSKU is a distributor style the merchant asked to keep in sync.
// Its lifetime is independent of any catalog product created from it.
type MonitoredSKU struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	SKU       string    `json:"sku" gorm:"unique;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *MonitoredSKU) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Setting is a persisted configuration entry. Values are JSON so a single
// table can hold scalar settings and per-SKU maps alike.
type Setting struct {
	Key       string    `json:"key" gorm:"primary_key"`
	Value     string    `json:"value" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}
