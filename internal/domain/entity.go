package domain

import (
	"time"
)

// InstrumentInfo represents metadata for a tradable instrument, populated
// from symbol catalog messages. Market state itself is never persisted.
type InstrumentInfo struct {
	Symbol        string    `gorm:"primaryKey" json:"symbol"`
	Name          string    `json:"name"`
	IsActive      bool      `json:"is_active" gorm:"index"` // Present in the latest catalog
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastCatalogAt time.Time `json:"last_catalog_at"` // Last catalog message listing this symbol
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
