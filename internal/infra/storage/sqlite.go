// Package storage persists instrument metadata gathered from symbol catalog
// messages. Live market state is deliberately never written here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marketbridge/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage wraps the SQLite instrument-metadata database.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at path.
func NewStorage(path string) (*Storage, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.InstrumentInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// ======================================================================================
// Instrument Operations
// ======================================================================================

// SyncCatalog upserts every symbol of a catalog message and marks symbols
// missing from it as inactive. Called by the ingestion pipeline.
func (s *Storage) SyncCatalog(ctx context.Context, symbols []string, receivedAt time.Time) error {
	listed := make(map[string]bool, len(symbols))

	for _, sym := range symbols {
		listed[sym] = true

		existing, err := s.GetInstrument(sym)
		if err != nil {
			return err
		}

		info := domain.InstrumentInfo{
			Symbol:        sym,
			Name:          sym,
			IsActive:      true,
			FirstSeenAt:   receivedAt,
			LastCatalogAt: receivedAt,
		}
		if existing != nil {
			info.Name = existing.Name
			info.FirstSeenAt = existing.FirstSeenAt
		}
		if err := s.db.WithContext(ctx).Save(&info).Error; err != nil {
			return fmt.Errorf("failed to upsert instrument %s: %w", sym, err)
		}
	}

	// Deactivate instruments absent from the latest catalog.
	all, err := s.AllInstruments()
	if err != nil {
		return err
	}
	for _, info := range all {
		if listed[info.Symbol] || !info.IsActive {
			continue
		}
		info.IsActive = false
		if err := s.db.WithContext(ctx).Save(&info).Error; err != nil {
			return fmt.Errorf("failed to deactivate instrument %s: %w", info.Symbol, err)
		}
	}

	return nil
}

// UpsertInstrument creates or updates instrument metadata
func (s *Storage) UpsertInstrument(info *domain.InstrumentInfo) error {
	return s.db.Save(info).Error
}

// GetInstrument retrieves instrument metadata by symbol
func (s *Storage) GetInstrument(symbol string) (*domain.InstrumentInfo, error) {
	var info domain.InstrumentInfo
	err := s.db.First(&info, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &info, err
}

// AllInstruments retrieves all instruments
func (s *Storage) AllInstruments() ([]domain.InstrumentInfo, error) {
	var infos []domain.InstrumentInfo
	err := s.db.Find(&infos).Error
	return infos, err
}

// DeleteInstrument deletes an instrument from the database
func (s *Storage) DeleteInstrument(symbol string) error {
	return s.db.Where("symbol = ?", symbol).Delete(&domain.InstrumentInfo{}).Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user configuration
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all user configurations as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
