package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"stylesync/internal/config"
	"stylesync/internal/models"
)

// Setting keys. One row per key; per-SKU maps are stored as JSON values.
const (
	keyColorSelections = "color_selections"
	keyMarginSettings  = "margin_settings"
	keyUsername        = "ss_username"
	keyPassword        = "ss_password"
	keySyncInterval    = "sync_interval_minutes"
)

// Store persists merchant preferences: which SKUs to monitor, which colors to
// include per SKU, per-SKU margins and the distributor credentials.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) getSetting(key string) (string, bool, error) {
	var setting models.Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

func (s *Store) setSetting(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.Save(&setting).Error
}

// ColorSelections returns the per-SKU color selection map, sanitized: blank
// SKUs and colors are dropped and each list is deduplicated in saved order.
func (s *Store) ColorSelections() (map[string][]string, error) {
	raw, ok, err := s.getSetting(keyColorSelections)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string][]string{}, nil
	}

	var stored map[string][]string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return map[string][]string{}, nil
	}

	sanitized := map[string][]string{}
	for sku, colors := range stored {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		list := []string{}
		seen := map[string]bool{}
		for _, color := range colors {
			color = strings.TrimSpace(color)
			if color == "" || seen[color] {
				continue
			}
			seen[color] = true
			list = append(list, color)
		}
		sanitized[sku] = list
	}
	return sanitized, nil
}

// SelectedColors returns the selection for one SKU. An empty list means
// "include every color the style returns".
func (s *Store) SelectedColors(sku string) []string {
	selections, err := s.ColorSelections()
	if err != nil {
		return nil
	}
	return selections[strings.TrimSpace(sku)]
}

// SaveColorSelection replaces the color selection for one SKU wholesale.
func (s *Store) SaveColorSelection(sku string, colors []string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errors.New("sku is empty")
	}

	selections, err := s.ColorSelections()
	if err != nil {
		return err
	}

	list := []string{}
	seen := map[string]bool{}
	for _, color := range colors {
		color = strings.TrimSpace(color)
		if color == "" || seen[color] {
			continue
		}
		seen[color] = true
		list = append(list, color)
	}
	selections[sku] = list

	encoded, err := json.Marshal(selections)
	if err != nil {
		return err
	}
	return s.setSetting(keyColorSelections, string(encoded))
}

// MarginSettings returns the per-SKU margin map, discarding blank SKUs and
// non-positive margins.
func (s *Store) MarginSettings() (map[string]float64, error) {
	raw, ok, err := s.getSetting(keyMarginSettings)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]float64{}, nil
	}

	var stored map[string]float64
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return map[string]float64{}, nil
	}

	sanitized := map[string]float64{}
	for sku, margin := range stored {
		sku = strings.TrimSpace(sku)
		if sku == "" || margin <= 0 {
			continue
		}
		sanitized[sku] = margin
	}
	return sanitized, nil
}

// SaveMargin stores a positive margin for one SKU and mirrors it onto the
// catalog product record when one exists, so the margin survives even if the
// settings map is cleared.
func (s *Store) SaveMargin(sku string, margin float64) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errors.New("sku is empty")
	}
	if margin <= 0 {
		return fmt.Errorf("margin must be positive, got %v", margin)
	}

	settings, err := s.MarginSettings()
	if err != nil {
		return err
	}
	settings[sku] = margin

	encoded, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	if err := s.setSetting(keyMarginSettings, string(encoded)); err != nil {
		return err
	}

	s.db.Model(&models.CatalogProduct{}).
		Where("sku = ?", sku).
		Update("margin_percent", margin)
	return nil
}

// MarginPercentFor resolves the margin for a SKU: the settings map first,
// then the mirrored value on the catalog product, then the default.
func (s *Store) MarginPercentFor(sku string, defaultMargin float64) float64 {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return defaultMargin
	}

	settings, err := s.MarginSettings()
	if err == nil {
		if margin, ok := settings[sku]; ok {
			return margin
		}
	}

	var product models.CatalogProduct
	if err := s.db.Select("margin_percent").First(&product, "sku = ?", sku).Error; err == nil {
		if product.MarginPercent > 0 {
			return product.MarginPercent
		}
	}

	return defaultMargin
}

// Credentials returns the distributor Basic-auth pair; either may be blank.
func (s *Store) Credentials() (string, string) {
	username, _, _ := s.getSetting(keyUsername)
	password, _, _ := s.getSetting(keyPassword)
	return username, password
}

func (s *Store) SaveCredentials(username, password string) error {
	if err := s.setSetting(keyUsername, strings.TrimSpace(username)); err != nil {
		return err
	}
	return s.setSetting(keyPassword, strings.TrimSpace(password))
}

// SyncIntervalMinutes returns the configured interval, floored at the
// minimum so a bad save cannot hammer the distributor.
func (s *Store) SyncIntervalMinutes(defaultMinutes int) int {
	raw, ok, err := s.getSetting(keySyncInterval)
	if err != nil || !ok {
		return clampInterval(defaultMinutes)
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return clampInterval(defaultMinutes)
	}
	return clampInterval(minutes)
}

func (s *Store) SaveSyncInterval(minutes int) error {
	return s.setSetting(keySyncInterval, strconv.Itoa(clampInterval(minutes)))
}

func clampInterval(minutes int) int {
	if minutes < config.MinSyncIntervalMinutes {
		return config.MinSyncIntervalMinutes
	}
	return minutes
}

// AddMonitoredSKU registers a SKU for syncing; adding an existing SKU is a
// no-op.
func (s *Store) AddMonitoredSKU(sku string) (*models.MonitoredSKU, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, errors.New("sku is empty")
	}

	monitored := models.MonitoredSKU{SKU: sku}
	if err := s.db.FirstOrCreate(&monitored, models.MonitoredSKU{SKU: sku}).Error; err != nil {
		return nil, err
	}
	return &monitored, nil
}

func (s *Store) RemoveMonitoredSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errors.New("sku is empty")
	}
	return s.db.Delete(&models.MonitoredSKU{}, "sku = ?", sku).Error
}

// MonitoredSKUs lists monitored SKUs, most recently added first.
func (s *Store) MonitoredSKUs() ([]models.MonitoredSKU, error) {
	var monitored []models.MonitoredSKU
	err := s.db.Order("created_at DESC").Find(&monitored).Error
	return monitored, err
}

func (s *Store) MonitoredCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.MonitoredSKU{}).Count(&count).Error
	return count, err
}
