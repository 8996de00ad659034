package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/FreshTrackApp/FreshTrack/internal/pkg/env"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the application settings structure
type AppSettings struct {
	SiteTitle                string `json:"site_title" validate:"required,min=1,max=255"`
	EntitlementTTLSeconds    int    `json:"entitlement_ttl_seconds" validate:"min=1,max=3600"`
	RecordCountTTLSeconds    int    `json:"record_count_ttl_seconds" validate:"min=1,max=3600"`
	EnforceSweepMinutes      int    `json:"enforce_sweep_minutes" validate:"min=1,max=1440"`
	ConnectivityProbeSeconds int    `json:"connectivity_probe_seconds" validate:"min=1,max=600"`
	mu                       sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults; environment variables override them and
	// database rows override both.
	appSettings = &AppSettings{
		SiteTitle:                env.GetEnv("SITE_TITLE", "FreshTrack"),
		EntitlementTTLSeconds:    env.GetEnvInt("ENTITLEMENT_TTL_SECONDS", 45),
		RecordCountTTLSeconds:    env.GetEnvInt("RECORD_COUNT_TTL_SECONDS", 60),
		EnforceSweepMinutes:      env.GetEnvInt("ENFORCE_SWEEP_MINUTES", 15),
		ConnectivityProbeSeconds: env.GetEnvInt("CONNECTIVITY_PROBE_SECONDS", 10),
	}

	// Load settings from database
	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Apply loaded settings
	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "entitlement_ttl_seconds":
			if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
				appSettings.EntitlementTTLSeconds = v
			}
		case "record_count_ttl_seconds":
			if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
				appSettings.RecordCountTTLSeconds = v
			}
		case "enforce_sweep_minutes":
			if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
				appSettings.EnforceSweepMinutes = v
			}
		case "connectivity_probe_seconds":
			if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
				appSettings.ConnectivityProbeSeconds = v
			}
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Validate settings
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Convert settings to database format
	settingsMap := map[string]interface{}{
		"site_title":                 settings.SiteTitle,
		"entitlement_ttl_seconds":    strconv.Itoa(settings.EntitlementTTLSeconds),
		"record_count_ttl_seconds":   strconv.Itoa(settings.RecordCountTTLSeconds),
		"enforce_sweep_minutes":      strconv.Itoa(settings.EnforceSweepMinutes),
		"connectivity_probe_seconds": strconv.Itoa(settings.ConnectivityProbeSeconds),
	}

	// Save each setting
	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				// Create new setting
				setting = Setting{
					Key:   key,
					Value: fmt.Sprintf("%v", value),
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			// Update existing setting
			setting.Value = fmt.Sprintf("%v", value)
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	// Update global settings
	appSettings = settings
	return nil
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "site_title":
		return "string"
	default:
		return "integer"
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

// FromJSON loads settings from JSON
func (s *AppSettings) FromJSON(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, s)
}

// GetEntitlementTTL returns how long a cached entitlement stays fresh
func (s *AppSettings) GetEntitlementTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.EntitlementTTLSeconds) * time.Second
}

// GetRecordCountTTL returns how long cached record counts stay fresh
func (s *AppSettings) GetRecordCountTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.RecordCountTTLSeconds) * time.Second
}

// GetEnforceSweepInterval returns the interval of the lapsed-tier sweep
func (s *AppSettings) GetEnforceSweepInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.EnforceSweepMinutes) * time.Minute
}

// GetConnectivityProbeInterval returns how long a probe result is trusted
func (s *AppSettings) GetConnectivityProbeInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.ConnectivityProbeSeconds) * time.Second
}
