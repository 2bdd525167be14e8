// Package models contains data structures used throughout the application
package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Settings contains user preferences persisted between runs
type Settings struct {
	mu sync.RWMutex `json:"-"`

	// Nightscout connection (optional glucose source and meal sink)
	NightscoutURL       string `json:"nightscoutUrl"`
	APISecret           string `json:"apiSecret"` // Plain API secret (will be hashed)
	APIToken            string `json:"apiToken"`  // Token-based auth
	UseToken            bool   `json:"useToken"`  // Use token instead of secret
	PostMealsNightscout bool   `json:"postMealsNightscout"`

	// Display settings
	Unit string `json:"unit"` // "mg/dL" or "mmol/L"

	// Glucose thresholds (in mg/dL, converted for display)
	TargetLow  int `json:"targetLow"`
	TargetHigh int `json:"targetHigh"`
	UrgentLow  int `json:"urgentLow"`
	UrgentHigh int `json:"urgentHigh"`

	// Alert settings
	EnableHighAlert    bool `json:"enableHighAlert"`
	EnableLowAlert     bool `json:"enableLowAlert"`
	EnableSoundAlerts  bool `json:"enableSoundAlerts"`
	RepeatAlertMinutes int  `json:"repeatAlertMinutes"` // 0 = no repeat

	// Chart settings
	ChartWidth        int    `json:"chartWidth"`
	ChartHeight       int    `json:"chartHeight"`
	ChartColorInRange string `json:"chartColorInRange"` // Hex color
	ChartColorHigh    string `json:"chartColorHigh"`
	ChartColorLow     string `json:"chartColorLow"`
	ChartColorUrgent  string `json:"chartColorUrgent"`
	ChartShowTarget   bool   `json:"chartShowTarget"` // Show target range band

	// Prediction settings
	DefaultMealOrder MealOrder `json:"defaultMealOrder"`
	HistoryPath      string    `json:"historyPath"` // Empty = <config>/history.json
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		Unit: "mg/dL",

		TargetLow:  70,
		TargetHigh: 180,
		UrgentLow:  55,
		UrgentHigh: 250,

		EnableHighAlert:    true,
		EnableLowAlert:     true,
		EnableSoundAlerts:  false,
		RepeatAlertMinutes: 15,

		ChartWidth:        800,
		ChartHeight:       400,
		ChartColorInRange: "#4ade80", // Green
		ChartColorHigh:    "#facc15", // Yellow
		ChartColorLow:     "#f97316", // Orange
		ChartColorUrgent:  "#ef4444", // Red
		ChartShowTarget:   true,

		DefaultMealOrder: OrderSimultaneous,
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	appDir := filepath.Join(configDir, "glucopredict")
	if err := os.MkdirAll(appDir, 0750); err != nil {
		return "", err
	}

	return appDir, nil
}

// GetConfigPath returns the full path to the default settings file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load loads settings from the default location
func (s *Settings) Load() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return s.LoadFrom(path)
}

// LoadFrom loads settings from path. A missing file resets to defaults.
func (s *Settings) LoadFrom(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path) //nolint:gosec // Config path is controlled by the app, not user input
	if err != nil {
		if os.IsNotExist(err) {
			s.copySettingsFields(DefaultSettings())
			return nil
		}
		return err
	}

	return json.Unmarshal(data, s)
}

// SaveTo writes settings to path
func (s *Settings) SaveTo(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Clone creates a copy of the settings
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Settings{}
	clone.copySettingsFields(s)
	return clone
}

// copySettingsFields copies all fields from other to s, excluding the mutex.
// The caller must hold the necessary locks.
func (s *Settings) copySettingsFields(other *Settings) {
	s.NightscoutURL = other.NightscoutURL
	s.APISecret = other.APISecret
	s.APIToken = other.APIToken
	s.UseToken = other.UseToken
	s.PostMealsNightscout = other.PostMealsNightscout
	s.Unit = other.Unit
	s.TargetLow = other.TargetLow
	s.TargetHigh = other.TargetHigh
	s.UrgentLow = other.UrgentLow
	s.UrgentHigh = other.UrgentHigh
	s.EnableHighAlert = other.EnableHighAlert
	s.EnableLowAlert = other.EnableLowAlert
	s.EnableSoundAlerts = other.EnableSoundAlerts
	s.RepeatAlertMinutes = other.RepeatAlertMinutes
	s.ChartWidth = other.ChartWidth
	s.ChartHeight = other.ChartHeight
	s.ChartColorInRange = other.ChartColorInRange
	s.ChartColorHigh = other.ChartColorHigh
	s.ChartColorLow = other.ChartColorLow
	s.ChartColorUrgent = other.ChartColorUrgent
	s.ChartShowTarget = other.ChartShowTarget
	s.DefaultMealOrder = other.DefaultMealOrder
	s.HistoryPath = other.HistoryPath
}

// IsNightscoutConfigured returns true if a Nightscout URL is set
func (s *Settings) IsNightscoutConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.NightscoutURL != ""
}

// GetGlucoseStatus returns the display status string for a glucose value
func (s *Settings) GetGlucoseStatus(mgdl float64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case mgdl <= float64(s.UrgentLow):
		return "urgent_low"
	case mgdl < float64(s.TargetLow):
		return "low"
	case mgdl >= float64(s.UrgentHigh):
		return "urgent_high"
	case mgdl >= float64(s.TargetHigh):
		return "high"
	default:
		return "normal"
	}
}

// FormatGlucose converts a mg/dL value into the configured display unit
func (s *Settings) FormatGlucose(mgdl float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Unit == "mmol/L" {
		return ToMmol(mgdl)
	}
	return mgdl
}
