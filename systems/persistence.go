package systems

import (
	"encoding/json"
	"log"

	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/quasilyte/gdata"
)

const settingsKey = "settings"

var gdataManager *gdata.Manager

// InitPersistence initializes the gdata manager for settings storage
func InitPersistence() error {
	m, err := gdata.Open(gdata.Config{
		AppName: "breakaway",
	})
	if err != nil {
		return err
	}
	gdataManager = m
	return nil
}

// LoadSettings loads settings from disk. Missing or unreadable settings leave
// the defaults in place.
func LoadSettings() (*cfg.ClientSettings, error) {
	if gdataManager == nil {
		return nil, nil
	}

	data, err := gdataManager.LoadItem(settingsKey)
	if err != nil {
		log.Printf("Warning: Could not load settings: %v", err)
		return nil, nil
	}
	if len(data) == 0 {
		// No saved settings yet, use defaults
		return nil, nil
	}

	return decodeSettings(data)
}

// decodeSettings fills in defaults for fields an older save did not have.
func decodeSettings(data []byte) (*cfg.ClientSettings, error) {
	settings := cfg.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		log.Printf("Warning: Could not parse saved settings: %v", err)
		return nil, err
	}
	if settings.ServerAddress == "" {
		settings.ServerAddress = cfg.DefaultSettings().ServerAddress
	}
	if settings.PlayerName == "" {
		settings.PlayerName = cfg.DefaultSettings().PlayerName
	}
	return &settings, nil
}

// SaveSettings saves settings to disk
func SaveSettings(s *cfg.ClientSettings) error {
	if gdataManager == nil {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("Warning: Could not serialize settings: %v", err)
		return err
	}

	if err := gdataManager.SaveItem(settingsKey, data); err != nil {
		log.Printf("Warning: Could not save settings: %v", err)
		return err
	}
	return nil
}

// SaveCurrentSettings saves the global settings, logging failures.
func SaveCurrentSettings() {
	_ = SaveSettings(&cfg.Settings)
}
