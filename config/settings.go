package config

// ClientSettings are the player's choices, persisted between runs.
type ClientSettings struct {
	ToggleCrouch   bool   `json:"toggleCrouch"` // Crouch key toggles instead of being held
	ShowDebug      bool   `json:"showDebug"`
	ServerAddress  string `json:"serverAddress"`
	PlayerName     string `json:"playerName"`
	ReconnectToken string `json:"reconnectToken"`
}

// Settings is the global client settings instance
var Settings ClientSettings

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() ClientSettings {
	return ClientSettings{
		ServerAddress: "localhost:7373",
		PlayerName:    "player",
	}
}

func init() {
	Settings = DefaultSettings()
}
