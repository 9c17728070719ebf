package config

import (
	"image/color"

	"github.com/yohamta/donburi/ecs"
)

// Config holds general window configuration
type Config struct {
	Width  int
	Height int
	Title  string
}

// CameraConfig contains top-down camera configuration
type CameraConfig struct {
	FollowSmoothing float64 // How fast camera follows player (0.0-1.0)
	Zoom            float64 // Screen pixels per world centimeter
	MinZoom         float64
	MaxZoom         float64
	ZoomStep        float64
}

// FeedConfig contains the event feed shown under the scoreboard
type FeedConfig struct {
	MaxLines int
	Duration float64 // Seconds a line stays visible
	TopY     int
}

// Render layers
const (
	LayerWorld ecs.LayerID = iota
	LayerHUD
)

// Global configuration instances
var C *Config
var Camera CameraConfig
var Feed FeedConfig

// Shared RGBA color constants
var (
	White        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow       = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange       = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Red          = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	BrightGreen  = color.RGBA{R: 0, G: 255, B: 60, A: 255}
	LightGreen   = color.RGBA{R: 100, G: 255, B: 100, A: 255}
	Blue         = color.RGBA{R: 0, G: 100, B: 255, A: 255}
	Purple       = color.RGBA{R: 128, G: 0, B: 255, A: 255}
	LightRed     = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	Magenta      = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Grey         = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	DarkGrey     = color.RGBA{R: 40, G: 40, B: 48, A: 255}
	BlackOverlay = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	LightBlue    = color.RGBA{R: 100, G: 180, B: 255, A: 255}
	DarkBlue     = color.RGBA{R: 60, G: 100, B: 160, A: 255}
)

// TeamColors is indexed by team.
var TeamColors = []color.RGBA{LightBlue, LightRed}

// TeamColor returns the color of team, grey for no team.
func TeamColor(team int) color.RGBA {
	if team < 0 || team >= len(TeamColors) {
		return Grey
	}
	return TeamColors[team]
}

func init() {
	C = &Config{
		Width:  1280,
		Height: 720,
		Title:  "Breakaway",
	}

	Camera = CameraConfig{
		FollowSmoothing: 0.15,
		Zoom:            0.3,
		MinZoom:         0.1,
		MaxZoom:         1.0,
		ZoomStep:        0.05,
	}

	Feed = FeedConfig{
		MaxLines: 5,
		Duration: 4,
		TopY:     40,
	}
}
