package main

import (
	"flag"
	"log"

	"github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/scenes"
	"github.com/automoto/breakaway-mp/shared/protocol"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/automoto/breakaway-mp/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

type Scene interface {
	Update()
	Draw(screen *ebiten.Image)
}

type Game struct {
	scene Scene
}

// ChangeScene switches to a new scene
func (g *Game) ChangeScene(scene interface{}) {
	g.scene = scene.(Scene)
}

func NewGame() *Game {
	g := &Game{}
	g.scene = scenes.NewConnectScene(g)
	return g
}

func (g *Game) Update() error {
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	return config.C.Width, config.C.Height
}

func main() {
	addr := flag.String("addr", "", "Server address host:port (default: last used)")
	name := flag.String("name", "", "Player name (default: last used)")
	password := flag.String("password", "", "Server join password")
	tuning := flag.String("tuning", "", "YAML file with tuning overrides, must match the server's")
	debug := flag.Bool("debug", false, "Start with the debug overlay on")
	flag.Parse()

	// Initialize persistence and load saved settings
	if err := systems.InitPersistence(); err != nil {
		log.Printf("Warning: Could not initialize persistence: %v", err)
	}
	if saved, err := systems.LoadSettings(); err == nil && saved != nil {
		config.Settings = *saved
	}
	if *addr != "" && *addr != config.Settings.ServerAddress {
		config.Settings.ServerAddress = *addr
		config.Settings.ReconnectToken = ""
	}
	if *name != "" {
		config.Settings.PlayerName = *name
	}
	if *debug {
		config.Settings.ShowDebug = true
	}
	scenes.Password = *password
	systems.SaveCurrentSettings()

	if *tuning != "" {
		if err := settings.LoadOverrides(*tuning); err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}

	// Register network components for client-side deserialization
	if err := protocol.RegisterComponents(); err != nil {
		log.Fatalf("Failed to register network components: %v", err)
	}

	ebiten.SetWindowSize(config.C.Width, config.C.Height)
	ebiten.SetWindowTitle(config.C.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(NewGame()); err != nil {
		log.Fatal(err)
	}
}
