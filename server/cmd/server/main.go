package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/breakaway-mp/server/core"
	"github.com/automoto/breakaway-mp/server/store"
	"github.com/automoto/breakaway-mp/shared/protocol"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/oklog/ulid/v2"
)

func main() {
	port := flag.Uint("port", 7373, "Server port")
	tickRate := flag.Int("tickrate", 0, "Server tick rate (updates per second, 0 = tuning default)")
	name := flag.String("name", "Breakaway Server", "Server display name")
	levelName := flag.String("level", "arena", "Level to play")
	assetsDir := flag.String("assets", "assets", "Directory holding levels/*.tmx")
	tuning := flag.String("tuning", "", "YAML file with tuning overrides")
	dbPath := flag.String("db", "breakaway.db", "SQLite database for match history (empty = none)")
	password := flag.String("password", "", "Join password (empty = open server)")
	secret := flag.String("secret", "", "Reconnect token secret (empty = random per run)")
	minPlayers := flag.Int("minplayers", 1, "Players needed before the relic activates")
	flag.Parse()

	if *tuning != "" {
		if err := settings.LoadOverrides(*tuning); err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
		log.Printf("[server] tuning overrides loaded from %s", *tuning)
	}
	if *tickRate <= 0 {
		*tickRate = settings.Net.TickRate
	}

	if err := protocol.RegisterComponents(); err != nil {
		log.Fatalf("Failed to register components: %v", err)
	}

	levels, names, err := core.LoadAllServerLevels(*assetsDir)
	if err != nil {
		log.Fatalf("Failed to load levels: %v", err)
	}
	level, ok := levels[*levelName]
	if !ok {
		log.Fatalf("Unknown level %q (have %v)", *levelName, names)
	}

	auth, err := core.NewAuth(*password, []byte(*secret), time.Duration(settings.Net.ReconnectTokenTTL*float64(time.Second)))
	if err != nil {
		log.Fatalf("Failed to set up auth: %v", err)
	}

	opts := core.Options{
		Name:       *name,
		TickRate:   *tickRate,
		Level:      level,
		Auth:       auth,
		MatchID:    ulid.Make(),
		MinPlayers: *minPlayers,
	}
	var db *store.Store
	if *dbPath != "" {
		db, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		if opts.MatchID, err = db.RecordMatch(*levelName, time.Now()); err != nil {
			log.Fatalf("Failed to record match: %v", err)
		}
		opts.Recorder = db
	}

	server, err := core.NewServer(opts)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		server.Stop()
		if db != nil {
			if err := db.Close(); err != nil {
				log.Printf("[store] close: %v", err)
			}
		}
		os.Exit(0)
	}()

	log.Printf("Starting Breakaway server %q on port %d (tick rate: %d/s, level: %s, match: %s)",
		*name, *port, *tickRate, *levelName, opts.MatchID)
	if err := server.Start(*port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
