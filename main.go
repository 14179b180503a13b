package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing spacecells.json")
	hashPass := flag.String("hash", "", "Print the bcrypt hash of a commander passphrase and exit")
	flag.Parse()

	if *hashPass != "" {
		hash, err := HashPassphrase(*hashPass)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := LoadConfig(*configDir)
	if err != nil {
		Logger.Fatal().Err(err).Msg("Failed to load config")
	}
	SetupLogger(cfg.LogLevel, cfg.Pretty)

	db, err := OpenDB(cfg.DB.Path)
	if err != nil {
		Logger.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("Failed to open battle log")
	}
	defer db.Close()

	battleID := GenerateUUID()
	if err := db.CreateBattle(battleID, cfg.Sim.Seed, cfg.Sim.WorldSize); err != nil {
		Logger.Fatal().Err(err).Msg("Failed to record battle")
	}
	recorder := NewRecorder(db, battleID)

	game, err := NewGame(battleID, cfg, recorder)
	if err != nil {
		Logger.Fatal().Err(err).Msg("Failed to create battle")
	}

	auth, passphrase, err := NewAuth(db, cfg.Auth.CommanderHash, cfg.Auth.TokenTTL)
	if err != nil {
		Logger.Fatal().Err(err).Msg("Failed to set up commander auth")
	}
	if passphrase != "" {
		Logger.Warn().Str("passphrase", passphrase).Msg("No auth.commanderHash configured, generated a one-time commander passphrase")
	}

	hub := NewHub(game, auth, db)
	go hub.Run()
	go game.Run()

	mux := SetupRoutes(hub, cfg)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	go func() {
		Logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("client", cfg.Server.ClientDir).
			Str("battle", battleID).
			Msg("Server starting")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			Logger.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	<-stop
	Logger.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)

	game.Stop()
	recorder.Stop()
	if err := db.EndBattle(battleID, game.Tick()); err != nil {
		Logger.Error().Err(err).Msg("Failed to close battle record")
	}
	if n := recorder.Dropped(); n > 0 {
		Logger.Warn().Int64("dropped", n).Msg("Battle log dropped events")
	}
}
