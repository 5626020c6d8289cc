// Package main provides the all-in-one development server: the combat API
// backed by in-memory stores and seeded dev players, no database required.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mgriffith/spindial/internal/config"
	"github.com/mgriffith/spindial/internal/content"
	"github.com/mgriffith/spindial/internal/dialogue"
	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/rng"
	"github.com/mgriffith/spindial/internal/httpapi"
	"github.com/mgriffith/spindial/internal/observability"
	"github.com/mgriffith/spindial/internal/server"
	"github.com/mgriffith/spindial/internal/storage/memory"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dev combat server",
		zap.String("addr", cfg.Server.Addr()),
	)

	catalog, err := content.Load(cfg.Combat.ContentDir)
	if err != nil {
		logger.Fatal("loading game content", zap.Error(err))
	}
	logger.Info("game content loaded", zap.Int("enemies", catalog.EnemyCount()))

	players := memory.NewPlayerStore()
	players.Seed("dev", memory.PlayerProfile{
		Stats: engine.PlayerStats{
			AttackPower:     20,
			AttackAccuracy:  5,
			DefensePower:    8,
			DefenseAccuracy: 5,
			MaxHP:           40,
		},
	})
	logger.Info("seeded dev player", zap.String("player_id", "dev"))

	src := rng.NewCryptoSource()
	eng := engine.NewEngine(
		memory.NewSessionStore(),
		players,
		catalog,
		content.NewWeaponResolver(catalog, players.EquippedWeapon),
		catalog,
		memory.NewInventoryStore(),
		memory.NewHistoryStore(),
		src,
		observability.Component(logger, "engine"),
		cfg.Combat.SessionTTL,
	)

	handler := httpapi.NewHandler(eng, dialogue.NewCanned(src), nil, observability.Component(logger, "http"))

	lc := server.NewLifecycle(logger)
	lc.Add("http", &server.HTTPService{
		Server: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      handler.Routes(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	logger.Info("dev combat server ready", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
