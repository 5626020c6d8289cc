// Package main provides the combat server binary: the HTTP combat API
// backed by PostgreSQL.
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
	"github.com/mgriffith/spindial/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting combat server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Load game data
	contentStart := time.Now()
	catalog, err := content.Load(cfg.Combat.ContentDir)
	if err != nil {
		logger.Fatal("loading game content", zap.Error(err))
	}
	logger.Info("game content loaded",
		zap.Int("enemies", catalog.EnemyCount()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Connect to PostgreSQL
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	players := postgres.NewPlayerRepository(pool.DB())
	weapons := content.NewWeaponResolver(catalog, players.EquippedWeapon)

	src := rng.NewCryptoSource()
	eng := engine.NewEngine(
		postgres.NewSessionStore(pool.DB()),
		players,
		catalog,
		weapons,
		catalog,
		postgres.NewInventoryRepository(pool.DB()),
		postgres.NewHistoryRepository(pool.DB()),
		src,
		observability.Component(logger, "engine"),
		cfg.Combat.SessionTTL,
	)

	var gen dialogue.Generator
	if cfg.Dialogue.Enabled {
		gen = dialogue.NewClient(cfg.Dialogue.Model, cfg.Dialogue.MaxTokens, cfg.Dialogue.Timeout, logger)
		logger.Info("dialogue generation enabled", zap.String("model", cfg.Dialogue.Model))
	} else {
		gen = dialogue.NewCanned(src)
	}

	health := func(ctx context.Context) error {
		return pool.Health(ctx, 2*time.Second)
	}
	handler := httpapi.NewHandler(eng, gen, health, observability.Component(logger, "http"))

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

	logger.Info("combat server ready", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
