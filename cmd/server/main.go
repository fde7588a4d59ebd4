package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/cache"
	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/config"
	"github.com/j-chowder/anime-recommendation-backend/internal/handler"
	"github.com/j-chowder/anime-recommendation-backend/internal/index"
	"github.com/j-chowder/anime-recommendation-backend/internal/mal"
	"github.com/j-chowder/anime-recommendation-backend/internal/profile"
	"github.com/j-chowder/anime-recommendation-backend/internal/recommend"
	"github.com/j-chowder/anime-recommendation-backend/internal/relations"
	"github.com/j-chowder/anime-recommendation-backend/internal/repository"
	"github.com/j-chowder/anime-recommendation-backend/internal/router"
	"github.com/j-chowder/anime-recommendation-backend/internal/search"
	"github.com/j-chowder/anime-recommendation-backend/seeds"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to parse database config", zap.Error(err))
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool, log); err != nil {
		log.Fatal("database not ready", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrate(ctx, pool, "migrations/create_tables.down.sql"); err != nil {
			log.Fatal("failed to migrate down", zap.Error(err))
		}
		log.Info("migrations dropped")
		return
	}

	if err := migrate(ctx, pool, "migrations/create_tables.up.sql"); err != nil {
		log.Fatal("failed to migrate up", zap.Error(err))
	}
	log.Info("migrations applied")

	// ------------ Setup Seed Data ---------------
	if err := checkSeed(ctx, pool, log); err != nil {
		log.Fatal("failed to check seed", zap.Error(err))
	}

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to parse redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	resultCache := cache.NewCache(redisClient, cfg.CacheTTL)
	if err := resultCache.Ping(ctx); err != nil {
		log.Fatal("redis not ready", zap.Error(err))
	}
	log.Info("connected to Redis")

	// ------------ Build Catalog + Indices ---------------
	repo := repository.New(pool)

	animes, err := repo.LoadCatalog(ctx)
	if err != nil {
		log.Fatal("failed to load catalog", zap.Error(err))
	}
	cat := catalog.New(animes)
	log.Info("catalog loaded", zap.Int("animes", cat.Len()))

	start := time.Now()
	contentIndex := index.BuildContent(cat)
	log.Info("content similarity index built", zap.Duration("took", time.Since(start)))

	ratings, err := repo.LoadRatings(ctx)
	if err != nil {
		log.Fatal("failed to load ratings", zap.Error(err))
	}
	start = time.Now()
	collabIndex := index.BuildCollab(ratings, cfg.MinRatings)
	log.Info("collaborative similarity index built",
		zap.Int("ratings", len(ratings)),
		zap.Duration("took", time.Since(start)))

	// ------------ Wire Service ---------------
	jikan := relations.NewJikanClient(cfg.JikanBaseURL, log)
	resolver := relations.NewResolver(cat, repo, jikan, log)
	malClient := mal.NewClient(cfg.MALBaseURL, cfg.MALClientID, log)
	profiles := profile.NewBuilder(contentIndex, resolver, log)

	svc := recommend.NewService(recommend.Deps{
		Catalog:  cat,
		Content:  contentIndex,
		Collab:   collabIndex,
		Search:   search.New(cat),
		Profiles: profiles,
		Lists:    malClient,
		Genres:   repo,
		Cache:    resultCache,
		Log:      log,
	})

	// ---------------- Server --------------------
	h := handler.NewHandler(svc, log)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router.Setup(h, cfg.CORSOrigins),
	}

	log.Info("server running", zap.String("addr", cfg.Addr()))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Info("waiting for database...", zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrate(ctx context.Context, pool *pgxpool.Pool, file string) error {
	sql, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return nil
}

func checkSeed(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM animes").Scan(&count); err != nil {
		return fmt.Errorf("check animes count: %w", err)
	}
	if count > 0 {
		log.Info("database already seeded, skipping", zap.Int("animes", count))
		return nil
	}
	return seeds.Setup(ctx, pool, log)
}
