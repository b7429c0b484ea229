package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"
)

// DB holds the shared database handles
type DB struct {
	Gorm  *gorm.DB
	Redis *redis.Client
	log   *logger.Logger
}

// Init connects to Postgres and Redis and verifies both
func Init(cfg *config.Config, log *logger.Logger) (*DB, error) {
	gormLogLevel := gormlogger.Warn
	if cfg.GinMode == "debug" {
		gormLogLevel = gormlogger.Info
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("database connections established",
		"postgres", cfg.Database.Host,
		"redis", cfg.Redis.Addr)
	return &DB{Gorm: gormDB, Redis: redisClient, log: log}, nil
}

// HealthCheck pings both stores
func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	if err := db.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unhealthy: %w", err)
	}
	return nil
}

// Close releases both connections
func (db *DB) Close() {
	if sqlDB, err := db.Gorm.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			db.log.WithError(err).Error("failed to close postgres connection")
		}
	}
	if err := db.Redis.Close(); err != nil {
		db.log.WithError(err).Error("failed to close redis connection")
	}
}
