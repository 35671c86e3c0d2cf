package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-share/internal/utils"
	"recipe-share/pkg/search"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func ConnectDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		utils.GetConfig("DB_HOST"),
		utils.GetConfig("DB_USER"),
		utils.GetConfig("DB_PASSWORD"),
		utils.GetConfig("DB_NAME"),
		utils.GetConfig("DB_PORT"),
		utils.GetConfig("DB_SSLMODE"),
	)

	logLevel := gormlogger.Warn
	if utils.IsProduction() {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(utils.GetConfigInt("DB_MAX_OPEN_CONNS", 25))
	sqlDB.SetMaxIdleConns(utils.GetConfigInt("DB_MAX_IDLE_CONNS", 5))
	sqlDB.SetConnMaxLifetime(time.Duration(utils.GetConfigInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute)

	return db, nil
}

// PingDB backs the health endpoint.
func PingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     utils.GetConfig("REDIS_ADDR"),
		Password: utils.GetConfig("REDIS_PASSWORD"),
		DB:       utils.GetConfigInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

func PingRedis(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

func PingSearch(client search.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if !client.Healthy(ctx) {
			return errors.New("search service unhealthy")
		}
		return nil
	}
}
