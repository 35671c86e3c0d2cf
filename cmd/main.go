package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-share/cmd/config"
	migration "recipe-share/cmd/database/migrate"
	"recipe-share/internal/api/handlers"
	"recipe-share/internal/session"
	"recipe-share/internal/utils"
	"recipe-share/internal/utils/mailing"
	"recipe-share/internal/utils/storage"
	"recipe-share/pkg/ingredient"
	"recipe-share/pkg/oauth"
	"recipe-share/pkg/search"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

func main() {
	migrate := flag.String("migrate", "", "run database migrations (up|down) and exit")
	flag.Parse()

	utils.LoadConfig()

	logger, err := utils.NewLogger(utils.GetConfig("LOG_LEVEL"), utils.GetConfig("LOG_FORMAT"))
	if err != nil {
		log.Fatalf("error creating logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if dsn := utils.GetConfig("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: utils.GetConfig("APP_ENV"),
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := config.ConnectDB()
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	if *migrate != "" {
		if err := migration.Migrate(db, *migrate, logger); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := config.ConnectRedis(ctx)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	s3, err := storage.NewAwsS3(ctx, logger.Named("s3"))
	if err != nil {
		logger.Fatal("s3 client failed", zap.Error(err))
	}

	mailer, err := mailing.NewMailer(mailing.LoadMailConfig())
	if err != nil {
		logger.Fatal("mailer setup failed", zap.Error(err))
	}

	searchClient := search.NewMeiliClient(utils.GetConfig("MEILI_URL"), utils.GetConfig("MEILI_MASTER_KEY"))
	if err := searchClient.ConfigureIndexes(ctx); err != nil {
		logger.Warn("search index settings not applied", zap.Error(err))
	}

	indexer := search.NewIndexer(
		ingredient.NewIngredientRepository(db),
		searchClient,
		utils.GetConfig("MEILI_INDEX_SCHEDULE"),
		logger.Named("indexer"),
	)
	if err := indexer.Start(); err != nil {
		logger.Fatal("indexer schedule invalid", zap.Error(err))
	}

	var providers []oauth.Provider
	if clientID := utils.GetConfig("GOOGLE_CLIENT_ID"); clientID != "" {
		providers = append(providers, oauth.NewGoogleProvider(
			clientID,
			utils.GetConfig("GOOGLE_CLIENT_SECRET"),
			utils.GetConfig("GOOGLE_REDIRECT_URL"),
		))
	}

	app, err := config.NewApp(config.Dependencies{
		DB:             db,
		SessionStore:   session.NewRedisStore(rdb),
		Search:         searchClient,
		S3:             s3,
		Mailer:         mailer,
		OAuthProviders: providers,
		HealthChecks: map[string]handlers.HealthCheck{
			"database": config.PingDB(db),
			"redis":    config.PingRedis(rdb),
			"search":   config.PingSearch(searchClient),
		},
		Logger: logger,
	}, config.OptionsFromConfig())
	if err != nil {
		logger.Fatal("app setup failed", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		indexer.Stop(shutdownCtx)
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + utils.GetConfig("APP_PORT")
	logger.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
