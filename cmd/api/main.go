package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/mohammadpnp/account-admin/internal/application/account"
	"github.com/mohammadpnp/account-admin/internal/bootstrap"
	"github.com/mohammadpnp/account-admin/internal/config"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"github.com/mohammadpnp/account-admin/internal/infrastructure/db"
	infrafile "github.com/mohammadpnp/account-admin/internal/infrastructure/file"
	"github.com/mohammadpnp/account-admin/internal/infrastructure/lock"
	"github.com/mohammadpnp/account-admin/internal/infrastructure/metrics"
	"github.com/mohammadpnp/account-admin/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/account-admin/internal/interfaces/http/echo"
	applog "github.com/mohammadpnp/account-admin/internal/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type accountStore interface {
	domain.RemoteWriteSink
	domain.AccountRepository
}

type postgresStore struct {
	*repository.AccountWriter
	*repository.AccountRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := applog.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to open account store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	uploadLock, closeLock, err := openLock(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to open upload lock", zap.Error(err))
	}
	defer closeLock()

	recorder := metrics.NewRecorder()
	uploader := app.NewUploader(app.UploaderConfig{
		NewPacer:     func() app.Pacer { return newPacer(cfg) },
		WriteTimeout: cfg.UploadWriteTimeout,
		Recorder:     recorder,
		Logger:       logger,
	})
	tracker := app.NewUploadTracker(cfg.UploadRetention)
	source := infrafile.NewLocalSource(cfg.ImportBaseDir)

	uploadCtx, stopUploads := context.WithCancel(context.Background())
	defer stopUploads()

	importer := app.NewAccountImporter(uploadCtx, source, store, uploader, tracker, uploadLock, recorder, logger, app.AccountImporterConfig{
		LockTTL:          cfg.UploadLockTTL,
		MaxDocumentBytes: cfg.ImportMaxBytes,
	})

	importHandler := httpecho.NewImportHandler(
		app.NewPreviewAccountImport(source, cfg.ImportMaxBytes),
		importer,
		app.NewGetUploadStatus(tracker),
		cfg.ImportMaxBytes,
	)
	accountHandler := httpecho.NewAccountHandler(
		app.NewListAccounts(store),
		app.NewDeleteAccount(store),
		app.NewDeleteAllAccounts(store),
	)
	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is not set; delete endpoints will reject every request")
	}

	server := bootstrap.NewHTTPServer(importHandler, accountHandler, logger, bootstrap.ServerConfig{
		BodyLimit:  cfg.RequestBodyLimit,
		AdminToken: cfg.AdminToken,
	})

	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store))
		if err := server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	stopUploads()
	importer.Wait()
	logger.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (accountStore, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
				return nil, nil, err
			}
			logger.Info("database migrations applied")
		}

		gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create pgx pool: %w", err)
		}

		closeFn := func() {
			pool.Close()
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return postgresStore{
			AccountWriter:     repository.NewAccountWriter(pool),
			AccountRepository: repository.NewAccountRepository(gdb),
		}, closeFn, nil

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}

		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		collection := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		return repository.NewMongoAccountStore(collection), closeFn, nil

	case config.StoreDynamoDB:
		awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
			}
		})
		return repository.NewDynamoAccountStore(client, cfg.DynamoTable), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown account store %q", cfg.Store)
}

func openLock(ctx context.Context, cfg config.Config) (app.UploadLock, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewMemoryLock(), func() {}, nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLock(client), func() { _ = client.Close() }, nil
}

func newPacer(cfg config.Config) app.Pacer {
	if cfg.Pacing == config.PacingTokenBucket {
		return app.NewTokenBucketPacer(cfg.UploadRatePerSec, cfg.UploadBurst)
	}
	return app.NewFixedIntervalPacer(cfg.UploadDelay)
}
