package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/project-feed/config"
	"github.com/oksasatya/project-feed/internal/container"
	"github.com/oksasatya/project-feed/internal/infrastructure/events"
	pginfra "github.com/oksasatya/project-feed/internal/infrastructure/postgres"
	"github.com/oksasatya/project-feed/internal/infrastructure/search"
	"github.com/oksasatya/project-feed/internal/interface/middleware"
	"github.com/oksasatya/project-feed/internal/realtime"
	"github.com/oksasatya/project-feed/internal/router"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	ctx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis (sessions and rate limiting)
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	var gcsClient *storage.Client
	if cfg.AssetBackend == "gcs" {
		gcsClient, err = helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
	}

	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	hub := realtime.NewHub(cfg.HubBuffer, cfg.SubscriberBuffer, logger)
	go hub.Run(ctx)

	var es *elasticsearch.Client
	if cfg.SearchEnabled {
		es, err = helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch: %v", err)
		}
	}

	// Out-of-process event delivery: the queue when enabled, otherwise index inline.
	switch {
	case cfg.EventsAMQPEnabled:
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
		if err != nil {
			log.Fatalf("failed to init rabbitmq publisher: %v", err)
		}
		defer pub.Close()
		if err := events.Attach(ctx, hub, &events.AMQPSink{Publisher: pub}, "amqp", logger); err != nil {
			log.Fatalf("attach amqp sink: %v", err)
		}
	case es != nil:
		idx := search.NewProjectIndex(es, cfg.ESProjectsIndex)
		if err := events.Attach(ctx, hub, &events.IndexSink{Index: idx}, "search", logger); err != nil {
			log.Fatalf("attach search sink: %v", err)
		}
	}

	c := &container.Container{
		Config: cfg,
		Logger: logger,
		PG:     pool,
		Redis:  rdb,
		GCS:    gcsClient,
		JWT:    jwtManager,
		Hub:    hub,
		ES:     es,
	}

	// Gin engine and global middleware
	r := gin.New()
	r.MaxMultipartMemory = cfg.UploadMaxBytes
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	if cfg.AssetBackend == "" || cfg.AssetBackend == "local" {
		r.Static(cfg.ImagesURLPath, cfg.ImagesDir)
	}

	reg := router.NewRegistry(r, "/")
	if err := router.InitModules(reg, c); err != nil {
		log.Fatalf("failed to init modules: %v", err)
	}
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Stopping the hub closes open event streams so Shutdown does not wait on them.
	cancelApp()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
