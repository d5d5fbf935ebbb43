package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/config"
	"github.com/oksasatya/project-feed/internal/realtime"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

// Container holds the infrastructure built in main so the router can wire
// modules from it. Optional clients are nil when their feature is disabled.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	PG     *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	JWT    *helpers.JWTManager
	Hub    *realtime.Hub
	ES     *elasticsearch.Client
}
