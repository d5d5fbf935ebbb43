package router

import (
	"fmt"

	"github.com/oksasatya/project-feed/internal/application"
	"github.com/oksasatya/project-feed/internal/container"
	repo "github.com/oksasatya/project-feed/internal/domain/repository"
	pginfra "github.com/oksasatya/project-feed/internal/infrastructure/postgres"
	"github.com/oksasatya/project-feed/internal/infrastructure/search"
	"github.com/oksasatya/project-feed/internal/infrastructure/storage"
	handlers "github.com/oksasatya/project-feed/internal/interface/http"
	"github.com/oksasatya/project-feed/internal/router/modules"
)

type ProjectModuleDeps struct {
	Handler *handlers.ProjectHandler
	Search  *handlers.SearchHandler
}

type AuthModuleDeps struct {
	Handler *handlers.AuthHandler
}

// NewAssetStore selects the asset backend named by ASSET_BACKEND.
func NewAssetStore(c *container.Container) (repo.AssetStore, error) {
	cfg := c.Config
	switch cfg.AssetBackend {
	case "", "local":
		return storage.NewLocalStore(cfg.ImagesDir, cfg.ImagesURLPath, c.Logger), nil
	case "gcs":
		if c.GCS == nil || cfg.GCSBucket == "" {
			return nil, fmt.Errorf("asset backend gcs needs a client and GCS_BUCKET")
		}
		return storage.NewGCSStore(c.GCS, cfg.GCSBucket, c.Logger), nil
	}
	return nil, fmt.Errorf("unknown asset backend %q", cfg.AssetBackend)
}

func buildProjectDeps(c *container.Container, users repo.UserRepository) (ProjectModuleDeps, error) {
	assets, err := NewAssetStore(c)
	if err != nil {
		return ProjectModuleDeps{}, err
	}
	projects := pginfra.NewProjectRepository(c.PG)

	service := application.NewProjectService(projects, users, assets, c.Hub, c.Logger)
	handler := handlers.NewProjectHandler(service, c.Logger, c.Config.UploadMaxBytes)

	var searchHandler *handlers.SearchHandler
	if c.ES != nil {
		searchHandler = handlers.NewSearchHandler(search.NewProjectIndex(c.ES, c.Config.ESProjectsIndex), c.Logger)
	}

	return ProjectModuleDeps{
		Handler: handler,
		Search:  searchHandler,
	}, nil
}

func buildAuthDeps(c *container.Container, users repo.UserRepository) AuthModuleDeps {
	service := application.NewAuthService(users, c.JWT, c.Redis, c.Logger)
	handler := handlers.NewAuthHandler(service, c.Logger, c.Config.CookieDomain, c.Config.CookieSecure)
	return AuthModuleDeps{Handler: handler}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, c *container.Container) error {
	users := pginfra.NewUserRepository(c.PG)

	projectDeps, err := buildProjectDeps(c, users)
	if err != nil {
		return err
	}
	authDeps := buildAuthDeps(c, users)
	cfg := c.Config

	r.Add(modules.NewAuthModule(authDeps.Handler, c.Redis, cfg.RateLimitAuth))
	r.Add(modules.NewProjectModule(projectDeps.Handler, projectDeps.Search, c.JWT, c.Redis, cfg.RateLimitProtected))
	r.Add(modules.NewEventsModule(handlers.NewEventsHandler(c.Hub, c.Logger), c.Redis, cfg.RateLimitEvents))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
	return nil
}
