package repository

import (
	"context"

	"github.com/oksasatya/project-feed/internal/domain/entity"
)

// ProjectRepository stores projects. Missing rows are reported as
// apperror.ErrNotFound.
type ProjectRepository interface {
	Create(ctx context.Context, p *entity.Project) error
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	Update(ctx context.Context, p *entity.Project) error
	Delete(ctx context.Context, id string) error
	// ListPage returns one page ordered by created_at descending, with
	// creators populated, plus the total number of projects.
	ListPage(ctx context.Context, offset, limit int) ([]entity.Project, int, error)
}
