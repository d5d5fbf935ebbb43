package repository

import (
	"context"

	"github.com/oksasatya/project-feed/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// AppendProject and RemoveProject maintain the ProjectIDs back-reference.
	AppendProject(ctx context.Context, userID, projectID string) error
	RemoveProject(ctx context.Context, userID, projectID string) error
}
