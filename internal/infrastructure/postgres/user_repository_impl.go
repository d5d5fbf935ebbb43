package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/domain/repository"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `
		SELECT id::text, email, password_hash, name, project_ids::text[], created_at, updated_at
		FROM users
`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at, updated_at
	`, u.Email, u.Password, u.Name)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ProjectIDs = []string{}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, apperror.ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, selectUser+`		WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, selectUser+`		WHERE email = $1`, email))
}

func (r *UserRepository) scanOne(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.ProjectIDs,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) AppendProject(ctx context.Context, userID, projectID string) error {
	return r.execOne(ctx, "append project", `
		UPDATE users
		SET project_ids = array_append(project_ids, $2::uuid), updated_at = now()
		WHERE id = $1
	`, userID, projectID)
}

func (r *UserRepository) RemoveProject(ctx context.Context, userID, projectID string) error {
	return r.execOne(ctx, "remove project", `
		UPDATE users
		SET project_ids = array_remove(project_ids, $2::uuid), updated_at = now()
		WHERE id = $1
	`, userID, projectID)
}

func (r *UserRepository) execOne(ctx context.Context, op, sql string, userID, projectID string) error {
	if !validID(userID) || !validID(projectID) {
		return apperror.ErrNotFound
	}
	res, err := r.db.Exec(ctx, sql, userID, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
