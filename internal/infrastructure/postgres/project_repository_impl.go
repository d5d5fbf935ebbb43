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

type ProjectRepository struct {
	db DB
}

func NewProjectRepository(db DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, content, image_ref, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at, updated_at
	`, p.Name, p.Content, p.ImageRef, p.CreatorID)

	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	if !validID(id) {
		return nil, apperror.ErrNotFound
	}
	p := &entity.Project{}

	row := r.db.QueryRow(ctx, `
		SELECT id::text, name, content, image_ref, creator_id::text, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id)

	if err := row.Scan(&p.ID, &p.Name, &p.Content, &p.ImageRef, &p.CreatorID,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return p, nil
}

// Update writes name, content and image ref. Concurrent updates are last
// write wins.
func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	if !validID(p.ID) {
		return apperror.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `
		UPDATE projects
		SET name = $1, content = $2, image_ref = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, p.Name, p.Content, p.ImageRef, p.ID)

	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.ErrNotFound
		}
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperror.ErrNotFound
	}
	res, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) ListPage(ctx context.Context, offset, limit int) ([]entity.Project, int, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT p.id::text, p.name, p.content, p.image_ref, p.creator_id::text,
		       p.created_at, p.updated_at, COALESCE(u.name, '')
		FROM projects p
		LEFT JOIN users u ON u.id = p.creator_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Project, 0, limit)
	for rows.Next() {
		var p entity.Project
		var creatorName string
		if err := rows.Scan(&p.ID, &p.Name, &p.Content, &p.ImageRef, &p.CreatorID,
			&p.CreatedAt, &p.UpdatedAt, &creatorName); err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		p.Creator = &entity.CreatorSummary{ID: p.CreatorID, Name: creatorName}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	return out, int(total), nil
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)
