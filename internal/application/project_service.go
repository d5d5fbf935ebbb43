package application

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	repo "github.com/oksasatya/project-feed/internal/domain/repository"
	"github.com/oksasatya/project-feed/internal/realtime"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

// PageSize is the fixed number of projects per list page.
const PageSize = 5

// maxPage keeps (page-1)*PageSize inside int range.
const maxPage = math.MaxInt / PageSize

// Broadcaster receives one event per successful mutation.
type Broadcaster interface {
	Publish(action realtime.Action, payload any)
}

type ProjectService struct {
	Projects repo.ProjectRepository
	Users    repo.UserRepository
	Assets   repo.AssetStore
	Hub      Broadcaster
	Logger   *logrus.Logger
}

func NewProjectService(projects repo.ProjectRepository, users repo.UserRepository, assets repo.AssetStore, hub Broadcaster, logger *logrus.Logger) *ProjectService {
	return &ProjectService{
		Projects: projects,
		Users:    users,
		Assets:   assets,
		Hub:      hub,
		Logger:   logger,
	}
}

// ProjectInput carries the text fields of a create or update request.
type ProjectInput struct {
	Name    string `form:"projectname" json:"projectname" validate:"trimmin=5"`
	Content string `form:"content" json:"content" validate:"trimmin=5"`
}

// UpdateInput adds the echoed image reference used when no new file is sent.
type UpdateInput struct {
	ProjectInput
	ImageRef string `form:"image" json:"image"`
}

// normalize trims surrounding whitespace; the trimmed values are what get
// validated, stored and broadcast.
func (in ProjectInput) normalize() ProjectInput {
	return ProjectInput{
		Name:    strings.TrimSpace(in.Name),
		Content: strings.TrimSpace(in.Content),
	}
}

type ProjectPage struct {
	Projects   []entity.Project
	TotalItems int
}

func (s *ProjectService) List(ctx context.Context, page int) (*ProjectPage, error) {
	if page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	items, total, err := s.Projects.ListPage(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, err
	}
	return &ProjectPage{Projects: items, TotalItems: total}, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.Projects.GetByID(ctx, id)
}

// Create stores a project owned by userID. A rejected or missing upload is
// ErrMissingAsset and nothing is persisted.
func (s *ProjectService) Create(ctx context.Context, userID string, in ProjectInput, up *entity.Upload) (*entity.Project, error) {
	in = in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if up == nil {
		return nil, apperror.ErrMissingAsset
	}
	ref, accepted, err := s.Assets.Accept(ctx, *up)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperror.ErrMissingAsset
	}

	creator, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		s.Assets.Release(ctx, ref)
		if errors.Is(err, apperror.ErrNotFound) {
			// token for a user that no longer exists
			return nil, apperror.ErrInvalidCredential
		}
		return nil, err
	}

	p := &entity.Project{
		Name:      in.Name,
		Content:   in.Content,
		ImageRef:  ref,
		CreatorID: creator.ID,
	}
	if err := s.Projects.Create(ctx, p); err != nil {
		s.Assets.Release(ctx, ref)
		helpers.LogError(s.Logger, "create project failed", err, logrus.Fields{"user_id": userID})
		return nil, err
	}
	p.Creator = creator.Summary()

	if err := s.Users.AppendProject(ctx, creator.ID, p.ID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    creator.ID,
			"project_id": p.ID,
		}).Warn("append project to creator failed")
	}

	s.publish(realtime.ActionCreate, p)
	return p, nil
}

// Update replaces name, content and image of a project owned by userID.
// When up is nil or soft-rejected, in.ImageRef must echo the project's current
// image; any other ref fails with ErrMissingAsset.
func (s *ProjectService) Update(ctx context.Context, userID, id string, in UpdateInput, up *entity.Upload) (*entity.Project, error) {
	in.ProjectInput = in.ProjectInput.normalize()
	if err := validateStruct(in.ProjectInput); err != nil {
		return nil, err
	}
	hasUpload := up != nil && s.Assets.Allowed(up.MimeType)
	if !hasUpload && in.ImageRef == "" {
		return nil, apperror.ErrMissingAsset
	}

	p, err := s.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != userID {
		return nil, apperror.ErrNotAuthorized
	}

	ref := in.ImageRef
	uploaded := false
	if hasUpload {
		newRef, accepted, err := s.Assets.Accept(ctx, *up)
		if err != nil {
			return nil, err
		}
		if accepted {
			ref, uploaded = newRef, true
		}
	}
	if !uploaded && ref != p.ImageRef {
		return nil, apperror.ErrMissingAsset
	}

	if ref != p.ImageRef {
		s.Assets.Release(ctx, p.ImageRef)
	}
	p.Name = in.Name
	p.Content = in.Content
	p.ImageRef = ref
	if err := s.Projects.Update(ctx, p); err != nil {
		helpers.LogError(s.Logger, "update project failed", err, logrus.Fields{"project_id": id})
		return nil, err
	}

	if creator, err := s.Users.GetByID(ctx, p.CreatorID); err == nil {
		p.Creator = creator.Summary()
	} else {
		p.Creator = &entity.CreatorSummary{ID: p.CreatorID}
	}

	s.publish(realtime.ActionUpdate, p)
	return p, nil
}

// Delete removes a project owned by userID and releases its image.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.Projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.CreatorID != userID {
		return apperror.ErrNotAuthorized
	}

	s.Assets.Release(ctx, p.ImageRef)
	if err := s.Projects.Delete(ctx, p.ID); err != nil {
		return err
	}

	if err := s.Users.RemoveProject(ctx, p.CreatorID, p.ID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    p.CreatorID,
			"project_id": p.ID,
		}).Warn("remove project from creator failed")
	}

	s.publish(realtime.ActionDelete, p.ID)
	return nil
}

func (s *ProjectService) publish(action realtime.Action, payload any) {
	if s.Hub != nil {
		s.Hub.Publish(action, payload)
	}
}
