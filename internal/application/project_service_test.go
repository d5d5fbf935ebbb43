package application

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/realtime"
)

const (
	userA = "11111111-1111-4111-8111-111111111111"
	userB = "22222222-2222-4222-8222-222222222222"
)

type fixture struct {
	svc      *ProjectService
	projects *fakeProjects
	users    *fakeUsers
	assets   *fakeAssets
	hub      *fakeHub
}

func newFixture() *fixture {
	f := &fixture{
		projects: newFakeProjects(),
		users: newFakeUsers(
			&entity.User{ID: userA, Name: "Ada", ProjectIDs: []string{}},
			&entity.User{ID: userB, Name: "Bob", ProjectIDs: []string{}},
		),
		assets: newFakeAssets(),
		hub:    &fakeHub{},
	}
	f.svc = NewProjectService(f.projects, f.users, f.assets, f.hub, nil)
	return f
}

func pngUpload(name string) *entity.Upload {
	return &entity.Upload{Filename: name, MimeType: "image/png", Size: 4, Body: strings.NewReader("data")}
}

func (f *fixture) create(t *testing.T, owner string) *entity.Project {
	t.Helper()
	p, err := f.svc.Create(context.Background(), owner,
		ProjectInput{Name: "Alpha", Content: "Hello world"}, pngUpload("a.png"))
	require.NoError(t, err)
	return p
}

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and broadcasts once", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		assert.NotEmpty(t, p.ID)
		assert.Equal(t, userA, p.CreatorID)
		require.NotNil(t, p.Creator)
		assert.Equal(t, "Ada", p.Creator.Name)
		assert.True(t, f.assets.exists(p.ImageRef))

		got, err := f.svc.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alpha", got.Name)
		assert.Equal(t, "Hello world", got.Content)

		u, _ := f.users.GetByID(ctx, userA)
		assert.Equal(t, []string{p.ID}, u.ProjectIDs)

		events := f.hub.all()
		require.Len(t, events, 1)
		assert.Equal(t, realtime.ActionCreate, events[0].action)
		assert.Equal(t, p, events[0].payload)
	})

	t.Run("short name is a validation error with no side effects", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, userA, ProjectInput{Name: "A", Content: "Hello world"}, pngUpload("a.png"))

		var verr *apperror.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Contains(t, verr.Fields, "projectname")
		assert.Empty(t, f.hub.all())
		assert.Empty(t, f.assets.files)
	})

	t.Run("whitespace padding does not count", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, userA, ProjectInput{Name: "  ab   ", Content: "Hello world"}, pngUpload("a.png"))
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("missing upload is ErrMissingAsset", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, userA, ProjectInput{Name: "Alpha", Content: "Hello world"}, nil)
		assert.ErrorIs(t, err, apperror.ErrMissingAsset)
		assert.Empty(t, f.hub.all())
	})

	t.Run("disallowed mime type is ErrMissingAsset", func(t *testing.T) {
		f := newFixture()
		up := &entity.Upload{Filename: "a.gif", MimeType: "image/gif", Body: strings.NewReader("x")}
		_, err := f.svc.Create(ctx, userA, ProjectInput{Name: "Alpha", Content: "Hello world"}, up)
		assert.ErrorIs(t, err, apperror.ErrMissingAsset)
		assert.Empty(t, f.assets.files)
	})

	t.Run("unknown creator releases the accepted file", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, "33333333-3333-4333-8333-333333333333",
			ProjectInput{Name: "Alpha", Content: "Hello world"}, pngUpload("a.png"))
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
		assert.Empty(t, f.assets.files)
		assert.Len(t, f.assets.released, 1)
		assert.Empty(t, f.hub.all())
	})
}

func TestProjectService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 0; i < 7; i++ {
		f.create(t, userA)
	}

	first, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, first.TotalItems)
	assert.Len(t, first.Projects, PageSize)
	assert.True(t, first.Projects[0].CreatedAt.After(first.Projects[1].CreatedAt))

	second, err := f.svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, second.Projects, 2)

	for _, page := range []int{0, -3} {
		got, err := f.svc.List(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, first.Projects, got.Projects)
	}

	empty, err := f.svc.List(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, empty.Projects)
	assert.Equal(t, 7, empty.TotalItems)
}

func TestProjectService_Get(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProjectService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("new upload replaces and releases the old image", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)
		oldRef := p.ImageRef

		got, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "Alpha two", Content: "New content"},
		}, pngUpload("b.png"))
		require.NoError(t, err)

		assert.NotEqual(t, oldRef, got.ImageRef)
		assert.False(t, f.assets.exists(oldRef))
		assert.True(t, f.assets.exists(got.ImageRef))
		assert.Equal(t, 1, f.assets.releaseCount(oldRef))
		require.NotNil(t, got.Creator)
		assert.Equal(t, "Ada", got.Creator.Name)

		events := f.hub.all()
		require.Len(t, events, 2)
		assert.Equal(t, realtime.ActionUpdate, events[1].action)
	})

	t.Run("echoed current ref keeps the image", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		got, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "Alpha two", Content: "New content"},
			ImageRef:     p.ImageRef,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, p.ImageRef, got.ImageRef)
		assert.True(t, f.assets.exists(p.ImageRef))
		assert.Empty(t, f.assets.released)
	})

	t.Run("soft-rejected upload falls back to the echoed ref", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)
		gif := &entity.Upload{Filename: "b.gif", MimeType: "image/gif", Body: strings.NewReader("x")}

		got, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "Alpha two", Content: "New content"},
			ImageRef:     p.ImageRef,
		}, gif)
		require.NoError(t, err)
		assert.Equal(t, p.ImageRef, got.ImageRef)
	})

	t.Run("no upload and no ref is ErrMissingAsset", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		_, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "Alpha two", Content: "New content"},
		}, nil)
		assert.ErrorIs(t, err, apperror.ErrMissingAsset)
		assert.Len(t, f.hub.all(), 1)
	})

	t.Run("foreign ref is ErrMissingAsset", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		_, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "Alpha two", Content: "New content"},
			ImageRef:     "https://elsewhere.example/x.png",
		}, nil)
		assert.ErrorIs(t, err, apperror.ErrMissingAsset)
		assert.True(t, f.assets.exists(p.ImageRef))
	})

	t.Run("short name has no side effects", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		_, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "A", Content: "New content"},
		}, pngUpload("b.png"))
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Len(t, f.hub.all(), 1)
		assert.Empty(t, f.assets.released)
		assert.Len(t, f.assets.files, 1)
	})

	t.Run("non-owner is ErrNotAuthorized and nothing changes", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		_, err := f.svc.Update(ctx, userB, p.ID, UpdateInput{
			ProjectInput: ProjectInput{Name: "Hijacked", Content: "New content"},
		}, pngUpload("b.png"))
		assert.ErrorIs(t, err, apperror.ErrNotAuthorized)

		got, _ := f.svc.Get(ctx, p.ID)
		assert.Equal(t, "Alpha", got.Name)
		assert.True(t, f.assets.exists(p.ImageRef))
		assert.Len(t, f.assets.files, 1)
		assert.Len(t, f.hub.all(), 1)
	})

	t.Run("unknown project is ErrNotFound", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Update(ctx, userA, "missing", UpdateInput{
			ProjectInput: ProjectInput{Name: "Alpha two", Content: "New content"},
			ImageRef:     "/images/x.png",
		}, nil)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestProjectService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes, releases once and broadcasts the id", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		require.NoError(t, f.svc.Delete(ctx, userA, p.ID))

		_, err := f.svc.Get(ctx, p.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Equal(t, 1, f.assets.releaseCount(p.ImageRef))
		assert.False(t, f.assets.exists(p.ImageRef))

		u, _ := f.users.GetByID(ctx, userA)
		assert.Empty(t, u.ProjectIDs)

		events := f.hub.all()
		require.Len(t, events, 2)
		assert.Equal(t, realtime.ActionDelete, events[1].action)
		assert.Equal(t, p.ID, events[1].payload)
	})

	t.Run("second delete is ErrNotFound", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		require.NoError(t, f.svc.Delete(ctx, userA, p.ID))
		assert.ErrorIs(t, f.svc.Delete(ctx, userA, p.ID), apperror.ErrNotFound)
		assert.Equal(t, 1, f.assets.releaseCount(p.ImageRef))
		assert.Len(t, f.hub.all(), 2)
	})

	t.Run("non-owner keeps project and file", func(t *testing.T) {
		f := newFixture()
		p := f.create(t, userA)

		assert.ErrorIs(t, f.svc.Delete(ctx, userB, p.ID), apperror.ErrNotAuthorized)

		_, err := f.svc.Get(ctx, p.ID)
		assert.NoError(t, err)
		assert.True(t, f.assets.exists(p.ImageRef))
		assert.Empty(t, f.assets.released)
	})
}

func TestProjectService_UpdateRejectsAnotherProjectsImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pa := f.create(t, userA)
	pb := f.create(t, userB)

	_, err := f.svc.Update(ctx, userB, pb.ID, UpdateInput{
		ProjectInput: ProjectInput{Name: "Borrowed", Content: "Hello world"},
		ImageRef:     pa.ImageRef,
	}, nil)
	require.ErrorIs(t, err, apperror.ErrMissingAsset)

	stored, err := f.projects.GetByID(ctx, pb.ID)
	require.NoError(t, err)
	assert.Equal(t, pb.ImageRef, stored.ImageRef)
	assert.Empty(t, f.assets.released)
	assert.Len(t, f.hub.all(), 2)

	require.NoError(t, f.svc.Delete(ctx, userB, pb.ID))
	assert.True(t, f.assets.exists(pa.ImageRef))
	assert.Zero(t, f.assets.releaseCount(pa.ImageRef))
}

func TestProjectService_TrimsStoredFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p, err := f.svc.Create(ctx, userA, ProjectInput{Name: "   Alpha   ", Content: "\tHello world \n"}, pngUpload("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "Hello world", p.Content)

	stored, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", stored.Name)
	assert.Equal(t, "Hello world", stored.Content)

	got, err := f.svc.Update(ctx, userA, p.ID, UpdateInput{
		ProjectInput: ProjectInput{Name: "  Alpha two ", Content: "  New content  "},
		ImageRef:     p.ImageRef,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alpha two", got.Name)
	assert.Equal(t, "New content", got.Content)

	events := f.hub.all()
	require.Len(t, events, 2)
	broadcast := events[1].payload.(*entity.Project)
	assert.Equal(t, "Alpha two", broadcast.Name)
}

func TestProjectService_ListHugePage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 0; i < 3; i++ {
		f.create(t, userA)
	}

	got, err := f.svc.List(ctx, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, got.Projects)
	assert.Equal(t, 3, got.TotalItems)
}
