package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/realtime"
)

type fakeProjects struct {
	mu    sync.Mutex
	items map[string]entity.Project
	clock time.Time
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{items: map[string]entity.Project{}, clock: time.Unix(1700000000, 0)}
}

func (f *fakeProjects) Create(_ context.Context, p *entity.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	p.ID = uuid.NewString()
	p.CreatedAt = f.clock
	p.UpdatedAt = f.clock
	cp := *p
	cp.Creator = nil
	f.items[p.ID] = cp
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*entity.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) Update(_ context.Context, p *entity.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return apperror.ErrNotFound
	}
	f.clock = f.clock.Add(time.Second)
	p.UpdatedAt = f.clock
	cp := *p
	cp.Creator = nil
	f.items[p.ID] = cp
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProjects) ListPage(_ context.Context, offset, limit int) ([]entity.Project, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]entity.Project, 0, len(f.items))
	for _, p := range f.items {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []entity.Project{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*entity.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.ProjectIDs = []string{}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeUsers) AppendProject(_ context.Context, userID, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperror.ErrNotFound
	}
	u.ProjectIDs = append(u.ProjectIDs, projectID)
	return nil
}

func (f *fakeUsers) RemoveProject(_ context.Context, userID, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperror.ErrNotFound
	}
	out := u.ProjectIDs[:0]
	for _, id := range u.ProjectIDs {
		if id != projectID {
			out = append(out, id)
		}
	}
	u.ProjectIDs = out
	return nil
}

// fakeAssets keeps files in memory under "/images/<n>-<filename>".
type fakeAssets struct {
	mu       sync.Mutex
	files    map[string]bool
	released []string
	seq      int
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{files: map[string]bool{}}
}

func (f *fakeAssets) Allowed(mime string) bool {
	switch strings.ToLower(mime) {
	case "image/png", "image/jpg", "image/jpeg":
		return true
	}
	return false
}

func (f *fakeAssets) Accept(_ context.Context, up entity.Upload) (string, bool, error) {
	if !f.Allowed(up.MimeType) {
		return "", false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ref := fmt.Sprintf("/images/%d-%s", f.seq, up.Filename)
	f.files[ref] = true
	return ref, true, nil
}

func (f *fakeAssets) Release(_ context.Context, ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, ref)
	delete(f.files, ref)
}

func (f *fakeAssets) exists(ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[ref]
}

func (f *fakeAssets) releaseCount(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.released {
		if r == ref {
			n++
		}
	}
	return n
}

type published struct {
	action  realtime.Action
	payload any
}

type fakeHub struct {
	mu     sync.Mutex
	events []published
}

func (f *fakeHub) Publish(action realtime.Action, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{action: action, payload: payload})
}

func (f *fakeHub) all() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.events...)
}
