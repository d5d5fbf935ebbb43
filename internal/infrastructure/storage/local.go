package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/domain/repository"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

// LocalStore keeps images in a directory served statically under URLPath.
// Refs have the form "<URLPath>/<name>".
type LocalStore struct {
	Dir     string
	URLPath string
	Logger  *logrus.Logger

	now func() time.Time
}

func NewLocalStore(dir, urlPath string, logger *logrus.Logger) *LocalStore {
	return &LocalStore{
		Dir:     dir,
		URLPath: "/" + strings.Trim(urlPath, "/"),
		Logger:  logger,
		now:     time.Now,
	}
}

func (s *LocalStore) Allowed(mimeType string) bool { return allowedImage(mimeType) }

func (s *LocalStore) Accept(ctx context.Context, up entity.Upload) (string, bool, error) {
	if !s.Allowed(up.MimeType) || up.Body == nil {
		return "", false, nil
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create images dir: %w", err)
	}
	name := uniqueName(s.now(), up.Filename)
	path := filepath.Join(s.Dir, name)

	// O_EXCL so a name collision fails instead of overwriting another asset
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", false, fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(f, up.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", false, fmt.Errorf("write asset: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", false, fmt.Errorf("close asset: %w", err)
	}
	return s.URLPath + "/" + name, true, nil
}

func (s *LocalStore) Release(_ context.Context, ref string) {
	name, ok := s.nameOf(ref)
	if !ok {
		s.warn("release skipped: ref outside images dir", ref)
		return
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.warn("release skipped: asset already gone", ref)
			return
		}
		if s.Logger != nil {
			helpers.LogError(s.Logger, "release asset failed", err, logrus.Fields{"ref": ref})
		}
	}
}

// nameOf extracts the file name of a ref, refusing anything that would
// resolve outside Dir.
func (s *LocalStore) nameOf(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, s.URLPath+"/")
	if !ok || name == "" || name == "." || name == ".." {
		return "", false
	}
	if strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

func (s *LocalStore) warn(msg, ref string) {
	if s.Logger != nil {
		s.Logger.WithField("ref", ref).Warn(msg)
	}
}

var _ repository.AssetStore = (*LocalStore)(nil)
