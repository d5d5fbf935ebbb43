package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/domain/repository"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

// GCSStore keeps images as public objects under Prefix in Bucket. Refs are
// the objects' public URLs.
type GCSStore struct {
	Client *gcs.Client
	Bucket string
	Prefix string
	Logger *logrus.Logger

	now func() time.Time
}

func NewGCSStore(client *gcs.Client, bucket string, logger *logrus.Logger) *GCSStore {
	return &GCSStore{Client: client, Bucket: bucket, Prefix: "projects", Logger: logger, now: time.Now}
}

func (s *GCSStore) Allowed(mimeType string) bool { return allowedImage(mimeType) }

func (s *GCSStore) Accept(ctx context.Context, up entity.Upload) (string, bool, error) {
	if !s.Allowed(up.MimeType) || up.Body == nil {
		return "", false, nil
	}
	if s.Client == nil || s.Bucket == "" {
		return "", false, errors.New("gcs not configured")
	}
	objectPath := s.Prefix + "/" + uniqueName(s.now(), up.Filename)
	url, err := helpers.UploadObject(ctx, s.Client, s.Bucket, objectPath, up.MimeType, up.Body)
	if err != nil {
		return "", false, fmt.Errorf("upload asset: %w", err)
	}
	return url, true, nil
}

func (s *GCSStore) Release(ctx context.Context, ref string) {
	objectPath, ok := s.objectPath(ref)
	if !ok {
		if s.Logger != nil {
			s.Logger.WithField("ref", ref).Warn("release skipped: ref outside bucket prefix")
		}
		return
	}
	if s.Client == nil {
		return
	}
	if err := helpers.DeleteObject(ctx, s.Client, s.Bucket, objectPath); err != nil && s.Logger != nil {
		helpers.LogError(s.Logger, "release asset failed", err, logrus.Fields{"ref": ref, "bucket": s.Bucket})
	}
}

func (s *GCSStore) objectPath(ref string) (string, bool) {
	p, ok := helpers.ObjectPathFromURL(s.Bucket, ref)
	if !ok || !strings.HasPrefix(p, s.Prefix+"/") || len(p) == len(s.Prefix)+1 {
		return "", false
	}
	return p, true
}

var _ repository.AssetStore = (*GCSStore)(nil)
