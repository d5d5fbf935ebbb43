package repository

import (
	"context"

	"github.com/oksasatya/project-feed/internal/domain/entity"
)

// AssetStore manages project image files.
type AssetStore interface {
	// Allowed reports whether the MIME type is on the image allow-list.
	Allowed(mimeType string) bool
	// Accept persists an upload under a unique name. Uploads with a MIME type
	// outside the allow-list are not an error: accepted is false and nothing
	// is written.
	Accept(ctx context.Context, up entity.Upload) (ref string, accepted bool, err error)
	// Release removes the asset. Failures are logged, never returned.
	Release(ctx context.Context, ref string)
}
