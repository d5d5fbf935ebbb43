package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURLRoundTrip(t *testing.T) {
	url := PublicURL("feed-assets", "projects/2024-01-01T00-00-00.000Z-cat.png")
	assert.Equal(t, "https://storage.googleapis.com/feed-assets/projects/2024-01-01T00-00-00.000Z-cat.png", url)

	path, ok := ObjectPathFromURL("feed-assets", url)
	assert.True(t, ok)
	assert.Equal(t, "projects/2024-01-01T00-00-00.000Z-cat.png", path)

	_, ok = ObjectPathFromURL("other-bucket", url)
	assert.False(t, ok)
	_, ok = ObjectPathFromURL("feed-assets", "https://storage.googleapis.com/feed-assets/")
	assert.False(t, ok)
}
