package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/project-feed/internal/domain/entity"
)

func newLocal(t *testing.T) (*LocalStore, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	s := NewLocalStore(filepath.Join(t.TempDir(), "images"), "/images/", logger)
	return s, hook
}

func jpeg(name string, body string) entity.Upload {
	return entity.Upload{Filename: name, MimeType: "image/jpeg", Body: strings.NewReader(body)}
}

func TestLocalStore_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the bytes unchanged under a unique name", func(t *testing.T) {
		s, _ := newLocal(t)
		s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

		ref, ok, err := s.Accept(ctx, jpeg("cat.jpg", "jpeg-bytes"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "/images/2024-05-01T10-00-00.000000000Z-cat.jpg", ref)

		b, err := os.ReadFile(filepath.Join(s.Dir, "2024-05-01T10-00-00.000000000Z-cat.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(b))
		_, ok = s.nameOf(ref)
		assert.True(t, ok)
	})

	t.Run("two uploads of the same file get different names", func(t *testing.T) {
		s, _ := newLocal(t)
		tick := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		s.now = func() time.Time { tick = tick.Add(time.Millisecond); return tick }

		a, _, err := s.Accept(ctx, jpeg("cat.jpg", "a"))
		require.NoError(t, err)
		b, _, err := s.Accept(ctx, jpeg("cat.jpg", "b"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("a name collision fails rather than overwriting", func(t *testing.T) {
		s, _ := newLocal(t)
		s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

		_, _, err := s.Accept(ctx, jpeg("cat.jpg", "first"))
		require.NoError(t, err)
		_, ok, err := s.Accept(ctx, jpeg("cat.jpg", "second"))
		assert.Error(t, err)
		assert.False(t, ok)

		b, _ := os.ReadFile(filepath.Join(s.Dir, "2024-05-01T10-00-00.000000000Z-cat.jpg"))
		assert.Equal(t, "first", string(b))
	})

	t.Run("png and jpg are allowed, other types are soft rejected", func(t *testing.T) {
		s, _ := newLocal(t)
		for _, mt := range []string{"image/png", "image/jpg", "image/jpeg", "IMAGE/PNG"} {
			assert.True(t, s.Allowed(mt), mt)
		}

		ref, ok, err := s.Accept(ctx, entity.Upload{Filename: "x.gif", MimeType: "image/gif", Body: bytes.NewReader([]byte("gif"))})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, ref)

		_, statErr := os.Stat(s.Dir)
		assert.True(t, errors.Is(statErr, os.ErrNotExist), "nothing should be written for a rejected upload")
	})

	t.Run("directory parts of the original name are dropped", func(t *testing.T) {
		s, _ := newLocal(t)
		ref, ok, err := s.Accept(ctx, jpeg("../../etc/passwd", "x"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, strings.HasSuffix(ref, "-passwd"))
		_, ok = s.nameOf(ref)
		assert.True(t, ok)
	})
}

func TestLocalStore_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the file", func(t *testing.T) {
		s, _ := newLocal(t)
		ref, _, err := s.Accept(ctx, jpeg("cat.jpg", "x"))
		require.NoError(t, err)

		s.Release(ctx, ref)

		name := strings.TrimPrefix(ref, "/images/")
		_, statErr := os.Stat(filepath.Join(s.Dir, name))
		assert.True(t, errors.Is(statErr, os.ErrNotExist))
	})

	t.Run("a missing file is logged, not returned", func(t *testing.T) {
		s, hook := newLocal(t)
		s.Release(ctx, "/images/never-existed.png")

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})

	t.Run("refs outside the images dir are never touched", func(t *testing.T) {
		s, hook := newLocal(t)
		outside := filepath.Join(filepath.Dir(s.Dir), "keep.txt")
		require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

		for _, ref := range []string{"/images/../keep.txt", "/other/keep.txt", "/images/", "keep.txt"} {
			_, ok := s.nameOf(ref)
			assert.False(t, ok, ref)
			s.Release(ctx, ref)
		}

		_, err := os.Stat(outside)
		assert.NoError(t, err)
		assert.NotEmpty(t, hook.AllEntries())
	})
}

func TestUniqueName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 6, time.FixedZone("x", 3600))
	assert.Equal(t, "2024-01-02T02-04-05.000000006Z-my-cat.png", uniqueName(now, "my cat.png"))
	assert.Equal(t, "2024-01-02T02-04-05.000000006Z-upload", uniqueName(now, ""))
	assert.Equal(t, "2024-01-02T02-04-05.000000006Z-b.png", uniqueName(now, `C:\a\b.png`))
}
