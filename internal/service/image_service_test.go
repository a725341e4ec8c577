package service

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stoop/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes returns a payload DetectContentType identifies as image/png.
func pngBytes(size int) []byte {
	header := []byte("\x89PNG\r\n\x1a\n")
	return append(header, bytes.Repeat([]byte{0}, size)...)
}

func newTestImageService(t *testing.T) (*ImageService, string) {
	t.Helper()

	dir := t.TempDir()
	svc := NewImageService(&config.Config{UploadDir: dir, MaxUploadMB: 1})
	return svc, dir
}

func TestImageService_Store(t *testing.T) {
	svc, dir := newTestImageService(t)

	t.Run("success", func(t *testing.T) {
		url, err := svc.Store("photo.PNG", pngBytes(64))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/images/"))
		assert.True(t, strings.HasSuffix(url, ".png"))

		name := strings.TrimPrefix(url, "/images/")
		assert.Len(t, name, 32+len(".png"))
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, statErr)
	})

	t.Run("two uploads never collide", func(t *testing.T) {
		first, err := svc.Store("a.png", pngBytes(16))
		require.NoError(t, err)
		second, err := svc.Store("b.png", pngBytes(16))
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.Store("photo.png", nil)
		assertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("oversized content", func(t *testing.T) {
		_, err := svc.Store("photo.png", pngBytes(1024*1024+1))
		assertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("disallowed extension", func(t *testing.T) {
		_, err := svc.Store("malware.exe", pngBytes(16))
		assertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("content not an image", func(t *testing.T) {
		_, err := svc.Store("fake.png", []byte("<html><body>nope</body></html>"))
		assertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestImageService_Resolve(t *testing.T) {
	svc, _ := newTestImageService(t)

	url, err := svc.Store("photo.png", pngBytes(16))
	require.NoError(t, err)
	name := strings.TrimPrefix(url, "/images/")

	t.Run("resolves stored file", func(t *testing.T) {
		path, err := svc.Resolve(name)
		require.NoError(t, err)
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr)
	})

	t.Run("rejects traversal and malformed names", func(t *testing.T) {
		for _, bad := range []string{
			"../../etc/passwd",
			"..%2fsecret.png",
			"short.png",
			strings.Repeat("g", 32) + ".png",
			strings.Repeat("a", 32) + ".exe",
			"",
		} {
			_, err := svc.Resolve(bad)
			assertAppError(t, err, "NOT_FOUND")
		}
	})

	t.Run("well-formed but missing name", func(t *testing.T) {
		_, err := svc.Resolve(strings.Repeat("a", 32) + ".png")
		assertAppError(t, err, "NOT_FOUND")
	})
}

func TestImageService_Remove(t *testing.T) {
	svc, dir := newTestImageService(t)

	url, err := svc.Store("photo.png", pngBytes(16))
	require.NoError(t, err)
	name := strings.TrimPrefix(url, "/images/")

	require.NoError(t, svc.Remove(url))
	_, statErr := os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(statErr))

	// Removing again, or removing a URL the service never produced, is a no-op.
	assert.NoError(t, svc.Remove(url))
	assert.NoError(t, svc.Remove("/somewhere/else.png"))
	assert.NoError(t, svc.Remove("/images/../../etc/passwd"))
}
