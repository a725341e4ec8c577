// Package service contains the business logic between handlers and repositories.
package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"stoop/internal/config"
	"stoop/internal/models"
)

const (
	DefaultUploadDir   = "uploads"
	DefaultMaxUploadMB = 5
)

// ImageService stores listing images on local disk under random hex names
// and serves them back by name.
type ImageService struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewImageService returns an ImageService configured from cfg, falling back
// to package defaults when cfg is nil or incomplete.
func NewImageService(cfg *config.Config) *ImageService {
	uploadDir := DefaultUploadDir
	maxUploadMB := DefaultMaxUploadMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.MaxUploadMB > 0 {
			maxUploadMB = cfg.MaxUploadMB
		}
	}

	return &ImageService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Store validates and writes an uploaded image, returning the public URL
// path ("/images/<name>") it will be served from.
func (s *ImageService) Store(filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !isAllowedImageExt(ext) {
		return "", models.NewValidationError("Unsupported image type")
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError("Invalid image file")
	}

	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", models.NewInternalError(err)
	}
	name := hex.EncodeToString(raw[:]) + ext

	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), content, 0o600); err != nil {
		return "", models.NewInternalError(err)
	}

	return "/images/" + name, nil
}

// Remove deletes the file behind an image URL. A missing file is not an
// error; the listing referencing it is already gone or going.
func (s *ImageService) Remove(imageURL string) error {
	name := strings.TrimPrefix(imageURL, "/images/")
	if name == imageURL || name == "" {
		return nil
	}
	if !isValidImageName(name) {
		return nil
	}

	err := os.Remove(filepath.Join(s.uploadDir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Resolve maps a requested image name to its on-disk path. The strict name
// format check is what keeps traversal sequences out of the path; a name that
// fails it cannot exist in the store, so it reads as not found.
func (s *ImageService) Resolve(name string) (string, error) {
	if !isValidImageName(name) {
		return "", models.NewNotFoundMessage("image not found")
	}

	fullPath := filepath.Join(s.uploadDir, name)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundMessage("image not found")
		}
		return "", models.NewInternalError(err)
	}
	return fullPath, nil
}

// isValidImageName checks for a 32-char lowercase hex stem plus an allowed
// extension, the only shape Store ever produces.
func isValidImageName(name string) bool {
	ext := filepath.Ext(name)
	if !isAllowedImageExt(strings.ToLower(ext)) {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if len(stem) != 32 {
		return false
	}
	for _, c := range stem {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isAllowedImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
