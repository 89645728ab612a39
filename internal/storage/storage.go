package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/shopfront-backend/config"
)

const (
	ProductFolder = "products"
	MaxImageSize  = 5 << 20
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

// AllowedImageTypes are the uploads accepted for product images.
var AllowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// UploadedImage is where an image ended up and the id used to delete it.
type UploadedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// ImageStorage stores product images.
type ImageStorage interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (*UploadedImage, error)
	Delete(ctx context.Context, publicID string) error
}

// New builds the provider selected by STORAGE_PROVIDER.
func New(cfg *config.StorageConfig) (ImageStorage, error) {
	switch cfg.Provider {
	case "cloudinary":
		cld, err := NewCloudinaryStorage(cfg.CloudinaryURL, ProductFolder)
		if err != nil {
			return nil, err
		}
		return cld, nil
	case "s3", "":
		s3cfg := cfg.S3
		return NewS3Storage(s3cfg.Region, s3cfg.Bucket, s3cfg.AccessKeyID, s3cfg.SecretAccessKey, s3cfg.BaseURL), nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

func ValidateContentType(contentType string, allowedTypes []string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range allowedTypes {
		if ct == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
}

func ValidateFileSize(size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %d bytes", maxSize)
	}
	return nil
}

// objectKey returns folder/<uuid><ext>, keeping the original extension only.
func objectKey(folder, filename string) string {
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), strings.ToLower(filepath.Ext(filename)))
}
