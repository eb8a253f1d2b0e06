package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
	"github.com/weiawesome/wes-blog/pkg/storage"
)

var (
	ErrImageTooLarge    = errors.New("image exceeds maximum size")
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
	ErrImageNotFound    = errors.New("image not found")
)

// extensions maps the sniffed content type to the stored file extension.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

var contentTypes = map[string]string{
	".jpg": "image/jpeg",
	".png": "image/png",
	".gif": "image/gif",
}

// Config controls upload limits and the preview crop.
type Config struct {
	MaxSize     int64  `mapstructure:"max_size"`
	ThumbWidth  int    `mapstructure:"thumbnail_width"`
	ThumbHeight int    `mapstructure:"thumbnail_height"`
	JpegQuality int    `mapstructure:"jpeg_quality"`
	KeyPrefix   string `mapstructure:"key_prefix"`
}

// ImageStore validates post images and keeps them, plus a cropped
// JPEG preview, in the configured blob storage.
type ImageStore struct {
	storage storage.Storage
	cfg     Config
}

// NewImageStore fills zero config values with defaults.
func NewImageStore(s storage.Storage, cfg Config) *ImageStore {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 5 << 20
	}
	if cfg.ThumbWidth <= 0 {
		cfg.ThumbWidth = 960
	}
	if cfg.ThumbHeight <= 0 {
		cfg.ThumbHeight = 339
	}
	if cfg.JpegQuality <= 0 {
		cfg.JpegQuality = 85
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "posts/"
	}
	return &ImageStore{storage: s, cfg: cfg}
}

// Save validates the upload and stores it under "<prefix><uuid><ext>".
// Nothing is written unless the image decodes.
func (s *ImageStore) Save(ctx context.Context, upload *domain.ImageUpload) (string, error) {
	l := log.Ctx(ctx)

	if upload.Size > s.cfg.MaxSize {
		return "", ErrImageTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.cfg.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxSize {
		return "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrUnsupportedImage
	}

	var thumb bytes.Buffer
	preview := imaging.Fill(img, s.cfg.ThumbWidth, s.cfg.ThumbHeight, imaging.Center, imaging.Lanczos)
	if err := imaging.Encode(&thumb, preview, imaging.JPEG, imaging.JPEGQuality(s.cfg.JpegQuality)); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	key := s.cfg.KeyPrefix + uuid.New().String() + ext
	if err := s.storage.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	thumbKey := domain.ThumbnailKey(key)
	if err := s.storage.Write(ctx, thumbKey, bytes.NewReader(thumb.Bytes()), int64(thumb.Len()), "image/jpeg"); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			l.Warn().Err(delErr).Str(log.FieldMediaKey, key).Msg("failed to roll back image after thumbnail error")
		}
		return "", fmt.Errorf("store thumbnail: %w", err)
	}

	l.Debug().Str(log.FieldMediaKey, key).Int("bytes", len(data)).Msg("image stored")
	return key, nil
}

// Delete removes an image and its preview.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := s.storage.Delete(ctx, key)
	if thumbErr := s.storage.Delete(ctx, domain.ThumbnailKey(key)); err == nil {
		err = thumbErr
	}
	return err
}

// Open streams a stored image or preview. Only keys under the
// configured prefix are served.
func (s *ImageStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean != key || !strings.HasPrefix(clean, s.cfg.KeyPrefix) {
		return nil, "", ErrImageNotFound
	}
	contentType, ok := contentTypes[path.Ext(clean)]
	if !ok {
		return nil, "", ErrImageNotFound
	}

	rc, err := s.storage.Read(ctx, clean)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", err
	}
	return rc, contentType, nil
}
