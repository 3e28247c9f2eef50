package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	objectstore "boardgame-meetup/internal/platform/minio"
)

var (
	ErrAvatarInvalid  = errors.New("invalid avatar")
	ErrAvatarNotFound = errors.New("avatar not found")
)

const (
	avatarPrefix = "avatars/"
	// Larger avatars are scaled down to fit this square and stored as PNG.
	avatarMaxSide = 512
	// Headers claiming more than this are refused before a full decode.
	avatarMaxSourceSide = 8192
)

type avatarFormat struct {
	contentType string
	ext         string
}

// Keyed by the format name image.Decode reports.
var avatarFormats = map[string]avatarFormat{
	"png":  {contentType: "image/png", ext: ".png"},
	"jpeg": {contentType: "image/jpeg", ext: ".jpg"},
	"gif":  {contentType: "image/gif", ext: ".gif"},
	"webp": {contentType: "image/webp", ext: ".webp"},
}

type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

type AvatarService struct {
	storage  ObjectStorage
	maxBytes int64
}

type AvatarObject struct {
	Data        []byte
	ContentType string
}

func NewAvatarService(storage ObjectStorage, maxBytes int64) *AvatarService {
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &AvatarService{storage: storage, maxBytes: maxBytes}
}

func (s *AvatarService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload decodes data to make sure it is a complete image, shrinks it when
// either side exceeds avatarMaxSide and returns the object key to store in
// Listing.Avatar.
func (s *AvatarService) Upload(ctx context.Context, ownerID uint, data []byte) (string, error) {
	if ownerID == 0 {
		return "", ErrInvalidInput
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrAvatarInvalid)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrAvatarInvalid, s.maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: not a supported image", ErrAvatarInvalid)
	}
	kind, ok := avatarFormats[format]
	if !ok {
		return "", fmt.Errorf("%w: unsupported format %s", ErrAvatarInvalid, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > avatarMaxSourceSide || cfg.Height > avatarMaxSourceSide {
		return "", fmt.Errorf("%w: bad dimensions %dx%d", ErrAvatarInvalid, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrAvatarInvalid, format, err)
	}
	if cfg.Width > avatarMaxSide || cfg.Height > avatarMaxSide {
		var buf bytes.Buffer
		if err := png.Encode(&buf, fitAvatar(img, avatarMaxSide)); err != nil {
			return "", fmt.Errorf("encode resized avatar failed: %w", err)
		}
		data = buf.Bytes()
		kind = avatarFormats["png"]
	}

	key := fmt.Sprintf("%s%d/%s%s", avatarPrefix, ownerID, uuid.NewString(), kind.ext)
	if err := s.storage.Upload(ctx, key, data, kind.contentType); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return key, nil
}

func (s *AvatarService) Download(ctx context.Context, key string) (*AvatarObject, error) {
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, avatarPrefix) || strings.Contains(key, "..") {
		return nil, ErrAvatarInvalid
	}

	data, contentType, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return nil, ErrAvatarNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &AvatarObject{Data: data, ContentType: contentType}, nil
}

// fitAvatar scales img so its longer side equals maxSide, keeping the aspect ratio.
func fitAvatar(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width >= height {
		height = max(1, height*maxSide/width)
		width = maxSide
	} else {
		width = max(1, width*maxSide/height)
		height = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
