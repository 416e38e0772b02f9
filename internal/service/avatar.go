package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/idgen"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/storage"
)

var avatarTypes = []string{"image/jpeg", "image/png", "image/gif"}

// AvatarProcessor square-crops profile pictures and stores them as JPEG.
type AvatarProcessor struct {
	store       storage.Storage
	ids         idgen.Generator
	size        int
	maxBytes    int64
	jpegQuality int
}

func NewAvatarProcessor(store storage.Storage, ids idgen.Generator, size int, maxBytes int64) *AvatarProcessor {
	if size <= 0 {
		size = 256
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadSize
	}
	return &AvatarProcessor{
		store:       store,
		ids:         ids,
		size:        size,
		maxBytes:    maxBytes,
		jpegQuality: 85,
	}
}

// Process validates, resizes and stores the image, returning its storage key and URL.
func (p *AvatarProcessor) Process(ctx context.Context, username string, upload *domain.Upload) (string, string, error) {
	data, err := io.ReadAll(io.LimitReader(upload.Body, p.maxBytes+1))
	if err != nil {
		return "", "", errors.Join(domain.ErrInvalidArgument, err)
	}
	if int64(len(data)) > p.maxBytes {
		return "", "", domain.ErrFileTooLarge
	}
	if _, ok := detectType(data, avatarTypes); !ok {
		return "", "", fmt.Errorf("%w: avatar must be a jpeg, png or gif image", domain.ErrUnsupportedType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", "", fmt.Errorf("%w: decode image: %v", domain.ErrInvalidArgument, err)
	}

	resized := imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(p.jpegQuality)); err != nil {
		return "", "", errors.Join(domain.ErrInternal, err)
	}

	id, err := p.ids.Generate()
	if err != nil {
		return "", "", errors.Join(domain.ErrInternal, err)
	}
	key := fmt.Sprintf("avatars/%s/%s.jpg", username, id)

	if err := p.store.Write(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		return "", "", errors.Join(domain.ErrInternal, err)
	}
	return key, p.store.URL(key), nil
}

// Discard removes a stored avatar, logging failures.
func (p *AvatarProcessor) Discard(ctx context.Context, key string) {
	if p == nil || key == "" {
		return
	}
	if err := p.store.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("failed to delete avatar")
	}
}
