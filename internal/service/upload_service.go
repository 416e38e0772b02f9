package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/weiawesome/duochat/internal/audit"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/idgen"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/storage"
)

// DefaultMaxUploadSize is the attachment size limit.
const DefaultMaxUploadSize = 10 << 20

// AllowedUploadTypes lists the attachment types accepted by Upload.
var AllowedUploadTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type uploadServiceImpl struct {
	store    storage.Storage
	ids      idgen.Generator
	maxBytes int64
}

func NewUploadService(store storage.Storage, ids idgen.Generator, maxBytes int64) UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadSize
	}
	return &uploadServiceImpl{store: store, ids: ids, maxBytes: maxBytes}
}

// Upload sniffs the content type, enforces the size limit and stores the
// file under a random key that keeps the original extension.
func (s *uploadServiceImpl) Upload(ctx context.Context, username string, file *domain.Upload) (*domain.UploadResult, error) {
	l := log.Ctx(ctx)

	if file.Size > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidArgument, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidArgument)
	}

	fileType, ok := detectType(data, AllowedUploadTypes)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimetype.Detect(data).String())
	}
	if !sameFamily(file.Type, fileType) {
		return nil, fmt.Errorf("%w: declared %s but content is %s", domain.ErrUnsupportedType, file.Type, fileType)
	}

	id, err := s.ids.Generate()
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, err)
	}
	name := sanitizeFileName(file.Name)
	key := "files/" + id + strings.ToLower(path.Ext(name))

	if err := s.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), fileType); err != nil {
		l.Error().Err(err).Str("key", key).Msg("failed to store upload")
		return nil, errors.Join(domain.ErrInternal, err)
	}

	audit.LogWithDetail(ctx, audit.ActionUpload, username, key, fileType, "file uploaded")

	return &domain.UploadResult{
		FileURL:  s.store.URL(key),
		FileName: name,
		FileType: fileType,
		FileSize: int64(len(data)),
	}, nil
}

// detectType returns the first entry of allowed matching the sniffed
// content type. Parent types are not considered, so HTML is not text/plain.
func detectType(data []byte, allowed []string) (string, bool) {
	detected := mimetype.Detect(data)
	for _, t := range allowed {
		if detected.Is(t) {
			return t, true
		}
	}
	return "", false
}

// sameFamily reports whether the declared content type has the same top-level
// type as the detected one. An empty or generic declaration always agrees.
func sameFamily(declared, detected string) bool {
	if declared == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	if mediaType == "application/octet-stream" {
		return true
	}
	family := func(t string) string {
		top, _, _ := strings.Cut(t, "/")
		return top
	}
	return family(mediaType) == family(detected)
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
