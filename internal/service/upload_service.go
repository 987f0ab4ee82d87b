package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the file exceeds the configured size cap.
	ErrUploadTooLarge = errors.New("file exceeds maximum upload size")
	// ErrUploadTypeNotAllowed indicates the detected content type is not accepted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrMaterialNotFound indicates the material does not exist.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrNotUploader indicates the caller does not own the material.
	ErrNotUploader = errors.New("only the uploader can share this material")
)

// FileStorage stores binary assets and returns a public URL.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService handles teaching material uploads and classroom sharing.
type UploadService interface {
	Upload(ctx context.Context, uploaderUID string, file *multipart.FileHeader, classroomIDs []uint) (dto.MaterialResponse, error)
	Share(ctx context.Context, id uint, uploaderUID string, req dto.MaterialShareRequest) (dto.MaterialResponse, error)
	ListForClassroom(ctx context.Context, classroomID uint) ([]dto.MaterialResponse, error)
	ListByUploader(ctx context.Context, uploaderUID string) ([]dto.MaterialResponse, error)
}

type uploadService struct {
	materials repository.MaterialRepository
	storage   FileStorage
	maxBytes  int64
	logger    zerolog.Logger
}

// Content types accepted for teaching materials. Detection runs on file
// content, not the client-supplied header.
var allowedMimePrefixes = []string{
	"image/",
	"text/plain",
	"application/pdf",
	"application/vnd.openxmlformats-officedocument",
	"application/msword",
	"application/vnd.ms-powerpoint",
}

// NewUploadService constructs the upload service.
func NewUploadService(materials repository.MaterialRepository, storage FileStorage, maxBytes int64, logger zerolog.Logger) UploadService {
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	return &uploadService{
		materials: materials,
		storage:   storage,
		maxBytes:  maxBytes,
		logger:    logger.With().Str("component", "upload_service").Logger(),
	}
}

func (s *uploadService) Upload(ctx context.Context, uploaderUID string, file *multipart.FileHeader, classroomIDs []uint) (dto.MaterialResponse, error) {
	if file == nil {
		return dto.MaterialResponse{}, errors.New("file is required")
	}
	if file.Size > s.maxBytes {
		return dto.MaterialResponse{}, ErrUploadTooLarge
	}

	source, err := file.Open()
	if err != nil {
		return dto.MaterialResponse{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = source.Close() }()

	content, err := io.ReadAll(io.LimitReader(source, s.maxBytes+1))
	if err != nil {
		return dto.MaterialResponse{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > s.maxBytes {
		return dto.MaterialResponse{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(content)
	if !mimeAllowed(detected.String()) {
		return dto.MaterialResponse{}, fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, detected.String())
	}

	digest := sha256.Sum256(content)

	fileURL, err := s.storage.Upload(ctx, file.Filename, bytes.NewReader(content))
	if err != nil {
		return dto.MaterialResponse{}, fmt.Errorf("store upload: %w", err)
	}

	material := models.Material{
		UploaderUID:  uploaderUID,
		FileName:     file.Filename,
		FileURL:      fileURL,
		MimeType:     detected.String(),
		SizeBytes:    int64(len(content)),
		Checksum:     hex.EncodeToString(digest[:]),
		ClassroomIDs: datatypes.NewJSONSlice(classroomIDs),
	}
	if err := s.materials.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().
		Uint("material_id", material.ID).
		Str("uploader_uid", uploaderUID).
		Str("mime_type", material.MimeType).
		Int64("size_bytes", material.SizeBytes).
		Msg("material uploaded")

	return newMaterialResponse(material), nil
}

// Share replaces the material's classroom set. Only the uploader may share.
func (s *uploadService) Share(ctx context.Context, id uint, uploaderUID string, req dto.MaterialShareRequest) (dto.MaterialResponse, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}
	if material.UploaderUID != uploaderUID {
		return dto.MaterialResponse{}, ErrNotUploader
	}

	updated, err := s.materials.Update(ctx, id, map[string]interface{}{
		"classroom_ids": datatypes.NewJSONSlice(req.ClassroomIDs),
	})
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	return newMaterialResponse(updated), nil
}

// ListForClassroom returns materials shared with a classroom. Membership lives
// in a JSON column, so filtering happens after the fetch.
func (s *uploadService) ListForClassroom(ctx context.Context, classroomID uint) ([]dto.MaterialResponse, error) {
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MaterialResponse, 0)
	for _, material := range materials {
		for _, id := range material.ClassroomIDs {
			if id == classroomID {
				responses = append(responses, newMaterialResponse(material))
				break
			}
		}
	}
	return responses, nil
}

func (s *uploadService) ListByUploader(ctx context.Context, uploaderUID string) ([]dto.MaterialResponse, error) {
	materials, err := s.materials.ListByUploader(ctx, uploaderUID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MaterialResponse, 0, len(materials))
	for _, material := range materials {
		responses = append(responses, newMaterialResponse(material))
	}
	return responses, nil
}

func mimeAllowed(detected string) bool {
	for _, prefix := range allowedMimePrefixes {
		if strings.HasPrefix(detected, prefix) {
			return true
		}
	}
	return false
}

func newMaterialResponse(material models.Material) dto.MaterialResponse {
	return dto.MaterialResponse{
		ID:           material.ID,
		UploaderUID:  material.UploaderUID,
		FileName:     material.FileName,
		FileURL:      material.FileURL,
		MimeType:     material.MimeType,
		SizeBytes:    material.SizeBytes,
		ClassroomIDs: append([]uint(nil), material.ClassroomIDs...),
		CreatedAt:    material.CreatedAt,
	}
}
