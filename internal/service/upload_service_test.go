package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/models"
)

type memMaterialRepo struct {
	materials []models.Material
	nextID    uint
}

func newMemMaterialRepo() *memMaterialRepo {
	return &memMaterialRepo{nextID: 1}
}

func (r *memMaterialRepo) Create(_ context.Context, material *models.Material) error {
	material.ID = r.nextID
	r.nextID++
	r.materials = append(r.materials, *material)
	return nil
}

func (r *memMaterialRepo) GetByID(_ context.Context, id uint) (models.Material, error) {
	for _, material := range r.materials {
		if material.ID == id {
			return material, nil
		}
	}
	return models.Material{}, gorm.ErrRecordNotFound
}

func (r *memMaterialRepo) ListByUploader(_ context.Context, uploaderUID string) ([]models.Material, error) {
	var matched []models.Material
	for _, material := range r.materials {
		if material.UploaderUID == uploaderUID {
			matched = append(matched, material)
		}
	}
	return matched, nil
}

func (r *memMaterialRepo) List(_ context.Context) ([]models.Material, error) {
	return append([]models.Material(nil), r.materials...), nil
}

func (r *memMaterialRepo) Update(_ context.Context, id uint, updates map[string]interface{}) (models.Material, error) {
	for i := range r.materials {
		if r.materials[i].ID != id {
			continue
		}
		if ids, ok := updates["classroom_ids"].(datatypes.JSONSlice[uint]); ok {
			r.materials[i].ClassroomIDs = ids
		}
		return r.materials[i], nil
	}
	return models.Material{}, gorm.ErrRecordNotFound
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

func newUploadFixture(maxBytes int64) (*memMaterialRepo, *stubStorage, UploadService) {
	materials := newMemMaterialRepo()
	storage := &stubStorage{url: "https://cdn.example/materials/asset"}
	svc := NewUploadService(materials, storage, maxBytes, testLogger())
	return materials, storage, svc
}

func TestUploadDetectsTypeFromContent(t *testing.T) {
	materials, storage, svc := newUploadFixture(1 << 20)

	header := fileHeader(t, "notes.pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))
	resp, err := svc.Upload(context.Background(), "uid-ravi", header, []uint{3})
	require.NoError(t, err)

	require.Equal(t, "application/pdf", resp.MimeType)
	require.Equal(t, "https://cdn.example/materials/asset", resp.FileURL)
	require.Equal(t, []uint{3}, resp.ClassroomIDs)
	require.Equal(t, []string{"notes.pdf"}, storage.uploads)
	require.Len(t, materials.materials, 1)
	require.Len(t, materials.materials[0].Checksum, 64)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	_, storage, svc := newUploadFixture(16)

	header := fileHeader(t, "big.txt", bytes.Repeat([]byte("a"), 64))
	_, err := svc.Upload(context.Background(), "uid-ravi", header, nil)
	require.ErrorIs(t, err, ErrUploadTooLarge)
	require.Empty(t, storage.uploads)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	_, storage, svc := newUploadFixture(1 << 20)

	header := fileHeader(t, "tool.bin", []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0})
	_, err := svc.Upload(context.Background(), "uid-ravi", header, nil)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
	require.Empty(t, storage.uploads)
}

func TestShareReplacesClassroomSet(t *testing.T) {
	materials, _, svc := newUploadFixture(1 << 20)

	header := fileHeader(t, "notes.txt", []byte("photosynthesis basics"))
	created, err := svc.Upload(context.Background(), "uid-ravi", header, []uint{1})
	require.NoError(t, err)

	shared, err := svc.Share(context.Background(), created.ID, "uid-ravi", dto.MaterialShareRequest{ClassroomIDs: []uint{2, 5}})
	require.NoError(t, err)
	require.Equal(t, []uint{2, 5}, shared.ClassroomIDs)
	require.Equal(t, []uint{2, 5}, []uint(materials.materials[0].ClassroomIDs))
}

func TestShareRequiresUploader(t *testing.T) {
	_, _, svc := newUploadFixture(1 << 20)

	header := fileHeader(t, "notes.txt", []byte("photosynthesis basics"))
	created, err := svc.Upload(context.Background(), "uid-ravi", header, []uint{1})
	require.NoError(t, err)

	_, err = svc.Share(context.Background(), created.ID, "uid-other", dto.MaterialShareRequest{ClassroomIDs: []uint{2}})
	require.ErrorIs(t, err, ErrNotUploader)
}

func TestShareUnknownMaterial(t *testing.T) {
	_, _, svc := newUploadFixture(1 << 20)

	_, err := svc.Share(context.Background(), 42, "uid-ravi", dto.MaterialShareRequest{ClassroomIDs: []uint{2}})
	require.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestListForClassroomFiltersMembership(t *testing.T) {
	materials, _, svc := newUploadFixture(1 << 20)
	require.NoError(t, materials.Create(context.Background(), &models.Material{
		UploaderUID: "uid-ravi", FileName: "a.txt", ClassroomIDs: datatypes.NewJSONSlice([]uint{1, 2}),
	}))
	require.NoError(t, materials.Create(context.Background(), &models.Material{
		UploaderUID: "uid-ravi", FileName: "b.txt", ClassroomIDs: datatypes.NewJSONSlice([]uint{3}),
	}))

	listed, err := svc.ListForClassroom(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "a.txt", listed[0].FileName)
}
