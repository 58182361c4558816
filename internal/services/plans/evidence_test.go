package plans

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStorage 记录上传调用，返回与传入大小一致的结果
type fakeStorage struct {
	putBucket string
	putKey    string
	putSize   int64
}

var _ storage.StorageService = (*fakeStorage)(nil)

func (f *fakeStorage) PutObject(_ context.Context, bucketName, objectName string, _ io.Reader, objectSize int64, _ string) (storage.PutObjectResult, error) {
	f.putBucket = bucketName
	f.putKey = objectName
	f.putSize = objectSize
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func (f *fakeStorage) GetObject(_ context.Context, _, _ string) (storage.GetObjectResult, error) {
	return storage.GetObjectResult{Reader: io.NopCloser(strings.NewReader(""))}, nil
}

func (f *fakeStorage) RemoveObject(_ context.Context, _, _ string) error { return nil }

func (f *fakeStorage) IsBucketExist(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *fakeStorage) MakeBucket(_ context.Context, _ string) error { return nil }

func (f *fakeStorage) GetObjectURL(bucketName, objectName string) string {
	return "http://storage.local/" + bucketName + "/" + objectName
}

func (f *fakeStorage) PreSignGetObjectURL(_ context.Context, bucketName, objectName string, _ time.Duration) (string, error) {
	return f.GetObjectURL(bucketName, objectName), nil
}

func newEvidenceService(db *gorm.DB, store storage.StorageService) EvidenceService {
	cfg := &config.Config{}
	cfg.Storage.Type = "minio"
	cfg.Storage.MaxAttachmentSize = 32 << 20
	cfg.Storage.PresignedURLExpiry = 15
	cfg.MinIO.BucketName = "testhub-evidence"
	return NewEvidenceService(
		repositories.NewAttachmentRepository(db),
		repositories.NewPlanRepository(db),
		store,
		nil,
		cfg,
	)
}

func seedPlanItem(t *testing.T, db *gorm.DB) *models.PlanItem {
	t.Helper()
	tc := seedCase(t, db, 1)
	plan := &models.Plan{Name: "回归", CreatedBy: 1}
	require.NoError(t, db.Create(plan).Error)
	item := &models.PlanItem{PlanID: plan.ID, TestCaseID: tc.ID, Position: 1, Result: models.ResultUntested}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestUploadAttachment(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newEvidenceService(db, store)
	item := seedPlanItem(t, db)

	content := "screenshot-bytes"
	attachment, err := svc.UploadAttachment(context.Background(), 7, UploadAttachmentInput{
		PlanItemID: item.ID,
		FileName:   "失败截图.png",
		Size:       int64(len(content)),
		MimeType:   "image/png",
		Reader:     strings.NewReader(content),
	})
	require.NoError(t, err)

	// 落库的大小与对象存储返回的大小一致
	assert.Equal(t, uint64(len(content)), attachment.Size)
	assert.Equal(t, int64(len(content)), store.putSize)
	assert.Equal(t, "testhub-evidence", store.putBucket)
	assert.Contains(t, store.putKey, "失败截图.png")
	assert.Equal(t, item.ID, attachment.PlanItemID)
	assert.Equal(t, uint64(7), attachment.UploadedBy)

	var saved models.Attachment
	require.NoError(t, db.First(&saved, attachment.ID).Error)
	assert.Equal(t, uint64(len(content)), saved.Size)
}

func TestUploadAttachmentTooLarge(t *testing.T) {
	db := newTestDB(t)
	svc := newEvidenceService(db, &fakeStorage{})
	item := seedPlanItem(t, db)

	_, err := svc.UploadAttachment(context.Background(), 1, UploadAttachmentInput{
		PlanItemID: item.ID,
		FileName:   "huge.bin",
		Size:       (32 << 20) + 1,
		Reader:     strings.NewReader(""),
	})
	assert.ErrorIs(t, err, xerr.ErrAttachmentTooLarge)
}
