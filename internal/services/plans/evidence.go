package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq"
	"github.com/3Eeeecho/go-testhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

type UploadAttachmentInput struct {
	PlanItemID uint64
	FileName   string
	Size       int64
	MimeType   string
	Reader     io.Reader
}

// EvidenceService 管理计划条目的执行证据(截图、日志等附件)
type EvidenceService interface {
	UploadAttachment(ctx context.Context, userID uint64, input UploadAttachmentInput) (*models.Attachment, error)
	ListAttachments(ctx context.Context, planItemID uint64) ([]models.Attachment, error)
	GetDownloadURL(ctx context.Context, attachmentID uint64) (string, error)
	DeleteAttachment(ctx context.Context, attachmentID uint64) error
	// BundlePlanEvidence 把计划下全部附件打包为 zip 写入 w
	BundlePlanEvidence(ctx context.Context, planID uint64, w io.Writer) error
}

type evidenceService struct {
	attachmentRepo repositories.AttachmentRepository
	planRepo       repositories.PlanRepository
	storage        storage.StorageService
	mqClient       *mq.RabbitMQClient
	cfg            *config.Config
}

var _ EvidenceService = (*evidenceService)(nil)

func NewEvidenceService(
	attachmentRepo repositories.AttachmentRepository,
	planRepo repositories.PlanRepository,
	storageSvc storage.StorageService,
	mqClient *mq.RabbitMQClient,
	cfg *config.Config,
) EvidenceService {
	return &evidenceService{
		attachmentRepo: attachmentRepo,
		planRepo:       planRepo,
		storage:        storageSvc,
		mqClient:       mqClient,
		cfg:            cfg,
	}
}

func (s *evidenceService) bucketName() string {
	if s.cfg.Storage.Type == "aliyun_oss" {
		return s.cfg.AliyunOSS.BucketName
	}
	return s.cfg.MinIO.BucketName
}

func (s *evidenceService) UploadAttachment(ctx context.Context, userID uint64, input UploadAttachmentInput) (*models.Attachment, error) {
	if input.Size <= 0 || input.Size > s.cfg.Storage.MaxAttachmentSize {
		return nil, xerr.ErrAttachmentTooLarge
	}

	item, err := s.planRepo.FindItemByID(input.PlanItemID)
	if err != nil {
		return nil, err
	}

	attachmentUUID := uuid.New().String()
	objectKey := storage.GenerateObjectKey(attachmentUUID, input.FileName)
	bucket := s.bucketName()

	result, err := s.storage.PutObject(ctx, bucket, objectKey, input.Reader, input.Size, input.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment object: %w", err)
	}

	attachment := &models.Attachment{
		PlanItemID: item.ID,
		UUID:       attachmentUUID,
		FileName:   input.FileName,
		Size:       uint64(result.Size),
		OssBucket:  result.Bucket,
		OssKey:     result.Key,
		UploadedBy: userID,
	}
	if input.MimeType != "" {
		attachment.MimeType = &input.MimeType
	}

	if err := s.attachmentRepo.Create(attachment); err != nil {
		// 记录失败时回收已上传对象,避免存储泄漏
		if removeErr := s.storage.RemoveObject(ctx, bucket, objectKey); removeErr != nil {
			logger.Error("回收孤儿附件对象失败",
				zap.String("object_key", objectKey), zap.Error(removeErr))
		}
		return nil, fmt.Errorf("failed to create attachment record: %w", err)
	}

	logger.Info("附件上传成功",
		zap.Uint64("attachment_id", attachment.ID),
		zap.Uint64("plan_item_id", item.ID),
		zap.String("file_name", attachment.FileName))
	return attachment, nil
}

func (s *evidenceService) ListAttachments(ctx context.Context, planItemID uint64) ([]models.Attachment, error) {
	if _, err := s.planRepo.FindItemByID(planItemID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.FindByPlanItemID(planItemID)
}

func (s *evidenceService) GetDownloadURL(ctx context.Context, attachmentID uint64) (string, error) {
	attachment, err := s.attachmentRepo.FindByID(attachmentID)
	if err != nil {
		return "", err
	}

	expiry := time.Duration(s.cfg.Storage.PresignedURLExpiry) * time.Minute
	url, err := s.storage.PreSignGetObjectURL(ctx, attachment.OssBucket, attachment.OssKey, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign download url: %w", err)
	}
	return url, nil
}

// DeleteAttachment 软删除记录并投递异步清理任务,对象由 Worker 删除
func (s *evidenceService) DeleteAttachment(ctx context.Context, attachmentID uint64) error {
	attachment, err := s.attachmentRepo.FindByID(attachmentID)
	if err != nil {
		return err
	}

	if err := s.attachmentRepo.Delete(attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment record: %w", err)
	}

	if s.mqClient != nil {
		task := models.DeleteAttachmentTask{
			AttachmentID: attachment.ID,
			OssBucket:    attachment.OssBucket,
			OssKey:       attachment.OssKey,
		}
		body, jsonErr := json.Marshal(task)
		if jsonErr != nil {
			logger.Error("序列化清理任务失败", zap.Uint64("attachment_id", attachment.ID), zap.Error(jsonErr))
			return nil
		}
		if pubErr := s.mqClient.Publish(mq.DeleteAttachmentQueueName, body); pubErr != nil {
			logger.Error("投递清理任务失败", zap.Uint64("attachment_id", attachment.ID), zap.Error(pubErr))
		}
	}
	return nil
}

func (s *evidenceService) BundlePlanEvidence(ctx context.Context, planID uint64, w io.Writer) error {
	if _, err := s.planRepo.FindByID(planID); err != nil {
		return err
	}

	attachments, err := s.attachmentRepo.FindByPlanID(planID)
	if err != nil {
		return fmt.Errorf("failed to list plan attachments: %w", err)
	}

	zipWriter := zip.NewWriter(w)
	for _, attachment := range attachments {
		if err := s.addToBundle(ctx, zipWriter, &attachment); err != nil {
			// 单个附件失败不中断整包,记录后继续
			logger.Warn("附件打包失败,已跳过",
				zap.Uint64("attachment_id", attachment.ID),
				zap.String("file_name", attachment.FileName),
				zap.Error(err))
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize evidence bundle: %w", err)
	}
	return nil
}

func (s *evidenceService) addToBundle(ctx context.Context, zipWriter *zip.Writer, attachment *models.Attachment) error {
	object, err := s.storage.GetObject(ctx, attachment.OssBucket, attachment.OssKey)
	if err != nil {
		return err
	}
	defer object.Reader.Close()

	// 以 条目ID/UUID_文件名 组织,避免同名附件覆盖
	entryName := fmt.Sprintf("item_%d/%s_%s", attachment.PlanItemID, attachment.UUID, attachment.FileName)
	entry, err := zipWriter.Create(entryName)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, object.Reader)
	return err
}
