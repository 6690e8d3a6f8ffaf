package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
)

// MinIO 对象存储，保存上传的原始简历文件
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	log    zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保简历桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO端点不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		log:    logger.Component("minio"),
	}

	if err := m.ensureBucketExists(cfg.ResumeBucket); err != nil {
		return nil, err
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.ResumeBucket).Msg("MinIO连接就绪")
	return m, nil
}

func (m *MinIO) ensureBucketExists(bucketName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查桶 %s 是否存在失败: %w", bucketName, err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建桶 %s 失败: %w", bucketName, err)
	}
	m.log.Info().Str("bucket", bucketName).Msg("已创建MinIO桶")
	return nil
}

// UploadResumeFile 上传简历文件，对象键为 resumes/<resumeID><ext>
func (m *MinIO) UploadResumeFile(ctx context.Context, resumeID, fileExt string, reader io.Reader, fileSize int64) (string, error) {
	if !strings.HasPrefix(fileExt, ".") && fileExt != "" {
		fileExt = "." + fileExt
	}
	objectKey := path.Join("resumes", resumeID+fileExt)

	_, err := m.client.PutObject(ctx, m.cfg.ResumeBucket, objectKey, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentTypeForExt(fileExt),
	})
	if err != nil {
		return "", fmt.Errorf("上传简历文件失败: %w", err)
	}

	m.log.Debug().Str("object", objectKey).Int64("size", fileSize).Msg("简历文件已上传")
	return objectKey, nil
}

// UploadExtractedText 上传提取后的纯文本，便于排查与重处理
func (m *MinIO) UploadExtractedText(ctx context.Context, resumeID, text string) (string, error) {
	objectKey := path.Join("texts", resumeID+".txt")
	data := []byte(text)

	_, err := m.client.PutObject(ctx, m.cfg.ResumeBucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("上传提取文本失败: %w", err)
	}
	return objectKey, nil
}

// DownloadFile 下载对象的完整内容
func (m *MinIO) DownloadFile(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.cfg.ResumeBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s 失败: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 失败: %w", objectKey, err)
	}
	return data, nil
}

// GetPresignedURL 生成限时下载链接
func (m *MinIO) GetPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.cfg.ResumeBucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名链接失败: %w", err)
	}
	return u.String(), nil
}

// DeleteFile 删除对象
func (m *MinIO) DeleteFile(ctx context.Context, objectKey string) error {
	return m.client.RemoveObject(ctx, m.cfg.ResumeBucket, objectKey, minio.RemoveObjectOptions{})
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
