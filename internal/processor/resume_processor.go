package processor

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/uuid/v5"
	googleuuid "github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var tracer = otel.Tracer("resume-match-go/processor")

// ErrDuplicateResume 简历文本与已有记录重复
var ErrDuplicateResume = errors.New("简历内容与已有记录重复")

// dedupeStore 原始文本MD5去重登记，生产环境由Redis实现
// CheckAndAddRawTextMD5 返回true表示该MD5已存在
type dedupeStore interface {
	CheckAndAddRawTextMD5(ctx context.Context, md5Hex string) (bool, error)
	RemoveRawTextMD5(ctx context.Context, md5Hex string) error
}

// Components 聚合处理流程依赖的全部功能组件，便于集中管理和测试替换
type Components struct {
	SectionParser *parser.SectionParser
	TextCleaner   *parser.TextCleaner
	PDFExtractor  *extractor.PDFExtractor
	Embedder      *embedding.Client

	// 存储层依赖，离线场景可以为空
	Storage *storage.Storage
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	DefaultIntensity types.CleaningIntensity // 未显式指定时使用的清洗强度
	DefaultMaxTokens int                     // 未显式指定时的token预算，0表示不截断
	ParserVersion    string                  // 写入简历记录的解析器版本
	MatchQueue       string                  // 匹配任务队列名
}

// ResumeProcessor 简历处理编排器
// 负责提取、清洗、章节解析、向量化、落库的完整流水线
type ResumeProcessor struct {
	Components
	Settings Settings

	dedupe dedupeStore
	log    zerolog.Logger
}

// NewResumeProcessor 按选项组装处理器
// 未提供的组件按默认方式构造，存储组件缺省为空（离线模式）
func NewResumeProcessor(compOpts []ComponentOpt, setOpts []SettingOpt) *ResumeProcessor {
	p := &ResumeProcessor{
		Settings: Settings{
			DefaultIntensity: types.CleaningMedium,
			ParserVersion:    constants.DefaultParserVer,
		},
		log: logger.Component("processor"),
	}
	for _, opt := range compOpts {
		opt(&p.Components)
	}
	for _, opt := range setOpts {
		opt(&p.Settings)
	}

	if p.SectionParser == nil {
		p.SectionParser = parser.NewSectionParser(nil)
	}
	if p.TextCleaner == nil {
		p.TextCleaner = parser.NewTextCleaner()
	}
	if p.Storage != nil && p.Storage.Redis != nil {
		p.dedupe = p.Storage.Redis
	}
	return p
}

// registerRawText 去重登记原始文本MD5
// 重复时返回ErrDuplicateResume；首次登记返回回滚函数供落库失败时调用
// 去重存储缺省或不可用时直接放行
func (p *ResumeProcessor) registerRawText(ctx context.Context, textMD5 string) (func(context.Context), error) {
	if p.dedupe == nil {
		return nil, nil
	}
	duplicate, err := p.dedupe.CheckAndAddRawTextMD5(ctx, textMD5)
	if err != nil {
		// Redis不可用时跳过去重，不阻断上传
		p.log.Warn().Err(err).Msg("MD5去重检查失败，跳过")
		return nil, nil
	}
	if duplicate {
		return nil, ErrDuplicateResume
	}
	return func(ctx context.Context) {
		if rerr := p.dedupe.RemoveRawTextMD5(ctx, textMD5); rerr != nil {
			p.log.Error().Err(rerr).Str("md5", textMD5).Msg("回滚MD5去重记录失败")
		}
	}, nil
}

// ProcessOptions 单次文本处理的参数
type ProcessOptions struct {
	Method    types.ParsingMethod     // full_text 或 section_based
	Intensity types.CleaningIntensity // 为空时取Settings默认值
	MaxTokens int                     // <=0时取Settings默认值
	// Structured 为真时章节内容进一步做结构化子解析
	// 为假时保留7个章节的原始清洗文本
	Structured bool
}

// ProcessText 对已提取的简历文本执行清洗与可选的章节解析
func (p *ResumeProcessor) ProcessText(ctx context.Context, rawText, filename string, opts ProcessOptions) (*types.ProcessResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.ProcessText",
		trace.WithAttributes(
			attribute.String("resume.filename", tracing.SafeAttributeValue("filename", filename, tracing.DefaultMaxLength)),
			attribute.String("parse.method", string(opts.Method)),
		))
	defer span.End()

	if opts.Method != types.MethodFullText && opts.Method != types.MethodSectionBased {
		return nil, fmt.Errorf("不支持的解析方式: %q", opts.Method)
	}

	intensity := opts.Intensity
	if intensity == "" {
		intensity = p.Settings.DefaultIntensity
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.Settings.DefaultMaxTokens
	}

	cleaned := p.TextCleaner.CleanAndOptimize(rawText, intensity, maxTokens)
	result := &types.ProcessResult{
		RawText:     rawText,
		CleanedText: cleaned,
	}

	if opts.Method == types.MethodSectionBased {
		result.Parsed = p.SectionParser.ParseResume(cleaned, filename, !opts.Structured)
	}

	span.SetAttributes(
		attribute.Int("text.raw_chars", len(rawText)),
		attribute.Int("text.cleaned_chars", len(cleaned)),
		attribute.String("text.cleaned_preview", tracing.SafeResumeContent(cleaned)),
	)
	return result, nil
}

// UploadResult 一次简历上传的处理结果
type UploadResult struct {
	ResumeID  string `json:"resume_id"`
	FilePath  string `json:"file_path_oss"`
	TextChars int    `json:"text_chars"`
	Embedded  bool   `json:"embedded"`
}

// ProcessUpload 完整的简历上传流水线
// 提取文本、MD5去重、上传对象存储、章节解析落库、向量化
// 去重失败以外的任何一步失败都会回滚MD5记录，保证文件可以重传
func (p *ResumeProcessor) ProcessUpload(ctx context.Context, projectID, filename string, fileData []byte) (result *UploadResult, err error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.ProcessUpload",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("resume.filename", tracing.SafeAttributeValue("filename", filename, tracing.DefaultMaxLength)),
			attribute.Int("resume.file_bytes", len(fileData)),
		))
	defer span.End()

	if p.Storage == nil || p.Storage.MySQL == nil {
		return nil, fmt.Errorf("上传流水线依赖MySQL存储")
	}
	if p.PDFExtractor == nil {
		return nil, fmt.Errorf("上传流水线依赖PDF提取器")
	}

	rawText, meta, err := p.PDFExtractor.ExtractFromReader(ctx, bytes.NewReader(fileData), filename, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "文本提取失败")
		return nil, fmt.Errorf("提取 %s 的文本失败: %w", filename, err)
	}
	if rawText == "" {
		return nil, fmt.Errorf("文件 %s 中没有可提取的文本", filename)
	}

	textMD5 := md5Hex(rawText)
	rollbackDedupe, err := p.registerRawText(ctx, textMD5)
	if err != nil {
		span.SetAttributes(attribute.Bool("resume.duplicate", true))
		return nil, err
	}
	defer func() {
		if err != nil && rollbackDedupe != nil {
			rollbackDedupe(context.WithoutCancel(ctx))
		}
	}()

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成简历ID失败: %w", err)
	}
	resumeID := uuidV7.String()

	var ossPath string
	if p.Storage.MinIO != nil {
		ext := filepath.Ext(filename)
		ossPath, err = p.Storage.MinIO.UploadResumeFile(ctx, resumeID, ext, bytes.NewReader(fileData), int64(len(fileData)))
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("上传原始文件失败: %w", err)
		}
		if _, terr := p.Storage.MinIO.UploadExtractedText(ctx, resumeID, rawText); terr != nil {
			p.log.Warn().Err(terr).Str("resume_id", resumeID).Msg("上传提取文本失败")
		}
	}

	processed, err := p.ProcessText(ctx, rawText, filename, ProcessOptions{
		Method: types.MethodSectionBased,
	})
	if err != nil {
		return nil, err
	}

	sectionsJSON, err := json.Marshal(processed.Parsed)
	if err != nil {
		return nil, fmt.Errorf("序列化章节解析结果失败: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	resume := &models.Resume{
		ResumeID:         resumeID,
		ProjectID:        projectID,
		Filename:         filename,
		FilePathOSS:      ossPath,
		ExtractedText:    rawText,
		CleanedText:      processed.CleanedText,
		RawSectionsJSON:  datatypes.JSON(sectionsJSON),
		RawTextMD5:       textMD5,
		FileMetadata:     datatypes.JSON(metaJSON),
		ParserVersion:    p.Settings.ParserVersion,
		ProcessingStatus: constants.ResumeStatusPending,
	}
	if err = p.Storage.MySQL.CreateResume(ctx, resume); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("写入简历记录失败: %w", err)
	}

	result = &UploadResult{
		ResumeID:  resumeID,
		FilePath:  ossPath,
		TextChars: len(rawText),
	}

	if p.Embedder != nil {
		if eerr := p.embedAndStore(ctx, resumeID, processed.CleanedText); eerr != nil {
			// 向量化失败不回滚已落库的简历，标记状态等待重试
			p.log.Error().Err(eerr).Str("resume_id", resumeID).Msg("简历向量化失败")
			p.updateResumeStatus(ctx, resumeID, constants.ResumeStatusFailed)
		} else {
			result.Embedded = true
			p.updateResumeStatus(ctx, resumeID, constants.ResumeStatusCompleted)
		}
	}

	p.log.Info().
		Str("resume_id", resumeID).
		Str("project_id", projectID).
		Str("filename", filename).
		Int("chars", len(rawText)).
		Bool("embedded", result.Embedded).
		Msg("简历上传处理完成")
	return result, nil
}

// embedAndStore 向量化清洗后的文本并写回简历记录，命中缓存时跳过模型调用
func (p *ResumeProcessor) embedAndStore(ctx context.Context, resumeID, cleanedText string) error {
	cleanedMD5 := md5Hex(cleanedText)

	var vector []float64
	if p.Storage.Redis != nil {
		cached, err := p.Storage.Redis.GetCachedEmbedding(ctx, cleanedMD5)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			p.log.Warn().Err(err).Msg("读取向量缓存失败")
		}
		vector = cached
	}

	if vector == nil {
		fresh, err := p.Embedder.EmbedText(ctx, cleanedText)
		if err != nil {
			return fmt.Errorf("调用嵌入服务失败: %w", err)
		}
		vector = fresh
		if p.Storage.Redis != nil {
			if cerr := p.Storage.Redis.CacheEmbedding(ctx, cleanedMD5, vector); cerr != nil {
				p.log.Warn().Err(cerr).Msg("写入向量缓存失败")
			}
		}
	}

	return p.Storage.MySQL.UpdateResumeFields(ctx, resumeID, map[string]interface{}{
		"embedding": embedding.EncodeVector(vector),
	})
}

func (p *ResumeProcessor) updateResumeStatus(ctx context.Context, resumeID, status string) {
	if err := p.Storage.MySQL.UpdateResumeFields(ctx, resumeID, map[string]interface{}{
		"processing_status": status,
	}); err != nil {
		p.log.Error().Err(err).Str("resume_id", resumeID).Msg("更新简历状态失败")
	}
}

// EmbedPositions 为项目内尚未向量化的岗位生成向量
// 岗位文本取embedding_columns指定字段拼接后的内容
func (p *ResumeProcessor) EmbedPositions(ctx context.Context, projectID string) (int, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.EmbedPositions",
		trace.WithAttributes(attribute.String("project.id", projectID)))
	defer span.End()

	if p.Storage == nil || p.Storage.MySQL == nil || p.Embedder == nil {
		return 0, fmt.Errorf("岗位向量化依赖MySQL存储与嵌入服务")
	}

	positions, err := p.Storage.MySQL.ListPositions(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("查询岗位失败: %w", err)
	}

	embedded := 0
	for _, pos := range positions {
		if len(pos.Embedding) > 0 {
			continue
		}
		text, terr := PositionEmbeddingText(&pos)
		if terr != nil {
			p.log.Warn().Err(terr).Str("position_id", pos.PositionID).Msg("构造岗位向量化文本失败，跳过")
			continue
		}
		if text == "" {
			continue
		}
		vector, eerr := p.Embedder.EmbedText(ctx, text)
		if eerr != nil {
			span.RecordError(eerr)
			return embedded, fmt.Errorf("岗位 %s 向量化失败: %w", pos.PositionID, eerr)
		}
		if uerr := p.Storage.MySQL.UpdatePositionEmbedding(ctx, pos.PositionID, embedding.EncodeVector(vector)); uerr != nil {
			return embedded, fmt.Errorf("写入岗位向量失败: %w", uerr)
		}
		embedded++
	}

	span.SetAttributes(attribute.Int("positions.embedded", embedded))
	return embedded, nil
}

// EnqueueMatchJob 创建匹配任务记录并通过发件箱投递
// 任务记录与消息在同一事务写入，投递由消息中继异步完成
func (p *ResumeProcessor) EnqueueMatchJob(ctx context.Context, projectID string) (string, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.EnqueueMatchJob",
		trace.WithAttributes(attribute.String("project.id", projectID)))
	defer span.End()

	if p.Storage == nil || p.Storage.MySQL == nil {
		return "", fmt.Errorf("匹配任务投递依赖MySQL存储")
	}
	if p.MatchQueueName() == "" {
		return "", fmt.Errorf("匹配队列未配置")
	}

	jobID := googleuuid.New().String()
	job := &models.ProcessingJob{
		JobID:     jobID,
		ProjectID: projectID,
		Status:    constants.JobStatusPending,
	}

	payload, err := json.Marshal(storage.MatchJobMessage{JobID: jobID, ProjectID: projectID})
	if err != nil {
		return "", fmt.Errorf("序列化匹配任务消息失败: %w", err)
	}

	if err := p.Storage.MySQL.CreateProcessingJobWithOutbox(ctx, job, p.MatchQueueName(), payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "创建匹配任务失败")
		return "", fmt.Errorf("创建匹配任务记录失败: %w", err)
	}

	p.log.Info().Str("job_id", jobID).Str("project_id", projectID).Msg("匹配任务已写入发件箱")
	return jobID, nil
}

// MatchQueueName 匹配任务投递的目标队列名
func (p *ResumeProcessor) MatchQueueName() string {
	return p.Settings.MatchQueue
}

func md5Hex(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
