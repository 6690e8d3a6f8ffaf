package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var handlerTracer = otel.Tracer("resume-match-go/api/handler")

// ResumeHandler 简历与岗位上传处理器，协调处理流水线
type ResumeHandler struct {
	cfg             *config.Config
	storage         *storage.Storage
	processorModule *processor.ResumeProcessor
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(cfg *config.Config, s *storage.Storage, p *processor.ResumeProcessor) *ResumeHandler {
	return &ResumeHandler{
		cfg:             cfg,
		storage:         s,
		processorModule: p,
	}
}

// ResumeUploadResponse 简历上传响应
type ResumeUploadResponse struct {
	ResumeID  string `json:"resume_id,omitempty"`
	Status    string `json:"status"`
	TextChars int    `json:"text_chars,omitempty"`
	Embedded  bool   `json:"embedded,omitempty"`
}

// HandleResumeUpload 处理单份简历上传
// 重复简历不算错误，返回DUPLICATE_SKIPPED状态
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, reader io.Reader, filename, projectID string) (*ResumeUploadResponse, error) {
	ctx, span := handlerTracer.Start(ctx, "ResumeHandler.HandleResumeUpload",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("resume.filename", filename),
		))
	defer span.End()

	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}

	result, err := h.processorModule.ProcessUpload(ctx, projectID, filename, fileBytes)
	if err != nil {
		if errors.Is(err, processor.ErrDuplicateResume) {
			logger.Info().Str("filename", filename).Msg("检测到重复简历，跳过处理")
			return &ResumeUploadResponse{Status: "DUPLICATE_SKIPPED"}, nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	return &ResumeUploadResponse{
		ResumeID:  result.ResumeID,
		Status:    "ACCEPTED",
		TextChars: result.TextChars,
		Embedded:  result.Embedded,
	}, nil
}

// PositionUploadRequest 岗位批量上传请求
// rows来自前端解析后的表格数据，两组列名决定向量化与结果展示的字段
type PositionUploadRequest struct {
	Rows             []map[string]interface{} `json:"rows"`
	EmbeddingColumns []string                 `json:"embedding_columns"`
	OutputColumns    []string                 `json:"output_columns"`
}

// PositionUploadResponse 岗位上传响应
type PositionUploadResponse struct {
	Created  int `json:"created"`
	Embedded int `json:"embedded"`
}

// HandlePositionUpload 批量写入岗位并为其生成向量
func (h *ResumeHandler) HandlePositionUpload(ctx context.Context, projectID string, req *PositionUploadRequest) (*PositionUploadResponse, error) {
	ctx, span := handlerTracer.Start(ctx, "ResumeHandler.HandlePositionUpload",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("positions.count", len(req.Rows)),
		))
	defer span.End()

	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("岗位数据不能为空")
	}
	if len(req.EmbeddingColumns) == 0 {
		return nil, fmt.Errorf("必须至少指定一个向量化列")
	}

	embeddingColsJSON, err := json.Marshal(req.EmbeddingColumns)
	if err != nil {
		return nil, fmt.Errorf("序列化向量化列配置失败: %w", err)
	}
	outputColsJSON, err := json.Marshal(req.OutputColumns)
	if err != nil {
		return nil, fmt.Errorf("序列化展示列配置失败: %w", err)
	}

	positions := make([]models.Position, 0, len(req.Rows))
	for _, row := range req.Rows {
		rowJSON, merr := json.Marshal(row)
		if merr != nil {
			return nil, fmt.Errorf("序列化岗位数据失败: %w", merr)
		}
		uuidV7, uerr := uuid.NewV7()
		if uerr != nil {
			return nil, fmt.Errorf("生成岗位ID失败: %w", uerr)
		}
		positions = append(positions, models.Position{
			PositionID:       uuidV7.String(),
			ProjectID:        projectID,
			OriginalData:     datatypes.JSON(rowJSON),
			EmbeddingColumns: datatypes.JSON(embeddingColsJSON),
			OutputColumns:    datatypes.JSON(outputColsJSON),
		})
	}

	if err := h.storage.MySQL.BatchInsertPositions(ctx, positions); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("写入岗位数据失败: %w", err)
	}

	embedded, err := h.processorModule.EmbedPositions(ctx, projectID)
	if err != nil {
		// 向量化失败不回滚岗位数据，可以稍后重试
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		logger.Error().Err(err).Str("project_id", projectID).Msg("岗位向量化部分失败")
	}

	return &PositionUploadResponse{
		Created:  len(positions),
		Embedded: embedded,
	}, nil
}

// ParsePreviewRequest 同步解析预览请求
type ParsePreviewRequest struct {
	Text       string `json:"text"`
	Filename   string `json:"filename"`
	Method     string `json:"method"`     // full_text 或 section_based，默认section_based
	Intensity  string `json:"intensity"`  // light/medium/aggressive
	MaxTokens  int    `json:"max_tokens"` // 0表示不截断
	Structured bool   `json:"structured"` // 是否做结构化子解析
}

// HandleParsePreview 同步执行清洗与章节解析，不落库
func (h *ResumeHandler) HandleParsePreview(ctx context.Context, req *ParsePreviewRequest) (*types.ProcessResult, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("待解析文本不能为空")
	}

	method := types.ParsingMethod(req.Method)
	if req.Method == "" {
		method = types.MethodSectionBased
	}

	return h.processorModule.ProcessText(ctx, req.Text, req.Filename, processor.ProcessOptions{
		Method:     method,
		Intensity:  types.CleaningIntensity(req.Intensity),
		MaxTokens:  req.MaxTokens,
		Structured: req.Structured,
	})
}

// ListResumes 查询项目下的简历记录
func (h *ResumeHandler) ListResumes(ctx context.Context, projectID string) ([]models.Resume, error) {
	resumes, err := h.storage.MySQL.ListResumes(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("查询简历列表失败: %w", err)
	}
	return resumes, nil
}
