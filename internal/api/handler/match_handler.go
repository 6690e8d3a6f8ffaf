package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
)

// ErrJobNotFound 处理任务不存在
var ErrJobNotFound = errors.New("处理任务不存在")

// MatchHandler 匹配计算与结果查询处理器
type MatchHandler struct {
	storage         *storage.Storage
	processorModule *processor.ResumeProcessor
	matcher         *matcher.Matcher
}

// NewMatchHandler 创建匹配处理器
func NewMatchHandler(s *storage.Storage, p *processor.ResumeProcessor, m *matcher.Matcher) *MatchHandler {
	return &MatchHandler{
		storage:         s,
		processorModule: p,
		matcher:         m,
	}
}

// StartProcessingResponse 匹配任务启动响应
type StartProcessingResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StartProcessing 校验项目数据后投递异步匹配任务
func (h *MatchHandler) StartProcessing(ctx context.Context, projectID string) (*StartProcessingResponse, error) {
	if _, err := h.storage.MySQL.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	positions, err := h.storage.MySQL.ListPositions(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("项目中没有岗位数据")
	}

	resumes, err := h.storage.MySQL.ListResumes(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("查询简历失败: %w", err)
	}
	if len(resumes) == 0 {
		return nil, fmt.Errorf("项目中没有简历数据")
	}

	jobID, err := h.processorModule.EnqueueMatchJob(ctx, projectID)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("job_id", jobID).
		Str("project_id", projectID).
		Int("positions", len(positions)).
		Int("resumes", len(resumes)).
		Msg("匹配任务已启动")
	return &StartProcessingResponse{
		JobID:   jobID,
		Status:  "started",
		Message: fmt.Sprintf("正在计算 %d 个岗位与 %d 份简历的匹配", len(positions), len(resumes)),
	}, nil
}

// JobStatusResponse 任务状态查询响应
type JobStatusResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// JobStatus 轮询处理任务状态
func (h *MatchHandler) JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	job, err := h.storage.MySQL.GetProcessingJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("查询任务状态失败: %w", err)
	}

	return &JobStatusResponse{
		JobID:        job.JobID,
		Status:       job.Status,
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}, nil
}

// TopMatches 查询某岗位下排名靠前的匹配结果
func (h *MatchHandler) TopMatches(ctx context.Context, positionID string, limit int) ([]types.RankedMatch, error) {
	return h.matcher.TopMatches(ctx, positionID, limit)
}
