package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

var tracer = otel.Tracer("resume-match-go/matcher")

// MatchResult 一次全量匹配计算的汇总
type MatchResult struct {
	PositionsProcessed int `json:"positions_processed"`
	ResumesProcessed   int `json:"resumes_processed"`
	MatchesCreated     int `json:"matches_created"`
}

// Matcher 岗位与简历的相似度匹配器
// 对项目内所有带向量的岗位和简历做两两余弦相似度计算，并按岗位排名落库
type Matcher struct {
	storage *storage.Storage
	log     zerolog.Logger
}

// NewMatcher 创建匹配器实例
func NewMatcher(s *storage.Storage) (*Matcher, error) {
	if s == nil || s.MySQL == nil {
		return nil, fmt.Errorf("匹配器依赖MySQL存储，不能为空")
	}
	return &Matcher{
		storage: s,
		log:     logger.Component("matcher"),
	}, nil
}

// CalculateMatches 计算项目内全部岗位×简历的相似度并重建匹配记录
// 旧的匹配结果会被整体替换，排名从1开始按相似度降序分配
func (m *Matcher) CalculateMatches(ctx context.Context, projectID string) (*MatchResult, error) {
	ctx, span := tracer.Start(ctx, "Matcher.CalculateMatches",
		trace.WithAttributes(attribute.String("project.id", projectID)))
	defer span.End()

	allPositions, err := m.storage.MySQL.ListPositions(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "查询岗位失败")
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}

	positions := make([]models.Position, 0, len(allPositions))
	for _, p := range allPositions {
		if len(p.Embedding) > 0 {
			positions = append(positions, p)
		}
	}

	resumes, err := m.storage.MySQL.ListResumesWithEmbeddings(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "查询简历失败")
		return nil, fmt.Errorf("查询简历失败: %w", err)
	}

	if len(positions) == 0 || len(resumes) == 0 {
		err := fmt.Errorf("项目 %s 中没有带向量的岗位或简历", projectID)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resumeVectors := make([][]float64, len(resumes))
	for i, r := range resumes {
		vec, err := embedding.DecodeVector(r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("解码简历 %s 的向量失败: %w", r.ResumeID, err)
		}
		resumeVectors[i] = vec
	}

	matches := make([]models.Match, 0, len(positions)*len(resumes))
	for _, position := range positions {
		posVec, err := embedding.DecodeVector(position.Embedding)
		if err != nil {
			return nil, fmt.Errorf("解码岗位 %s 的向量失败: %w", position.PositionID, err)
		}

		ranked := rankByCosine(posVec, resumeVectors)
		for rank, idx := range ranked {
			matches = append(matches, models.Match{
				ProjectID:       projectID,
				PositionID:      position.PositionID,
				ResumeID:        resumes[idx.Index].ResumeID,
				SimilarityScore: idx.Similarity,
				Rank:            rank + 1,
			})
		}
	}

	if err := m.storage.MySQL.ReplaceProjectMatches(ctx, projectID, matches); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "写入匹配结果失败")
		return nil, fmt.Errorf("写入匹配结果失败: %w", err)
	}

	result := &MatchResult{
		PositionsProcessed: len(positions),
		ResumesProcessed:   len(resumes),
		MatchesCreated:     len(matches),
	}

	span.SetAttributes(
		attribute.Int("match.positions", result.PositionsProcessed),
		attribute.Int("match.resumes", result.ResumesProcessed),
		attribute.Int("match.created", result.MatchesCreated),
	)
	m.log.Info().
		Str("project_id", projectID).
		Int("positions", result.PositionsProcessed).
		Int("resumes", result.ResumesProcessed).
		Int("matches", result.MatchesCreated).
		Msg("匹配计算完成")
	return result, nil
}

// scoredIndex 一条简历在某岗位下的相似度得分
type scoredIndex struct {
	Index      int
	Similarity float64
}

// rankByCosine 计算岗位向量与所有简历向量的余弦相似度并降序排序
// 返回的切片下标即名次减一，相同得分保持原有顺序
func rankByCosine(positionVec []float64, resumeVecs [][]float64) []scoredIndex {
	scored := make([]scoredIndex, len(resumeVecs))
	for i, vec := range resumeVecs {
		scored[i] = scoredIndex{
			Index:      i,
			Similarity: embedding.CosineSimilarity(positionVec, vec),
		}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Similarity > scored[b].Similarity
	})
	return scored
}

// TopMatches 查询某岗位下排名靠前的匹配结果
func (m *Matcher) TopMatches(ctx context.Context, positionID string, limit int) ([]types.RankedMatch, error) {
	ctx, span := tracer.Start(ctx, "Matcher.TopMatches",
		trace.WithAttributes(
			attribute.String("position.id", positionID),
			attribute.Int("match.limit", limit),
		))
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	rows, err := m.storage.MySQL.TopMatchesForPosition(ctx, positionID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("查询岗位匹配结果失败: %w", err)
	}

	ranked := make([]types.RankedMatch, 0, len(rows))
	for _, row := range rows {
		rm := types.RankedMatch{
			MatchID:    row.MatchID,
			ResumeID:   row.ResumeID,
			Similarity: row.SimilarityScore,
			Rank:       row.Rank,
		}
		if row.Resume != nil {
			rm.Filename = row.Resume.Filename
		}
		ranked = append(ranked, rm)
	}
	return ranked, nil
}

// HandleMatchJob 消费队列消息的回调，返回值决定消息是否确认
// 处理失败会把任务标记为失败并确认消息，避免坏消息无限重投
func (m *Matcher) HandleMatchJob(body []byte) bool {
	var msg storage.MatchJobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		m.log.Error().Err(err).Str("body", string(body)).Msg("匹配任务消息解析失败，丢弃")
		return true
	}

	ctx, span := tracer.Start(context.Background(), "Matcher.HandleMatchJob",
		trace.WithAttributes(
			attribute.String("job.id", msg.JobID),
			attribute.String("project.id", msg.ProjectID),
		))
	defer span.End()

	now := time.Now()
	if err := m.storage.MySQL.UpdateProcessingJob(ctx, msg.JobID, map[string]interface{}{
		"status":     constants.JobStatusProcessing,
		"progress":   0,
		"started_at": &now,
	}); err != nil {
		m.log.Error().Err(err).Str("job_id", msg.JobID).Msg("更新任务状态失败，重新入队")
		return false
	}

	result, err := m.CalculateMatches(ctx, msg.ProjectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "匹配计算失败")
		m.failJob(ctx, msg.JobID, err)
		return true
	}

	done := time.Now()
	if err := m.storage.MySQL.UpdateProcessingJob(ctx, msg.JobID, map[string]interface{}{
		"status":       constants.JobStatusCompleted,
		"progress":     100,
		"completed_at": &done,
	}); err != nil {
		m.log.Error().Err(err).Str("job_id", msg.JobID).Msg("任务完成状态写入失败")
	}

	m.log.Info().
		Str("job_id", msg.JobID).
		Str("project_id", msg.ProjectID).
		Int("matches", result.MatchesCreated).
		Msg("匹配任务处理完成")
	return true
}

func (m *Matcher) failJob(ctx context.Context, jobID string, cause error) {
	done := time.Now()
	updates := map[string]interface{}{
		"status":        constants.JobStatusFailed,
		"error_message": cause.Error(),
		"completed_at":  &done,
	}
	if err := m.storage.MySQL.UpdateProcessingJob(ctx, jobID, updates); err != nil {
		m.log.Error().Err(err).Str("job_id", jobID).Msg("任务失败状态写入失败")
	}
	m.log.Error().Err(cause).Str("job_id", jobID).Msg("匹配任务失败")
}
