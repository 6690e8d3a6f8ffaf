package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
)

// ErrProjectNotFound 项目不存在
var ErrProjectNotFound = errors.New("项目不存在")

// ProjectHandler 项目管理处理器
type ProjectHandler struct {
	storage *storage.Storage
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(s *storage.Storage) *ProjectHandler {
	return &ProjectHandler{storage: s}
}

// CreateProject 创建新项目
func (h *ProjectHandler) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("项目名称不能为空")
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成项目ID失败: %w", err)
	}

	project := &models.Project{
		ProjectID: uuidV7.String(),
		Name:      name,
		Status:    "active",
	}
	if err := h.storage.MySQL.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}

	logger.Info().Str("project_id", project.ProjectID).Str("name", name).Msg("项目已创建")
	return project, nil
}

// ListProjects 返回全部项目，按创建时间倒序
func (h *ProjectHandler) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := h.storage.MySQL.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询项目列表失败: %w", err)
	}
	return projects, nil
}

// GetProject 查询单个项目
func (h *ProjectHandler) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := h.storage.MySQL.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	return project, nil
}

// DeleteProject 删除项目及其全部关联数据
func (h *ProjectHandler) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := h.GetProject(ctx, projectID); err != nil {
		return err
	}
	if err := h.storage.MySQL.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("删除项目失败: %w", err)
	}
	logger.Info().Str("project_id", projectID).Msg("项目及关联数据已删除")
	return nil
}
