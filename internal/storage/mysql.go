package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-match-go/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin 向GORM操作注入OpenTelemetry追踪span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 为各类CRUD操作注册前后回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after())
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.String("db.statement", tracing.SafeSQL(db.Statement.SQL.String())),
		)

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 未命中是业务常态，不算错误
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

// MySQL 关系数据库访问层
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 建立MySQL连接并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	default:
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("MySQL连接就绪")
	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	return m.db.AutoMigrate(
		&models.Project{},
		&models.Position{},
		&models.Resume{},
		&models.Match{},
		&models.ProcessingJob{},
		&models.OutboxMessage{},
	)
}

// DB 返回底层GORM实例，供需要自定义查询或事务的调用方使用
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateProject 新建项目
func (m *MySQL) CreateProject(ctx context.Context, project *models.Project) error {
	return m.db.WithContext(ctx).Create(project).Error
}

// GetProject 按ID查询项目，不存在时返回gorm.ErrRecordNotFound
func (m *MySQL) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	if err := m.db.WithContext(ctx).First(&project, "project_id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects 按创建时间倒序返回全部项目
func (m *MySQL) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := m.db.WithContext(ctx).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// DeleteProject 删除项目及其级联数据
func (m *MySQL) DeleteProject(ctx context.Context, projectID string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Match{}, &models.ProcessingJob{}, &models.Position{}, &models.Resume{},
		} {
			if err := tx.Where("project_id = ?", projectID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Project{}, "project_id = ?", projectID).Error
	})
}

// BatchInsertPositions 批量写入岗位，冲突时跳过
func (m *MySQL) BatchInsertPositions(ctx context.Context, positions []models.Position) error {
	if len(positions) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(positions, 100).Error
}

// ListPositions 返回项目下全部岗位
func (m *MySQL) ListPositions(ctx context.Context, projectID string) ([]models.Position, error) {
	var positions []models.Position
	err := m.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&positions).Error
	return positions, err
}

// UpdatePositionEmbedding 回填岗位向量
func (m *MySQL) UpdatePositionEmbedding(ctx context.Context, positionID string, embedding []byte) error {
	return m.db.WithContext(ctx).Model(&models.Position{}).
		Where("position_id = ?", positionID).
		Update("embedding", embedding).Error
}

// CreateResume 写入单条简历记录
func (m *MySQL) CreateResume(ctx context.Context, resume *models.Resume) error {
	return m.db.WithContext(ctx).Create(resume).Error
}

// GetResume 按ID查询简历
func (m *MySQL) GetResume(ctx context.Context, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	if err := m.db.WithContext(ctx).First(&resume, "resume_id = ?", resumeID).Error; err != nil {
		return nil, err
	}
	return &resume, nil
}

// ListResumes 返回项目下全部简历
func (m *MySQL) ListResumes(ctx context.Context, projectID string) ([]models.Resume, error) {
	var resumes []models.Resume
	err := m.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("created_at ASC").Find(&resumes).Error
	return resumes, err
}

// ListResumesWithEmbeddings 返回已生成向量的简历，供匹配计算使用
func (m *MySQL) ListResumesWithEmbeddings(ctx context.Context, projectID string) ([]models.Resume, error) {
	var resumes []models.Resume
	err := m.db.WithContext(ctx).
		Where("project_id = ? AND embedding IS NOT NULL", projectID).
		Find(&resumes).Error
	return resumes, err
}

// UpdateResumeFields 按字段名批量更新简历记录
func (m *MySQL) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Model(&models.Resume{}).
		Where("resume_id = ?", resumeID).
		Updates(updates).Error
}

// ReplaceProjectMatches 以事务整体替换项目的匹配结果
func (m *MySQL) ReplaceProjectMatches(ctx context.Context, projectID string, matches []models.Match) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Match{}).Error; err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		return tx.CreateInBatches(matches, 200).Error
	})
}

// TopMatchesForPosition 返回岗位下相似度最高的前N条匹配
func (m *MySQL) TopMatchesForPosition(ctx context.Context, positionID string, limit int) ([]models.Match, error) {
	var matches []models.Match
	err := m.db.WithContext(ctx).
		Where("position_id = ?", positionID).
		Order("similarity_score DESC").
		Limit(limit).
		Preload("Resume").
		Find(&matches).Error
	return matches, err
}

// CreateProcessingJob 新建异步处理任务
func (m *MySQL) CreateProcessingJob(ctx context.Context, job *models.ProcessingJob) error {
	return m.db.WithContext(ctx).Create(job).Error
}

// CreateProcessingJobWithOutbox 同一事务内写入任务记录与发件箱消息
// 消息由中继异步投递，保证任务落库与消息投递不会只发生其一
func (m *MySQL) CreateProcessingJobWithOutbox(ctx context.Context, job *models.ProcessingJob, queueName string, payload []byte) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		outboxMsg := &models.OutboxMessage{
			QueueName: queueName,
			Payload:   string(payload),
			Status:    "PENDING",
		}
		return tx.Create(outboxMsg).Error
	})
}

// GetProcessingJob 查询处理任务
func (m *MySQL) GetProcessingJob(ctx context.Context, jobID string) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	if err := m.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateProcessingJob 更新处理任务的状态与进度
func (m *MySQL) UpdateProcessingJob(ctx context.Context, jobID string, updates map[string]interface{}) error {
	return m.db.WithContext(ctx).Model(&models.ProcessingJob{}).
		Where("job_id = ?", jobID).
		Updates(updates).Error
}
