package models

import (
	"time"

	"gorm.io/datatypes"
)

// Project 项目主表，一个项目对应一次批量筛选
type Project struct {
	ProjectID string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Status    string    `gorm:"type:varchar(50);default:'active';index:idx_projects_status"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}

// Position 岗位表，原始表格行以JSON形式保留
type Position struct {
	PositionID       string         `gorm:"type:char(36);primaryKey"`
	ProjectID        string         `gorm:"type:char(36);not null;index:idx_positions_project_id"`
	OriginalData     datatypes.JSON `gorm:"type:json;not null"`
	EmbeddingColumns datatypes.JSON `gorm:"type:json;not null"` // 参与向量化的列名
	OutputColumns    datatypes.JSON `gorm:"type:json;not null"` // 结果展示的列名
	Embedding        []byte         `gorm:"type:mediumblob"`    // 序列化后的向量
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Position) TableName() string {
	return "positions"
}

// Resume 简历表，解析出的7个原始章节与清洗后文本随行存储
type Resume struct {
	ResumeID         string         `gorm:"type:char(36);primaryKey"`
	ProjectID        string         `gorm:"type:char(36);not null;index:idx_resumes_project_id"`
	Filename         string         `gorm:"type:varchar(255);not null"`
	FilePathOSS      string         `gorm:"type:varchar(1024)"` // MinIO中的对象键
	ExtractedText    string         `gorm:"type:mediumtext"`
	CleanedText      string         `gorm:"type:mediumtext"`
	RawSectionsJSON  datatypes.JSON `gorm:"type:json"`
	RawTextMD5       string         `gorm:"type:char(32);index:idx_resumes_raw_text_md5"`
	Embedding        []byte         `gorm:"type:mediumblob"`
	FileMetadata     datatypes.JSON `gorm:"type:json"`
	ParserVersion    string         `gorm:"type:varchar(50)"`
	ProcessingStatus string         `gorm:"type:varchar(50);default:'PENDING';index:idx_resumes_processing_status"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Resume) TableName() string {
	return "resumes"
}

// Match 岗位×简历的相似度匹配结果
type Match struct {
	MatchID         uint64    `gorm:"primaryKey;autoIncrement"`
	ProjectID       string    `gorm:"type:char(36);not null;index:idx_matches_project_id"`
	PositionID      string    `gorm:"type:char(36);not null;index:idx_matches_position_id"`
	ResumeID        string    `gorm:"type:char(36);not null;index:idx_matches_resume_id"`
	SimilarityScore float64   `gorm:"not null"`
	Rank            int       `gorm:"column:rank_in_position"` // 岗位内按相似度的名次，从1起
	CreatedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Project  *Project  `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Position *Position `gorm:"foreignKey:PositionID;references:PositionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Resume   *Resume   `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Match) TableName() string {
	return "matches"
}

// ProcessingJob 异步处理任务表，供前端轮询进度
type ProcessingJob struct {
	JobID        string     `gorm:"type:char(36);primaryKey"`
	ProjectID    string     `gorm:"type:char(36);not null;index:idx_processing_jobs_project_id"`
	Status       string     `gorm:"type:varchar(50);not null"`
	Progress     int        `gorm:"default:0"` // 0-100
	ErrorMessage string     `gorm:"type:text"`
	StartedAt    *time.Time `gorm:"type:datetime(6)"`
	CompletedAt  *time.Time `gorm:"type:datetime(6)"`

	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ProcessingJob) TableName() string {
	return "processing_jobs"
}

// OutboxMessage 发件箱消息，与业务写入同事务落库，由中继轮询投递
type OutboxMessage struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement"`
	QueueName    string     `gorm:"type:varchar(255);not null"`
	Payload      string     `gorm:"type:json;not null"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_outbox_status"`
	RetryCount   int        `gorm:"default:0"`
	ErrorMessage string     `gorm:"type:text"`
	CreatedAt    time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	ProcessedAt  *time.Time `gorm:"type:datetime(6)"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
