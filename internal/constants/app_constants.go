package constants

import "time"

const (
	// DefaultParserVer 当前章节解析器版本号，写入简历记录
	DefaultParserVer = "1.0"

	// NameRemovedToken 姓名脱敏占位符
	NameRemovedToken = "[NAME_REMOVED]"

	// Redis键（集中定义，避免散落各处）
	RawTextMD5SetKey     = "resumes:text_md5s" // 已处理简历文本MD5集合，用于去重
	EmbeddingCachePrefix = "embedding:"        // 按文本MD5缓存的向量
	EmbeddingCacheTTL    = 24 * time.Hour

	// ProcessingJob状态
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"

	// 简历记录处理状态，对应resumes表processing_status列
	ResumeStatusPending   = "PENDING"
	ResumeStatusCompleted = "COMPLETED"
	ResumeStatusFailed    = "FAILED"
)
