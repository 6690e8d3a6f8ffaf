package processor

import (
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
)

// ComponentOpt 组件选项，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// WithSectionParser 设置章节解析器组件
func WithSectionParser(sp *parser.SectionParser) ComponentOpt {
	return func(c *Components) {
		c.SectionParser = sp
	}
}

// WithTextCleaner 设置文本清洗器组件
func WithTextCleaner(tc *parser.TextCleaner) ComponentOpt {
	return func(c *Components) {
		c.TextCleaner = tc
	}
}

// WithPDFExtractor 设置PDF提取器组件
func WithPDFExtractor(e *extractor.PDFExtractor) ComponentOpt {
	return func(c *Components) {
		c.PDFExtractor = e
	}
}

// WithEmbedder 设置文本嵌入客户端
func WithEmbedder(client *embedding.Client) ComponentOpt {
	return func(c *Components) {
		c.Embedder = client
	}
}

// WithStorage 设置聚合存储服务
func WithStorage(s *storage.Storage) ComponentOpt {
	return func(c *Components) {
		c.Storage = s
	}
}

// WithDefaultIntensity 设置默认清洗强度
func WithDefaultIntensity(intensity types.CleaningIntensity) SettingOpt {
	return func(s *Settings) {
		s.DefaultIntensity = intensity
	}
}

// WithDefaultMaxTokens 设置默认token预算
func WithDefaultMaxTokens(maxTokens int) SettingOpt {
	return func(s *Settings) {
		s.DefaultMaxTokens = maxTokens
	}
}

// WithParserVersion 设置写入简历记录的解析器版本号
func WithParserVersion(version string) SettingOpt {
	return func(s *Settings) {
		s.ParserVersion = version
	}
}

// WithMatchQueue 设置匹配任务投递的队列名
func WithMatchQueue(queueName string) SettingOpt {
	return func(s *Settings) {
		s.MatchQueue = queueName
	}
}
