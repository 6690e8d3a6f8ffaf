package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-match-go/internal/logger"
)

// 单个PDF的解析超时
const extractTimeout = 30 * time.Second

// PDFExtractor 基于 Eino PDF Parser 的简历文本提取器
// 固定不按页切分，整份文档作为一个连续字符串返回
type PDFExtractor struct {
	parser *pdf.PDFParser
	log    zerolog.Logger
}

// NewPDFExtractor 初始化PDF文本提取器
func NewPDFExtractor(ctx context.Context) (*PDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}

	return &PDFExtractor{
		parser: p,
		log:    logger.Component("pdf_extractor"),
	}, nil
}

// ExtractFromFile 从PDF文件路径提取完整文本与元数据
func (e *PDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("打开PDF文件 %s 失败: %w", filePath, err)
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil {
		e.log.Debug().Str("file", filePath).Int64("size_bytes", info.Size()).Msg("开始提取PDF文本")
	}

	return e.ExtractFromReader(ctx, file, filePath, map[string]interface{}{
		"source_file_path": filePath,
	})
}

// ExtractFromReader 从任意Reader提取PDF文本，uri仅用于日志与错误信息
func (e *PDFExtractor) ExtractFromReader(ctx context.Context, reader io.Reader, uri string, extraMeta map[string]interface{}) (string, map[string]interface{}, error) {
	if extraMeta == nil {
		extraMeta = make(map[string]interface{})
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	startTime := time.Now()
	docs, err := e.parser.Parse(ctx, reader,
		einoparser.WithURI(uri),
		einoparser.WithExtraMeta(extraMeta),
	)
	duration := time.Since(startTime)

	if err != nil {
		e.log.Error().Err(err).Str("uri", uri).Dur("duration", duration).Msg("PDF文本提取失败")
		return "", extraMeta, fmt.Errorf("PDF解析失败 (uri=%s): %w", uri, err)
	}
	if len(docs) == 0 {
		return "", extraMeta, fmt.Errorf("PDF解析无结果 (uri=%s)", uri)
	}

	// 理论上 ToPages=false 时只有一个文档，以防万一仍做合并
	var fullText string
	for i, doc := range docs {
		fullText += doc.Content
		if i < len(docs)-1 {
			fullText += "\n\n"
		}
	}

	metadata := make(map[string]interface{})
	if docs[0].MetaData != nil {
		metadata = docs[0].MetaData
	}
	for k, v := range extraMeta {
		metadata[k] = v
	}
	metadata["processing_duration_ms"] = duration.Milliseconds()
	metadata["text_length"] = len(fullText)

	e.log.Info().Str("uri", uri).Int("chars", len(fullText)).Dur("duration", duration).Msg("PDF文本提取完成")
	return fullText, metadata, nil
}
