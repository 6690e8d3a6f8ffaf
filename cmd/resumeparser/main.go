// resumeparser 离线解析工具
// 对单个简历文件执行提取、清洗、章节解析，并以JSON输出结果
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/types"
)

var (
	filePath      = pflag.StringP("file", "f", "", "简历文件路径，支持.pdf和.txt (必填)")
	method        = pflag.StringP("method", "m", "section_based", "解析方式: full_text 或 section_based")
	intensity     = pflag.StringP("intensity", "i", "medium", "清洗强度: light/medium/aggressive")
	maxTokens     = pflag.Int("max-tokens", 0, "token预算，0表示不截断")
	structured    = pflag.Bool("structured", false, "输出结构化字段而非原始章节内容")
	filterStrings = pflag.String("filter-strings", "", "过滤短语文件路径")
	logLevel      = pflag.String("log-level", "warn", "日志级别")
)

func main() {
	pflag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "必须通过 --file 指定简历文件")
		pflag.Usage()
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: *logLevel, Format: "pretty"})
	ctx := context.Background()

	rawText, err := extractText(ctx, *filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "提取文本失败: %v\n", err)
		os.Exit(1)
	}

	filters, err := parser.LoadFilterStrings(*filterStrings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载过滤短语失败: %v\n", err)
		os.Exit(1)
	}

	proc := processor.NewResumeProcessor(
		[]processor.ComponentOpt{
			processor.WithSectionParser(parser.NewSectionParser(filters)),
		},
		nil,
	)

	result, err := proc.ProcessText(ctx, rawText, filepath.Base(*filePath), processor.ProcessOptions{
		Method:     types.ParsingMethod(*method),
		Intensity:  types.CleaningIntensity(*intensity),
		MaxTokens:  *maxTokens,
		Structured: *structured,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "处理失败: %v\n", err)
		os.Exit(1)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "序列化结果失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

// extractText 按扩展名选择提取方式，纯文本文件直接读取
func extractText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	pdfExtractor, err := extractor.NewPDFExtractor(ctx)
	if err != nil {
		return "", fmt.Errorf("初始化PDF提取器失败: %w", err)
	}
	text, _, err := pdfExtractor.ExtractFromFile(ctx, path)
	return text, err
}
