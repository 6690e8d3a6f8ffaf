package parser

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"resume-match-go/internal/logger"
)

// LoadFilterStrings 从行分隔文件加载过滤短语
// 空行和以#开头的注释行被忽略；path为空时返回空列表（过滤步骤成为空操作）
func LoadFilterStrings(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", path).Msg("过滤短语文件不存在，跳过加载")
			return nil, nil
		}
		return nil, fmt.Errorf("打开过滤短语文件失败: %w", err)
	}
	defer f.Close()

	var filters []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		filters = append(filters, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取过滤短语文件失败: %w", err)
	}

	logger.Info().Int("count", len(filters)).Str("path", path).Msg("过滤短语加载完成")
	return filters, nil
}
