package processor

import (
	"encoding/json"
	"fmt"
	"strings"

	"resume-match-go/internal/storage/models"
)

// PositionEmbeddingText 拼接岗位参与向量化的字段文本
// 逐个取embedding_columns里的列名，以"列名: 值"的形式按行拼接
// 没有任何有效列时返回空字符串
func PositionEmbeddingText(pos *models.Position) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(pos.OriginalData, &data); err != nil {
		return "", fmt.Errorf("解析岗位原始数据失败: %w", err)
	}

	var columns []string
	if err := json.Unmarshal(pos.EmbeddingColumns, &columns); err != nil {
		return "", fmt.Errorf("解析岗位向量化列配置失败: %w", err)
	}

	var parts []string
	for _, column := range columns {
		value, ok := data[column]
		if !ok || value == nil {
			continue
		}
		text := strings.TrimSpace(fmt.Sprintf("%v", value))
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", column, text))
	}

	return strings.Join(parts, "\n"), nil
}
