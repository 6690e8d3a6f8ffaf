package parser

import (
	"path/filepath"
	"regexp"
	"strings"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/logger"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// 姓名脱敏相关阈值
const (
	// 整行与候选姓名相似度达到该值时整行删除
	nameLineThreshold = 80
	// 单词级模糊匹配的替换阈值
	nameWordThreshold = 85
	// 行内去掉占位符后剩余内容少于该字符数时整行删除
	minResidualChars = 5
)

// 文件名中常见的简历关键词与近几年年份，提取姓名前先剔除
var resumeKeywords = []string{
	"resume", "cv", "curriculum", "vitae", "updated", "final", "latest", "new", "current",
	"2024", "2023", "2025",
}

// 不可能是姓名的词
var nonNameWords = map[string]bool{
	"doc": true, "pdf": true, "file": true, "document": true, "copy": true,
	"version": true, "v1": true, "v2": true, "v3": true, "final": true, "draft": true,
}

var (
	separatorRun   = regexp.MustCompile(`[_\-\.\s]+`)
	versionMarker  = regexp.MustCompile(`^v\d+$`)
	digitsOnly     = regexp.MustCompile(`^\d+$`)
	nonWordChars   = regexp.MustCompile(`\W`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	repeatedTokens = regexp.MustCompile(`\[NAME_REMOVED\](\s*\[NAME_REMOVED\])+`)
)

// ExtractNameCandidates 从文件名推导候选姓名字符串
// 文件名常见形态如 "Senior_Software_Engineer_-_John_Smith.pdf"，
// 取 "_-_" 最后一段并剔除简历关键词后，用剩余词元组合出候选姓名
func ExtractNameCandidates(filename string) []string {
	if filename == "" {
		return nil
	}

	// 去掉扩展名
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	// 取最后一个 "_-_" 之后的部分
	if strings.Contains(stem, "_-_") {
		parts := strings.Split(stem, "_-_")
		stem = parts[len(parts)-1]
	}

	// 按整词剔除简历关键词（下划线是\w字符，紧贴下划线的关键词不会被剔除，
	// 与既有行为保持一致）
	for _, kw := range resumeKeywords {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		stem = re.ReplaceAllString(stem, "")
	}

	// 统一分隔符为单个空格
	stem = strings.TrimSpace(separatorRun.ReplaceAllString(stem, " "))

	// 过滤出可能的姓名词元
	var components []string
	for _, comp := range strings.Fields(stem) {
		if len(comp) < 2 {
			continue
		}
		lower := strings.ToLower(comp)
		if digitsOnly.MatchString(comp) || nonNameWords[lower] || versionMarker.MatchString(lower) {
			continue
		}
		components = append(components, comp)
	}

	// 生成候选组合：单个词元、首+末、全部、首+次+末
	var candidates []string
	if len(components) > 0 {
		candidates = append(candidates, components...)
		if len(components) >= 2 {
			candidates = append(candidates, components[0]+" "+components[len(components)-1])
			candidates = append(candidates, strings.Join(components, " "))
			if len(components) >= 3 {
				candidates = append(candidates, components[0]+" "+components[1]+" "+components[len(components)-1])
			}
		}
	}

	// 过滤过短或过长的候选
	final := candidates[:0]
	for _, name := range candidates {
		if len(name) >= 2 && len(name) <= 50 {
			final = append(final, name)
		}
	}

	if len(final) > 0 {
		logger.Debug().Str("filename", filename).Strs("candidates", final).Msg("从文件名提取到候选姓名")
	}
	return final
}

// RemovePersonName 从内容中移除候选人姓名
// 任何内部错误都降级为返回原始内容，脱敏是尽力而为而非强保证
func RemovePersonName(content string, filename string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("姓名脱敏失败，内容原样返回")
			result = content
		}
	}()

	if content == "" || filename == "" {
		return content
	}

	names := ExtractNameCandidates(filename)
	if len(names) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			kept = append(kept, line)
			continue
		}

		// 整行主要是姓名时直接删除
		dropLine := false
		for _, name := range names {
			if fuzzy.Ratio(strings.ToUpper(stripped), strings.ToUpper(name)) >= nameLineThreshold {
				dropLine = true
				removed++
				break
			}
		}
		if dropLine {
			continue
		}

		// 行内替换姓名出现处
		modified := stripped
		for _, name := range names {
			// 完整姓名的整词匹配（大小写不敏感）
			namePattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
			modified = namePattern.ReplaceAllString(modified, constants.NameRemovedToken)

			// 多词姓名再对单个词做模糊匹配，词长至少3避免误伤
			nameWords := strings.Fields(name)
			if len(nameWords) > 1 {
				for _, word := range nameWords {
					if len(word) < 3 {
						continue
					}
					lineWords := strings.Fields(modified)
					newWords := make([]string, 0, len(lineWords))
					for _, lineWord := range lineWords {
						clean := nonWordChars.ReplaceAllString(lineWord, "")
						if len(clean) >= 3 && fuzzy.Ratio(strings.ToUpper(clean), strings.ToUpper(word)) >= nameWordThreshold {
							newWords = append(newWords, constants.NameRemovedToken)
						} else {
							newWords = append(newWords, lineWord)
						}
					}
					modified = strings.Join(newWords, " ")
				}
			}
		}

		// 连续占位符坍缩为一个并收敛空白
		modified = repeatedTokens.ReplaceAllString(modified, constants.NameRemovedToken)
		modified = strings.TrimSpace(whitespaceRun.ReplaceAllString(modified, " "))

		// 去掉占位符后没有实质内容的行整行删除
		residual := strings.TrimSpace(strings.ReplaceAll(modified, constants.NameRemovedToken, ""))
		if modified != "" && modified != constants.NameRemovedToken && len(residual) > minResidualChars {
			kept = append(kept, modified)
		} else if stripped != modified {
			removed++
		}
	}

	if removed > 0 {
		logger.Debug().Int("removed", removed).Msg("姓名脱敏删除或改写了若干行")
	}
	return strings.Join(kept, "\n")
}
