package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"
)

// 估算 token 数时每个 token 约等于4个字符
const charsPerToken = 4

// 截断时剩余预算不足该字符数就不再塞入不完整段落
const minPartialParagraphChars = 100

// 简历文本中的常见噪声，清洗时整体删除
var noisePatterns = []*regexp.Regexp{
	// 页码
	regexp.MustCompile(`(?im)\bpage\s+\d+\b`),
	regexp.MustCompile(`(?im)\bpage\s+\d+\s+of\s+\d+\b`),
	regexp.MustCompile(`(?m)^\d+\s*$`),

	// 页眉页脚套话
	regexp.MustCompile(`(?i)confidential\s*resume`),
	regexp.MustCompile(`(?i)references\s+available\s+upon\s+request`),
	regexp.MustCompile(`(?i)references\s+furnished\s+upon\s+request`),
	regexp.MustCompile(`(?i)resume\s+of\s+`),

	// 联系方式
	regexp.MustCompile(`(?i)phone\s*:?\s*\(?(\d{3})\)?\s*[-.]?\s*(\d{3})\s*[-.]?\s*(\d{4})`),
	regexp.MustCompile(`(?i)email\s*:?\s*[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`(?i)linkedin\s*:?\s*linkedin\.com/in/[\w-]+`),

	// 重复的分隔符
	regexp.MustCompile(`[-_=]{3,}`),
	regexp.MustCompile(`[•·]{2,}`),
	regexp.MustCompile(`\*{2,}`),

	// 空的项目符号行
	regexp.MustCompile(`(?m)^\s*[-•·]\s*$`),
}

// 低价值小节，medium 及以上强度时连同节身一起删除
var lowValueSections = []string{
	"objective", "career objective", "professional objective",
	"references", "reference", "personal references",
	"hobbies", "interests", "personal interests",
	"activities", "extracurricular activities",
}

// 高价值关键词，截断与压缩时用来给内容打分
var highValueKeywords = []string{
	// 技术技能
	"python", "java", "javascript", "react", "angular", "vue",
	"aws", "azure", "gcp", "docker", "kubernetes", "git",
	"sql", "nosql", "mongodb", "postgresql", "mysql",
	"machine learning", "ai", "data science", "analytics",

	// 职业动词
	"managed", "led", "developed", "implemented", "designed",
	"improved", "optimized", "created", "built", "delivered",
	"achieved", "increased", "reduced", "streamlined",

	// 教育与认证
	"degree", "bachelor", "master", "phd", "certification",
	"certified", "license", "accredited",
}

var (
	smartQuotes    = regexp.MustCompile("[“”‘’´]")
	dashVariants   = regexp.MustCompile(`[–—]`)
	ellipsisChar   = regexp.MustCompile(`…`)
	zeroWidthChars = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")

	spaceRun       = regexp.MustCompile(`[ \t]+`)
	tripleNewlines = regexp.MustCompile(`\n[ \t]*\n[ \t]*\n+`)
	blankLineRun   = regexp.MustCompile(`\n[ \t]*\n[ \t]*\n*`)
	pipeSpacing    = regexp.MustCompile(`[ \t]*\|[ \t]*`)
	commaSpacing   = regexp.MustCompile(`[ \t]*,[ \t]*`)
	colonSpacing   = regexp.MustCompile(`[ \t]*:[ \t]*`)

	lightNoise       = regexp.MustCompile(`(?i)\b(page\s+\d+|confidential)\b`)
	contactLine      = regexp.MustCompile(`(?im)^\s*(?:address|phone|email|linkedin).*$`)
	fourDigitYear    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	digitRun         = regexp.MustCompile(`\d+`)
	stopwords        = regexp.MustCompile(`\b(the|and|or|of|in|at|to|for|with)\b`)
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
)

// TextCleaner 为向量化做准备的文本清洗与压缩管线，与分节解析相互独立
type TextCleaner struct {
	log zerolog.Logger
}

func NewTextCleaner() *TextCleaner {
	return &TextCleaner{log: logger.Component("text_cleaner")}
}

// CleanText 按固定顺序执行清洗：unicode 归一、噪声删除、
// 空白整理、强度相关阶段、收尾整理
func (c *TextCleaner) CleanText(text string, intensity types.CleaningIntensity) string {
	if text == "" {
		return ""
	}
	originalLen := len(text)

	cleaned := normalizeUnicode(text)
	cleaned = removeNoise(cleaned)
	cleaned = normalizeFormatting(cleaned)

	switch intensity {
	case types.CleaningAggressive:
		cleaned = c.aggressiveCleaning(cleaned)
	case types.CleaningMedium:
		cleaned = c.mediumCleaning(cleaned)
	default:
		cleaned = lightNoise.ReplaceAllString(cleaned, "")
	}

	cleaned = finalizeWhitespace(cleaned)

	if originalLen > 0 {
		ratio := float64(originalLen-len(cleaned)) / float64(originalLen) * 100
		c.log.Debug().
			Int("original", originalLen).
			Int("cleaned", len(cleaned)).
			Float64("reduction_pct", ratio).
			Msg("文本清洗完成")
	}
	return cleaned
}

func normalizeUnicode(text string) string {
	text = smartQuotes.ReplaceAllString(text, `"`)
	text = dashVariants.ReplaceAllString(text, "-")
	text = ellipsisChar.ReplaceAllString(text, "...")
	return zeroWidthChars.ReplaceAllString(text, "")
}

func removeNoise(text string) string {
	for _, pattern := range noisePatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return text
}

// normalizeFormatting 整理空白与分隔符，保留换行结构供后续按段落处理
func normalizeFormatting(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = tripleNewlines.ReplaceAllString(text, "\n\n")
	text = pipeSpacing.ReplaceAllString(text, " | ")
	text = commaSpacing.ReplaceAllString(text, ", ")
	text = colonSpacing.ReplaceAllString(text, ": ")
	return trimLines(text)
}

func (c *TextCleaner) mediumCleaning(text string) string {
	text = removeLowValueSections(text)
	return dedupeLines(text)
}

func (c *TextCleaner) aggressiveCleaning(text string) string {
	text = c.mediumCleaning(text)

	// 整行删除联系方式
	text = contactLine.ReplaceAllString(text, "")

	// 去掉5年以前的年份
	cutoff := time.Now().Year() - 5
	text = fourDigitYear.ReplaceAllStringFunc(text, func(m string) string {
		if year, err := strconv.Atoi(m); err == nil && year < cutoff {
			return ""
		}
		return m
	})

	return compressLongParagraphs(text)
}

// removeLowValueSections 删除低价值小节，从小节关键词起到
// 空行、下一个大写开头的行或文本结尾为止
func removeLowValueSections(text string) string {
	lower := strings.ToLower(text)
	for _, section := range lowValueSections {
		for {
			start := indexWholeWord(lower, section)
			if start < 0 {
				break
			}
			end := sectionBodyEnd(text, start+len(section))
			text = text[:start] + text[end:]
			lower = lower[:start] + lower[end:]
		}
	}
	return text
}

// indexWholeWord 返回 needle 在 haystack 中作为整词出现的首个位置
func indexWholeWord(haystack, needle string) int {
	from := 0
	for {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return -1
		}
		idx += from
		beforeOK := idx == 0 || !isWordChar(haystack[idx-1])
		afterIdx := idx + len(needle)
		afterOK := afterIdx >= len(haystack) || !isWordChar(haystack[afterIdx])
		if beforeOK && afterOK {
			return idx
		}
		from = idx + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// sectionBodyEnd 从 from 起找小节内容的结束位置：连续空行处、
// 大写字母开头的新行处或文本末尾
func sectionBodyEnd(text string, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		j := i + 1
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
		if j < len(text) && (text[j] == '\n' || (text[j] >= 'A' && text[j] <= 'Z')) {
			return i
		}
	}
	return len(text)
}

// dedupeLines 去掉归一化后重复的行，短行不参与去重
func dedupeLines(text string) string {
	lines := strings.Split(text, "\n")
	unique := make([]string, 0, len(lines))
	seen := make(map[string]bool)

	for _, line := range lines {
		normalized := digitRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(line)), "NUM")
		normalized = stopwords.ReplaceAllString(normalized, "")

		if len(normalized) < 10 || !seen[normalized] {
			unique = append(unique, line)
			seen[normalized] = true
		}
	}
	return strings.Join(unique, "\n")
}

// compressLongParagraphs 把超长段落压缩为不超过5个关键句
func compressLongParagraphs(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	compressed := make([]string, 0, len(paragraphs))

	for _, paragraph := range paragraphs {
		if len(paragraph) <= 500 {
			compressed = append(compressed, paragraph)
			continue
		}

		var keySentences []string
		for _, sentence := range sentenceBoundary.Split(paragraph, -1) {
			sentence = strings.TrimSpace(sentence)
			if len(sentence) < 20 {
				continue
			}
			if containsHighValueKeyword(sentence) {
				keySentences = append(keySentences, sentence)
			} else if len(keySentences) < 3 {
				keySentences = append(keySentences, sentence)
			}
		}
		if len(keySentences) > 5 {
			keySentences = keySentences[:5]
		}
		compressed = append(compressed, strings.Join(keySentences, ". "))
	}
	return strings.Join(compressed, "\n\n")
}

func containsHighValueKeyword(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, keyword := range highValueKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func finalizeWhitespace(text string) string {
	text = trimLines(text)
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// EstimateTokens 粗略估算 token 数，英文文本约4字符一个 token
func (c *TextCleaner) EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// TruncateToTokenLimit 在超出 token 预算时按段落重要性截断，
// 高价值关键词命中多的段落优先保留
func (c *TextCleaner) TruncateToTokenLimit(text string, maxTokens int) string {
	// maxTokens<=0 表示不截断
	if maxTokens <= 0 || c.EstimateTokens(text) <= maxTokens {
		return text
	}
	targetChars := maxTokens * charsPerToken

	paragraphs := strings.Split(text, "\n\n")
	type scored struct {
		score     int
		paragraph string
	}
	scoredParagraphs := make([]scored, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		lower := strings.ToLower(paragraph)
		score := 0
		for _, keyword := range highValueKeywords {
			if strings.Contains(lower, keyword) {
				score++
			}
		}
		scoredParagraphs = append(scoredParagraphs, scored{score, paragraph})
	}
	sort.SliceStable(scoredParagraphs, func(i, j int) bool {
		return scoredParagraphs[i].score > scoredParagraphs[j].score
	})

	var result []string
	currentLen := 0
	for _, sp := range scoredParagraphs {
		if currentLen+len(sp.paragraph) <= targetChars {
			result = append(result, sp.paragraph)
			currentLen += len(sp.paragraph) + 2
			continue
		}
		if remaining := targetChars - currentLen; remaining > minPartialParagraphChars {
			cut := remaining - 3
			for cut > 0 && !utf8.RuneStart(sp.paragraph[cut]) {
				cut--
			}
			result = append(result, sp.paragraph[:cut]+"...")
		}
		break
	}

	finalText := strings.Join(result, "\n\n")
	c.log.Debug().Int("original", len(text)).Int("truncated", len(finalText)).Msg("文本按 token 预算截断")
	return finalText
}

// CleanAndOptimize 完整的清洗加截断管线，输出可直接用于生成向量
func (c *TextCleaner) CleanAndOptimize(text string, intensity types.CleaningIntensity, maxTokens int) string {
	return c.TruncateToTokenLimit(c.CleanText(text, intensity), maxTokens)
}
