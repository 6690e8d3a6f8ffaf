package parser

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

func TestCleanTextNormalizesUnicode(t *testing.T) {
	c := NewTextCleaner()

	result := c.CleanText("“quoted” text – with dash … and more", types.CleaningLight)
	assert.Contains(t, result, `"quoted"`, "智能引号应转成普通引号")
	assert.Contains(t, result, "- with dash", "长短横线应转成连字符")
	assert.Contains(t, result, "...", "省略号应转成三个点")
}

func TestCleanTextRemovesNoise(t *testing.T) {
	c := NewTextCleaner()

	text := "Solid backend engineer\nReferences available upon request\nPage 2 of 3\n-------\nShipped search features"
	result := c.CleanText(text, types.CleaningLight)

	assert.NotContains(t, result, "References available", "套话应被删除")
	assert.NotContains(t, result, "Page 2", "页码应被删除")
	assert.NotContains(t, result, "-------", "分隔线应被删除")
	assert.Contains(t, result, "Solid backend engineer", "正常内容应保留")
	assert.Contains(t, result, "Shipped search features")
}

func TestCleanTextPreservesParagraphs(t *testing.T) {
	c := NewTextCleaner()

	result := c.CleanText("first paragraph body\n\nsecond paragraph body", types.CleaningLight)
	assert.Contains(t, result, "\n\n", "段落边界应在清洗后保留")
}

func TestCleanTextMediumDedupesLines(t *testing.T) {
	c := NewTextCleaner()

	line := "Implemented caching layer reducing load by 40 percent"
	text := line + "\n" + line + "\nImplemented caching layer reducing load by 70 percent"
	result := c.CleanText(text, types.CleaningMedium)

	assert.Equal(t, 1, strings.Count(result, "Implemented caching layer"),
		"数字归一化后重复的行应只保留一条")
}

func TestCleanTextMediumRemovesLowValueSections(t *testing.T) {
	c := NewTextCleaner()

	text := "Interests: painting and chess\n\nDELIVERY\nbuilt things that matter in production"
	result := c.CleanText(text, types.CleaningMedium)

	assert.NotContains(t, result, "painting", "低价值小节内容应被删除")
	assert.Contains(t, result, "built things that matter", "其余内容应保留")
}

func TestCleanTextAggressive(t *testing.T) {
	c := NewTextCleaner()

	oldYear := "2012"
	recentYear := time.Now().AddDate(-1, 0, 0).Format("2006")
	text := "Address 12 Main Street\nDelivered migrations in " + oldYear + " and " + recentYear

	result := c.CleanText(text, types.CleaningAggressive)
	assert.NotContains(t, result, "Main Street", "联系方式行应整行删除")
	assert.NotContains(t, result, oldYear, "5年以前的年份应被去掉")
	assert.Contains(t, result, recentYear, "近期年份应保留")
}

func TestCleanTextEmptyInput(t *testing.T) {
	c := NewTextCleaner()

	assert.Equal(t, "", c.CleanText("", types.CleaningMedium))
}

func TestEstimateTokens(t *testing.T) {
	c := NewTextCleaner()

	assert.Equal(t, 0, c.EstimateTokens(""))
	assert.Equal(t, 2, c.EstimateTokens("12345678"), "约4个字符算一个token")
}

func TestTruncateToTokenLimitUnderBudget(t *testing.T) {
	c := NewTextCleaner()

	text := "short text"
	assert.Equal(t, text, c.TruncateToTokenLimit(text, 100), "预算内的文本原样返回")
}

func TestTruncateToTokenLimitZeroMeansNoTruncation(t *testing.T) {
	c := NewTextCleaner()

	text := strings.Repeat("resume content spanning many tokens ", 20)
	assert.Equal(t, text, c.TruncateToTokenLimit(text, 0), "预算为0表示不截断")
	assert.Equal(t, text, c.TruncateToTokenLimit(text, -1), "负预算同样不截断")
}

func TestTruncateToTokenLimitKeepsRuneBoundary(t *testing.T) {
	c := NewTextCleaner()

	// 中文段落全部是多字节字符，截断不能切在字符中间
	text := strings.Repeat("资深后端工程师，负责python服务与docker部署。", 30)
	result := c.TruncateToTokenLimit(text, 60)

	assert.True(t, utf8.ValidString(result), "截断结果必须是合法的UTF-8")
}

func TestTruncateToTokenLimitPrefersKeywordParagraphs(t *testing.T) {
	c := NewTextCleaner()

	filler := strings.Repeat("plain unremarkable filler content without notable terms ", 10)
	valuable := "Developed python services with docker and kubernetes on aws infrastructure"
	text := filler + "\n\n" + valuable + "\n\n" + filler

	maxTokens := (len(valuable) + 40) / 4
	result := c.TruncateToTokenLimit(text, maxTokens)

	assert.Contains(t, result, valuable, "高价值关键词段落应优先保留")
	assert.LessOrEqual(t, c.EstimateTokens(result), maxTokens, "截断结果不应超出token预算")
}

func TestCleanAndOptimizeIdempotent(t *testing.T) {
	c := NewTextCleaner()

	text := "SUMMARY\nBuilt resilient APIs, owned deployments\n\nSKILLS: Python | Docker\n\n" +
		"EXPERIENCE\nManaged releases for 12 services\nManaged releases for 30 services\n"

	once := c.CleanAndOptimize(text, types.CleaningMedium, 2000)
	twice := c.CleanAndOptimize(once, types.CleaningMedium, 2000)

	require.NotEmpty(t, once)
	assert.LessOrEqual(t, len(once)-len(twice), 3, "重复清洗不应持续压缩内容")
}
