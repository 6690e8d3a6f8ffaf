package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/constants"
)

func TestExtractNameCandidates(t *testing.T) {
	candidates := ExtractNameCandidates("Senior_Software_Engineer_-_John_Smith.pdf")
	require.NotEmpty(t, candidates, "应从文件名提取出候选姓名")

	assert.Contains(t, candidates, "John", "单个词元应作为候选")
	assert.Contains(t, candidates, "Smith")
	assert.Contains(t, candidates, "John Smith", "首末词元组合应作为候选")
}

func TestExtractNameCandidatesStripsKeywords(t *testing.T) {
	candidates := ExtractNameCandidates("John Smith resume.pdf")
	assert.Contains(t, candidates, "John Smith", "简历关键词应被剔除后再组合")
	assert.NotContains(t, candidates, "resume")
}

func TestExtractNameCandidatesNoUsableTokens(t *testing.T) {
	assert.Empty(t, ExtractNameCandidates("resume.pdf"), "纯关键词文件名不应产出候选")
	assert.Empty(t, ExtractNameCandidates(""), "空文件名不应产出候选")
	assert.Empty(t, ExtractNameCandidates("2024 v2.pdf"), "纯数字与版本标记不是姓名")
}

func TestRemovePersonNameDropsNameLine(t *testing.T) {
	content := "John Smith\nBuilt scalable systems."
	result := RemovePersonName(content, "Senior_Software_Engineer_-_John_Smith.pdf")

	assert.NotContains(t, result, "John Smith", "与候选姓名高度相似的整行应删除")
	assert.Contains(t, result, "Built scalable systems.", "无关行应原样保留")
}

func TestRemovePersonNameReplacesInline(t *testing.T) {
	content := "Contact John Smith for project details and delivery records"
	result := RemovePersonName(content, "John_Smith.pdf")

	assert.NotContains(t, result, "John Smith", "行内出现的姓名应被替换")
	assert.Contains(t, result, constants.NameRemovedToken, "替换处应留下占位符")
	assert.Contains(t, result, "project details", "行内其余内容应保留")
}

func TestRemovePersonNameDropsShortResidual(t *testing.T) {
	content := "John S\nDesigned event-driven ingestion pipelines"
	result := RemovePersonName(content, "John_Smith.pdf")

	assert.NotContains(t, result, "John", "替换后剩余内容过短的行应整行删除")
	assert.Contains(t, result, "Designed event-driven ingestion pipelines")
}

func TestRemovePersonNameNoCandidates(t *testing.T) {
	content := "any text at all"
	assert.Equal(t, content, RemovePersonName(content, "resume.pdf"), "无候选姓名时内容不变")
	assert.Equal(t, content, RemovePersonName(content, ""), "无文件名时内容不变")
	assert.Equal(t, "", RemovePersonName("", "John_Smith.pdf"), "空内容直接返回")
}

func TestRemovePersonNameCollapsesRepeatedTokens(t *testing.T) {
	content := "Reviewed by John Smith John Smith during the audit cycle"
	result := RemovePersonName(content, "John_Smith.pdf")

	assert.NotContains(t, result, constants.NameRemovedToken+" "+constants.NameRemovedToken,
		"连续占位符应坍缩为一个")
}
