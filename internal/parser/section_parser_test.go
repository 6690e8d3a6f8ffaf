package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

const sampleResumeText = `SUMMARY
Experienced engineer focused on reliable backend systems.

SKILLS
Python
Docker

EXPERIENCE
Senior Engineer
Acme Inc
2020-Present
Built scalable data pipelines for analytics workloads.
`

func TestParseResumeEndToEnd(t *testing.T) {
	p := NewSectionParser(nil)

	result := p.ParseResume(sampleResumeText, "resume.pdf", false)
	require.NotNil(t, result, "解析结果不应为nil")
	require.Equal(t, types.ParseOK, result.Status, "正常输入解析不应失败")
	require.NotNil(t, result.ResumeData, "结构化模式应返回ResumeData")

	assert.Contains(t, result.ResumeData.Summary, "Experienced engineer", "摘要章节内容应被提取")
	assert.Equal(t, []string{"Python", "Docker"}, result.ResumeData.Skills, "技能应按词表顺序返回规范写法")

	require.Len(t, result.ResumeData.PriorExperience, 1, "应解析出一条工作经历")
	exp := result.ResumeData.PriorExperience[0]
	assert.Equal(t, "Senior Engineer", exp.Title, "首行应作为职位")
	assert.Equal(t, "Acme Inc", exp.Company, "带Inc的行应作为公司")
	assert.Equal(t, "2020-Present", exp.Dates, "应识别出日期范围")

	assert.Equal(t, types.ParsingMethodFuzzy, result.Metadata.ParsingMethod)
	assert.Equal(t, "resume.pdf", result.Metadata.Filename)
}

func TestParseResumeRawSections(t *testing.T) {
	p := NewSectionParser(nil)

	result := p.ParseResume(sampleResumeText, "resume.pdf", true)
	require.Equal(t, types.ParseOK, result.Status)
	require.NotNil(t, result.RawSections, "原始章节模式应返回RawSections")
	assert.Nil(t, result.ResumeData, "原始章节模式不应返回结构化字段")

	assert.Contains(t, result.RawSections.Skills, "Python", "技能章节应保留原始文本")
	assert.Contains(t, result.RawSections.PriorExperience, "Acme Inc")
	assert.Equal(t, types.ParsingMethodRawContent, result.Metadata.ParsingMethod)
}

func TestParseResumeNoHeaders(t *testing.T) {
	p := NewSectionParser(nil)

	result := p.ParseResume("just some plain text\nwith no section headers at all", "plain.pdf", true)
	require.Equal(t, types.ParseOK, result.Status, "无标题的文本不是错误")
	require.NotNil(t, result.RawSections)

	for _, target := range types.CanonicalSections {
		assert.Empty(t, result.RawSections.Get(target), "无标题时章节 %s 应为空", target)
	}
	assert.Empty(t, result.DetectedSections, "不应检测到任何标题")
}

func TestParseResumeEmptyInput(t *testing.T) {
	p := NewSectionParser(nil)

	result := p.ParseResume("", "", true)
	require.Equal(t, types.ParseOK, result.Status, "空输入不应panic也不应报错")
	for _, target := range types.CanonicalSections {
		assert.Empty(t, result.RawSections.Get(target))
	}
}

func TestFindSectionsHeaderKinds(t *testing.T) {
	p := NewSectionParser(nil)

	text := "EDUCATION\nsome school\nCERTIFICATIONS: Aws Cloud\nnot a header line\n"
	headers := p.findSections(text)
	require.Len(t, headers, 2, "应检测到两个标题")

	assert.Equal(t, "EDUCATION", headers[0].Text)
	assert.Equal(t, types.HeaderPlain, headers[0].Kind)
	assert.Equal(t, "CERTIFICATIONS", headers[1].Text, "分隔符标题只保留分隔符前的部分")
	assert.Equal(t, types.HeaderDelimited, headers[1].Kind)
	assert.Less(t, headers[0].Offset, headers[1].Offset, "标题应按出现位置升序")
}

func TestFindSectionsIgnoresShortAndLowercase(t *testing.T) {
	p := NewSectionParser(nil)

	headers := p.findSections("AB\nSkills\nplain words here\n")
	assert.Empty(t, headers, "过短或含小写的行不应被当作标题")
}

func TestSectionMatchThresholds(t *testing.T) {
	p := NewSectionParser(nil)

	// 与同义词完全一致的标题必然匹配
	assert.Equal(t, types.SectionSkills, p.findTargetMatch("SKILLS"), "同义词精确匹配得分100")
	assert.Equal(t, types.SectionPriorExperience, p.findTargetMatch("WORK EXPERIENCE"))

	// 技能章节阈值更严，轻微变体也会被拒绝
	assert.Empty(t, string(p.findTargetMatch("SKILZ")), "技能章节阈值为90，相似度不足应拒绝")

	// 与所有同义词都差异很大的标题永不匹配
	assert.Empty(t, string(p.findTargetMatch("ZZZZ QQQQ VVVV")), "无关标题不应归属任何章节")
}

func TestExtractSectionContentBoundary(t *testing.T) {
	p := NewSectionParser(nil)

	text := "SUMMARY\nfirst section body\nEDUCATION\nsecond section body\n"
	headers := p.findSections(text)

	summary := p.extractSectionContent(text, headers, types.SectionSummary, "")
	assert.Equal(t, "first section body", summary, "章节内容应止于下一个标题")

	education := p.extractSectionContent(text, headers, types.SectionEducation, "")
	assert.Equal(t, "second section body", education, "最后一个章节内容应延伸到文本末尾")
}

func TestCleanSectionContentDropsRulerLines(t *testing.T) {
	content := "line one\n-----\n\n\n\nline two\n====\n"
	cleaned := cleanSectionContent(content)

	assert.Equal(t, "line one\nline two", cleaned, "分隔线行与空行应被去掉")
}

func TestRemoveFilterStrings(t *testing.T) {
	filters := []string{"References available upon request"}
	p := NewSectionParser(filters)

	content := strings.Join([]string{
		"Built distributed services in Go",
		"References available on request",
		"references available upon request for review",
		"Led a team of five engineers",
	}, "\n")

	result := p.removeFilterStrings(content)
	assert.Contains(t, result, "Built distributed services in Go", "无关行应保留")
	assert.Contains(t, result, "Led a team of five engineers")
	assert.NotContains(t, result, "References available on request", "高相似度行应剔除")
	assert.NotContains(t, result, "for review", "包含过滤短语的行应剔除")
}

func TestRemoveFilterStringsEmptyList(t *testing.T) {
	p := NewSectionParser(nil)

	content := "References available upon request"
	assert.Equal(t, content, p.removeFilterStrings(content), "过滤列表为空时内容原样返回")
}
