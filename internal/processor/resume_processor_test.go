package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

const uploadFixtureText = `SUMMARY
Seasoned backend developer with cloud experience.

SKILLS
Python, Docker

EXPERIENCE
Senior Engineer
Acme Inc
2020-Present
Built things.`

func newTestProcessor() *ResumeProcessor {
	return NewResumeProcessor(nil, nil)
}

func TestProcessText_FullTextSkipsSectionParsing(t *testing.T) {
	p := newTestProcessor()

	result, err := p.ProcessText(context.Background(), uploadFixtureText, "resume.pdf", ProcessOptions{
		Method: types.MethodFullText,
	})
	require.NoError(t, err, "全文模式不应报错")

	assert.Equal(t, uploadFixtureText, result.RawText, "原始文本应原样返回")
	assert.NotEmpty(t, result.CleanedText, "清洗后文本不应为空")
	assert.Nil(t, result.Parsed, "全文模式不应产生章节解析结果")
}

func TestProcessText_SectionBasedRawMode(t *testing.T) {
	p := newTestProcessor()

	result, err := p.ProcessText(context.Background(), uploadFixtureText, "resume.pdf", ProcessOptions{
		Method: types.MethodSectionBased,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Parsed, "章节模式应产生解析结果")

	assert.Equal(t, types.ParseOK, result.Parsed.Status)
	require.NotNil(t, result.Parsed.RawSections, "默认应返回原始章节内容")
	assert.Nil(t, result.Parsed.ResumeData, "原始章节模式不应有结构化数据")
	assert.Contains(t, result.Parsed.RawSections.Skills, "Python", "技能章节应包含原始文本")
}

func TestProcessText_SectionBasedStructuredMode(t *testing.T) {
	p := newTestProcessor()

	result, err := p.ProcessText(context.Background(), uploadFixtureText, "resume.pdf", ProcessOptions{
		Method:     types.MethodSectionBased,
		Structured: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Parsed)
	require.NotNil(t, result.Parsed.ResumeData, "结构化模式应产生结构化数据")

	data := result.Parsed.ResumeData
	assert.Equal(t, []string{"Python", "Docker"}, data.Skills, "技能应按词表精确匹配")
	require.Len(t, data.PriorExperience, 1, "应解析出一条工作经历")
	assert.Equal(t, "Senior Engineer", data.PriorExperience[0].Title)
	assert.Contains(t, data.PriorExperience[0].Company, "Acme Inc")
	assert.Equal(t, "2020-Present", data.PriorExperience[0].Dates)
}

func TestProcessText_RejectsUnknownMethod(t *testing.T) {
	p := newTestProcessor()

	_, err := p.ProcessText(context.Background(), "text", "resume.pdf", ProcessOptions{
		Method: types.ParsingMethod("chunked"),
	})
	assert.Error(t, err, "未知解析方式应报错")
}

func TestProcessText_AppliesTokenBudget(t *testing.T) {
	p := NewResumeProcessor(nil, []SettingOpt{WithDefaultMaxTokens(10)})

	long := "Led development of machine learning systems at scale. " +
		"Cooking is a hobby of mine on weekends and holidays with family."
	result, err := p.ProcessText(context.Background(), long, "resume.pdf", ProcessOptions{
		Method: types.MethodFullText,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.CleanedText), 10*4, "清洗后文本应落在token预算内")
}

func TestPositionEmbeddingText_JoinsSelectedColumns(t *testing.T) {
	pos := &models.Position{
		OriginalData:     datatypes.JSON(`{"title":"Backend Engineer","description":"Build APIs","salary":"100k"}`),
		EmbeddingColumns: datatypes.JSON(`["title","description","missing"]`),
	}

	text, err := PositionEmbeddingText(pos)
	require.NoError(t, err)
	assert.Equal(t, "title: Backend Engineer\ndescription: Build APIs", text,
		"只有配置的存在列参与拼接，缺失列被跳过")
}

func TestPositionEmbeddingText_EmptyWhenNoValidColumns(t *testing.T) {
	pos := &models.Position{
		OriginalData:     datatypes.JSON(`{"title":""}`),
		EmbeddingColumns: datatypes.JSON(`["title","location"]`),
	}

	text, err := PositionEmbeddingText(pos)
	require.NoError(t, err)
	assert.Empty(t, text, "没有有效列时应返回空字符串")
}

func TestPositionEmbeddingText_BadJSON(t *testing.T) {
	pos := &models.Position{
		OriginalData:     datatypes.JSON(`not json`),
		EmbeddingColumns: datatypes.JSON(`["title"]`),
	}

	_, err := PositionEmbeddingText(pos)
	assert.Error(t, err, "损坏的岗位数据应报错")
}

type memoryDedupeStore struct {
	seen map[string]bool
	err  error
}

func newMemoryDedupeStore() *memoryDedupeStore {
	return &memoryDedupeStore{seen: make(map[string]bool)}
}

func (m *memoryDedupeStore) CheckAndAddRawTextMD5(_ context.Context, md5Hex string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[md5Hex] {
		return true, nil
	}
	m.seen[md5Hex] = true
	return false, nil
}

func (m *memoryDedupeStore) RemoveRawTextMD5(_ context.Context, md5Hex string) error {
	delete(m.seen, md5Hex)
	return nil
}

func TestRegisterRawText_FirstUploadRegisters(t *testing.T) {
	p := newTestProcessor()
	p.dedupe = newMemoryDedupeStore()
	md5 := md5Hex(uploadFixtureText)

	rollback, err := p.registerRawText(context.Background(), md5)
	require.NoError(t, err, "首次上传不应判定为重复")
	require.NotNil(t, rollback, "首次登记应返回回滚函数")
}

func TestRegisterRawText_SecondUploadIsDuplicate(t *testing.T) {
	p := newTestProcessor()
	p.dedupe = newMemoryDedupeStore()
	md5 := md5Hex(uploadFixtureText)

	_, err := p.registerRawText(context.Background(), md5)
	require.NoError(t, err)

	_, err = p.registerRawText(context.Background(), md5)
	assert.ErrorIs(t, err, ErrDuplicateResume, "相同文本的二次上传应判定为重复")
}

func TestRegisterRawText_RollbackFreesRecord(t *testing.T) {
	p := newTestProcessor()
	p.dedupe = newMemoryDedupeStore()
	md5 := md5Hex(uploadFixtureText)

	rollback, err := p.registerRawText(context.Background(), md5)
	require.NoError(t, err)
	require.NotNil(t, rollback)

	// 落库失败后回滚，同一份文件必须可以重传
	rollback(context.Background())

	rollback, err = p.registerRawText(context.Background(), md5)
	assert.NoError(t, err, "回滚后重传不应判定为重复")
	assert.NotNil(t, rollback)
}

func TestRegisterRawText_StoreFailurePassesThrough(t *testing.T) {
	p := newTestProcessor()
	store := newMemoryDedupeStore()
	store.err = errors.New("连接不可用")
	p.dedupe = store

	rollback, err := p.registerRawText(context.Background(), md5Hex(uploadFixtureText))
	assert.NoError(t, err, "去重存储故障不应阻断上传")
	assert.Nil(t, rollback)
}

func TestRegisterRawText_NoStoreIsNoop(t *testing.T) {
	p := newTestProcessor()

	rollback, err := p.registerRawText(context.Background(), md5Hex(uploadFixtureText))
	assert.NoError(t, err)
	assert.Nil(t, rollback)
}
