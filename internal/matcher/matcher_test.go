package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/logger"
)

func TestRankByCosine_OrdersBySimilarityDescending(t *testing.T) {
	position := []float64{1, 0, 0}
	resumes := [][]float64{
		{0, 1, 0},       // 正交，相似度0
		{1, 0, 0},       // 同向，相似度1
		{0.5, 0.5, 0},   // 夹角45度
		{-1, 0, 0},      // 反向，相似度-1
	}

	ranked := rankByCosine(position, resumes)
	require.Len(t, ranked, 4, "每份简历都应有一条得分")

	assert.Equal(t, 1, ranked[0].Index, "同向向量应排第一")
	assert.InDelta(t, 1.0, ranked[0].Similarity, 1e-9)
	assert.Equal(t, 2, ranked[1].Index, "45度向量应排第二")
	assert.Equal(t, 0, ranked[2].Index, "正交向量应排第三")
	assert.Equal(t, 3, ranked[3].Index, "反向向量应垫底")
	assert.InDelta(t, -1.0, ranked[3].Similarity, 1e-9)
}

func TestRankByCosine_StableOnEqualScores(t *testing.T) {
	position := []float64{1, 0}
	resumes := [][]float64{
		{2, 0},
		{3, 0},
		{0.1, 0},
	}

	ranked := rankByCosine(position, resumes)
	require.Len(t, ranked, 3)

	// 三个向量与岗位向量余弦相似度均为1，应保持输入顺序
	assert.Equal(t, 0, ranked[0].Index, "得分相同时应保持原顺序")
	assert.Equal(t, 1, ranked[1].Index)
	assert.Equal(t, 2, ranked[2].Index)
}

func TestRankByCosine_EmptyResumes(t *testing.T) {
	ranked := rankByCosine([]float64{1, 0}, nil)
	assert.Empty(t, ranked, "没有简历时应返回空结果")
}

func TestHandleMatchJob_InvalidPayloadIsDropped(t *testing.T) {
	m := &Matcher{log: logger.Component("matcher-test")}

	// 无法解析的消息应直接确认丢弃，不触发任何存储访问
	acked := m.HandleMatchJob([]byte("not json"))
	assert.True(t, acked, "坏消息应被确认丢弃而不是重新入队")
}
