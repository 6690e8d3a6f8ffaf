package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""), "空值保持为空")
	assert.Equal(t, "*", MaskPII("张"), "单字符全掩码")
	assert.Equal(t, "张*", MaskPII("张三"), "双字符保留首位")
	assert.Equal(t, "王*明", MaskPII("王小明"), "三字符保留首尾")
	assert.Equal(t, "13*******78", MaskPII("13812345678"), "长值保留首尾各两位")
	assert.Equal(t, "my***************om", MaskPII("myemail@example.com"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10), "短串不截断")

	long := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	got := TruncateString(long, 21)
	assert.Len(t, []rune(got), 21, "截断后长度应等于上限")
	assert.Contains(t, got, "...", "截断结果应含省略号")
	assert.True(t, strings.HasPrefix(got, "aaa"), "应保留前段")
	assert.True(t, strings.HasSuffix(got, "bbb"), "应保留后段")

	assert.Equal(t, "ab", TruncateString("abcdef", 2), "极小上限直接硬截断")
}

func TestSafeAttributeValue(t *testing.T) {
	masked := SafeAttributeValue("user.email", "someone@example.com", DefaultMaxLength)
	assert.Contains(t, masked, "*", "敏感属性名应触发掩码")
	assert.NotContains(t, masked, "someone@example", "掩码后不应泄露原值")

	plain := SafeAttributeValue("db.operation", "select", DefaultMaxLength)
	assert.Equal(t, "select", plain, "普通属性原样返回")
}

func TestSafeRedisKey(t *testing.T) {
	assert.Equal(t, "resume:embedding:abc123", SafeRedisKey("resume:embedding:abc123"), "短键原样返回")

	long := "resume:embedding:" + strings.Repeat("f", 200)
	assert.LessOrEqual(t, len([]rune(SafeRedisKey(long))), MaxRedisLength, "超长键截断到上限")
}

func TestSafeResumeContent(t *testing.T) {
	long := strings.Repeat("resume body text ", 30)
	got := SafeResumeContent(long)
	assert.LessOrEqual(t, len([]rune(got)), MaxResumeLength, "简历片段截断到上限")
	assert.Contains(t, got, "...", "截断结果应含省略号")
}
