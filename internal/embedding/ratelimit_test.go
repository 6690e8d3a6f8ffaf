package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowConsumesBurst(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	assert.True(t, rl.Allow(), "初始桶内应有令牌")
	assert.True(t, rl.Allow(), "容量为2时第二个请求应放行")
	assert.False(t, rl.Allow(), "令牌耗尽后应拒绝")
}

func TestRateLimiter_DefaultBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0)

	assert.True(t, rl.Allow(), "默认容量至少为1")
	assert.False(t, rl.Allow())
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	require.True(t, rl.Allow(), "先耗尽令牌")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "等待期间上下文超时应返回")
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(6000, 1) // 每秒100个令牌
	require.True(t, rl.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.Allow(), "经过足够时间后应补充令牌")
}
