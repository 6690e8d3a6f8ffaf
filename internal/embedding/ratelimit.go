package embedding

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 令牌桶限流器，约束对嵌入服务的请求速率
// 本地模型并发能力有限，上游调用方可能远快于模型推理速度
type RateLimiter struct {
	rate           float64 // 每秒生成的令牌数
	capacity       float64
	tokens         float64
	lastRefillTime time.Time
	mutex          sync.Mutex
}

// NewRateLimiter 按每分钟请求数创建限流器
// burst<=0时容量取qpm的一半，至少为1
func NewRateLimiter(qpm int, burst int) *RateLimiter {
	if burst <= 0 {
		burst = qpm / 2
		if burst <= 0 {
			burst = 1
		}
	}
	return &RateLimiter{
		rate:           float64(qpm) / 60.0,
		capacity:       float64(burst),
		tokens:         float64(burst),
		lastRefillTime: time.Now(),
	}
}

func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefillTime).Seconds()
	rl.lastRefillTime = now

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
}

// Allow 尝试消耗一个令牌，不等待
func (rl *RateLimiter) Allow() bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refill()
	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// Wait 阻塞到取得令牌或上下文取消
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mutex.Lock()
		rl.refill()
		if rl.tokens >= 1.0 {
			rl.tokens -= 1.0
			rl.mutex.Unlock()
			return nil
		}
		waitTime := time.Duration((1.0 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}
