package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/tracing"
)

// ErrNotFound 键不存在时返回，封装底层的 redis.Nil
var ErrNotFound = redis.Nil

// Redis 键值存储，承担原始文本MD5去重与向量缓存
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并注册OpenTelemetry追踪钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("Redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("Redis地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis (%s) 失败: %w", cfg.Address, err)
	}

	logger.Info().Str("address", cfg.Address).Msg("Redis连接就绪")
	return &Redis{Client: client, cfg: cfg}, nil
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// md5ExpireDuration MD5去重记录的保留时长
func (r *Redis) md5ExpireDuration() time.Duration {
	days := r.cfg.MD5RecordExpireDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndAddRawTextMD5 原子地检查并登记原始文本MD5
// 返回true表示该MD5已存在（重复简历），false表示首次出现并已登记
func (r *Redis) CheckAndAddRawTextMD5(ctx context.Context, md5Hex string) (bool, error) {
	if md5Hex == "" {
		return false, fmt.Errorf("MD5不能为空")
	}

	added, err := r.Client.SAdd(ctx, constants.RawTextMD5SetKey, md5Hex).Result()
	if err != nil {
		return false, fmt.Errorf("登记文本MD5失败: %w", err)
	}
	// 集合整体续期，避免去重记录无限增长
	if err := r.Client.Expire(ctx, constants.RawTextMD5SetKey, r.md5ExpireDuration()).Err(); err != nil {
		logger.Warn().Err(err).Msg("设置MD5集合过期时间失败")
	}

	return added == 0, nil
}

// RemoveRawTextMD5 回滚去重登记，简历入库失败时调用
func (r *Redis) RemoveRawTextMD5(ctx context.Context, md5Hex string) error {
	return r.Client.SRem(ctx, constants.RawTextMD5SetKey, md5Hex).Err()
}

// CacheEmbedding 以文本MD5为键缓存向量，避免同文重复请求嵌入服务
func (r *Redis) CacheEmbedding(ctx context.Context, textMD5 string, vector []float64) error {
	key := constants.EmbeddingCachePrefix + textMD5
	logger.Debug().Str("key", tracing.SafeRedisKey(key)).Int("dims", len(vector)).Msg("写入向量缓存")
	return r.Client.Set(ctx, key, embedding.EncodeVector(vector), constants.EmbeddingCacheTTL).Err()
}

// GetCachedEmbedding 读取缓存向量，未命中时返回ErrNotFound
func (r *Redis) GetCachedEmbedding(ctx context.Context, textMD5 string) ([]float64, error) {
	key := constants.EmbeddingCachePrefix + textMD5
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("key", tracing.SafeRedisKey(key)).Msg("向量缓存命中")
	return embedding.DecodeVector(data)
}

// Set 通用写入
func (r *Redis) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return r.Client.Set(ctx, key, value, expiration).Err()
}

// Get 通用读取，键不存在时返回ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	return r.Client.Get(ctx, key).Result()
}
