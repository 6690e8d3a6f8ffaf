package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
)

const (
	defaultModel   = "nomic-embed-text"
	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 30 * time.Second
	embeddingsPath = "/api/embeddings"
)

// Client 调用Ollama兼容 /api/embeddings 端点的向量生成客户端
// 重试在这一层完成，解析核心不感知网络
type Client struct {
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
	limiter    *RateLimiter
	log        zerolog.Logger
}

// NewClient 创建向量生成客户端
func NewClient(cfg config.EmbeddingConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	var limiter *RateLimiter
	if cfg.RequestsPerMinute > 0 {
		limiter = NewRateLimiter(cfg.RequestsPerMinute, 0)
	}

	return &Client{
		baseURL:    baseURL,
		model:      model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        logger.Component("embedding"),
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// EmbedText 为单段文本生成向量，失败时按配置做有限次重试
func (c *Client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("待嵌入文本不能为空")
	}

	var lastErr error
	attempts := c.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("向量生成重试")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vector, err := c.embedOnce(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("向量生成失败（重试%d次后）: %w", c.maxRetries, lastErr)
}

// EmbedTexts 为多段文本逐个生成向量，任何一段失败则整体失败
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))
	for i, text := range texts {
		vector, err := c.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("第%d段文本向量生成失败: %w", i, err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+embeddingsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("向量服务返回状态 %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("向量服务返回错误: %s", parsed.Error)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("向量服务返回空向量")
	}

	return parsed.Embedding, nil
}
