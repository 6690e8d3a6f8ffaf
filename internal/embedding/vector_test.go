package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/config"
)

func TestEncodeDecodeVector(t *testing.T) {
	vector := []float64{0.1, -2.5, 3.75, 0}

	data := EncodeVector(vector)
	assert.Len(t, data, len(vector)*8, "每个分量占8字节")

	decoded, err := DecodeVector(data)
	require.NoError(t, err)
	assert.Equal(t, vector, decoded, "编解码应无损")
}

func TestDecodeVectorInvalidLength(t *testing.T) {
	_, err := DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err, "非8倍数长度应报错")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9, "同方向向量相似度为1")
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9, "正交向量相似度为0")
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 1}, []float64{-1, -1}), 1e-9, "反方向向量相似度为-1")

	assert.Zero(t, CosineSimilarity(nil, nil), "空向量返回0")
	assert.Zero(t, CosineSimilarity([]float64{1}, []float64{1, 2}), "维度不一致返回0")
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 2}), "零向量返回0")
}

func TestEmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float64{0.5, 0.25}})
	}))
	defer server.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: server.URL})
	vector, err := client.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, vector)
}

func TestEmbedTextRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float64{1}})
	}))
	defer server.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: server.URL, MaxRetries: 2})
	vector, err := client.EmbedText(context.Background(), "hello")
	require.NoError(t, err, "瞬时失败应被重试吸收")
	assert.Equal(t, []float64{1}, vector)
	assert.Equal(t, 2, calls, "第二次请求应成功")
}

func TestEmbedTextExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: server.URL, MaxRetries: 1})
	_, err := client.EmbedText(context.Background(), "hello")
	assert.Error(t, err, "重试耗尽后应返回错误")
}

func TestEmbedTextEmptyInput(t *testing.T) {
	client := NewClient(config.EmbeddingConfig{})
	_, err := client.EmbedText(context.Background(), "")
	assert.Error(t, err, "空文本应直接报错")
}
