package router

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/api/handler"
	appconfig "resume-match-go/internal/config"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/types"
)

// newTestEngine 组装一个只依赖内存组件的路由引擎
// 存储相关路由在测试里不会被命中
func newTestEngine(t *testing.T, cfg *appconfig.Config) *route.Engine {
	t.Helper()

	engine := route.NewEngine(config.NewOptions(nil))
	proc := processor.NewResumeProcessor(nil, nil)

	projectHandler := handler.NewProjectHandler(nil)
	resumeHandler := handler.NewResumeHandler(cfg, nil, proc)
	matchHandler := handler.NewMatchHandler(nil, proc, nil)

	registerOnEngine(engine, cfg, projectHandler, resumeHandler, matchHandler)
	return engine
}

func openConfig() *appconfig.Config {
	return &appconfig.Config{}
}

func authedConfig() *appconfig.Config {
	cfg := &appconfig.Config{}
	cfg.Server.AuthOn = true
	cfg.Server.APIKey = "test-key"
	return cfg
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestEngine(t, openConfig())

	resp := ut.PerformRequest(engine, "GET", "/health", nil)
	assert.Equal(t, 200, resp.Code, "健康检查应返回200")
	assert.Contains(t, string(resp.Result().Body()), "ok")
}

func TestParsePreview_SectionBased(t *testing.T) {
	engine := newTestEngine(t, openConfig())

	reqBody, err := json.Marshal(handler.ParsePreviewRequest{
		Text:       "SUMMARY\nBackend developer.\n\nSKILLS\nPython, Docker",
		Filename:   "resume.txt",
		Method:     "section_based",
		Structured: true,
	})
	require.NoError(t, err)

	resp := ut.PerformRequest(engine, "POST", "/api/v1/parse/preview",
		&ut.Body{Body: bytes.NewReader(reqBody), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	require.Equal(t, 200, resp.Code, "合法请求应返回200")

	var result types.ProcessResult
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &result))
	require.NotNil(t, result.Parsed, "章节模式应返回解析结果")
	assert.Equal(t, types.ParseOK, result.Parsed.Status)
	require.NotNil(t, result.Parsed.ResumeData)
	assert.Contains(t, result.Parsed.ResumeData.Skills, "Python", "技能应被词表识别")
}

func TestParsePreview_EmptyTextRejected(t *testing.T) {
	engine := newTestEngine(t, openConfig())

	reqBody := []byte(`{"text":""}`)
	resp := ut.PerformRequest(engine, "POST", "/api/v1/parse/preview",
		&ut.Body{Body: bytes.NewReader(reqBody), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	assert.Equal(t, 400, resp.Code, "空文本应返回400")
}

func TestAPIKeyAuth_RejectsMissingKey(t *testing.T) {
	engine := newTestEngine(t, authedConfig())

	reqBody := []byte(`{"text":"SUMMARY\nhello"}`)
	resp := ut.PerformRequest(engine, "POST", "/api/v1/parse/preview",
		&ut.Body{Body: bytes.NewReader(reqBody), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	assert.Equal(t, 401, resp.Code, "缺少API密钥应返回401")
}

func TestAPIKeyAuth_AcceptsValidKey(t *testing.T) {
	engine := newTestEngine(t, authedConfig())

	reqBody := []byte(`{"text":"SUMMARY\nhello","method":"full_text"}`)
	resp := ut.PerformRequest(engine, "POST", "/api/v1/parse/preview",
		&ut.Body{Body: bytes.NewReader(reqBody), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
		ut.Header{Key: "Authorization", Value: "Bearer test-key"},
	)
	assert.Equal(t, 200, resp.Code, "携带正确密钥应放行")
}

func TestAPIKeyAuth_HealthBypassesAuth(t *testing.T) {
	engine := newTestEngine(t, authedConfig())

	resp := ut.PerformRequest(engine, "GET", "/health", nil)
	assert.Equal(t, 200, resp.Code, "健康检查不应走认证")
}
