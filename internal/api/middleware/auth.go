package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-match-go/internal/config"
)

// APIKeyAuth 基于Bearer令牌的API密钥校验中间件
// 认证未开启或密钥为空时返回空操作中间件
func APIKeyAuth(cfg *config.ServerConfig) app.HandlerFunc {
	if cfg == nil || !cfg.AuthOn || cfg.APIKey == "" {
		return func(c context.Context, ctx *app.RequestContext) {
			ctx.Next(c)
		}
	}

	expected := []byte(cfg.APIKey)
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), expected) == 1, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "无效的API密钥"})
		}),
	)
}
