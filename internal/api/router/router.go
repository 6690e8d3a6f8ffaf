package router

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/middleware"
	"resume-match-go/internal/config"
)

// RegisterRoutes 注册API路由
func RegisterRoutes(
	h *server.Hertz,
	cfg *config.Config,
	projectHandler *handler.ProjectHandler,
	resumeHandler *handler.ResumeHandler,
	matchHandler *handler.MatchHandler,
) {
	registerOnEngine(h.Engine, cfg, projectHandler, resumeHandler, matchHandler)
}

func registerOnEngine(
	e *route.Engine,
	cfg *config.Config,
	projectHandler *handler.ProjectHandler,
	resumeHandler *handler.ResumeHandler,
	matchHandler *handler.MatchHandler,
) {
	api := e.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(&cfg.Server))

	// 健康检查不走认证
	e.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	// 项目管理
	api.POST("/projects", func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Name string `json:"name"`
		}
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}
		project, err := projectHandler.CreateProject(c, req.Name)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, project)
	})

	api.GET("/projects", func(c context.Context, ctx *app.RequestContext) {
		projects, err := projectHandler.ListProjects(c)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, projects)
	})

	api.GET("/projects/:project_id", func(c context.Context, ctx *app.RequestContext) {
		project, err := projectHandler.GetProject(c, ctx.Param("project_id"))
		if err != nil {
			if errors.Is(err, handler.ErrProjectNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, project)
	})

	api.DELETE("/projects/:project_id", func(c context.Context, ctx *app.RequestContext) {
		if err := projectHandler.DeleteProject(c, ctx.Param("project_id")); err != nil {
			if errors.Is(err, handler.ErrProjectNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"message": "项目已删除"})
	})

	// 岗位上传
	api.POST("/projects/:project_id/positions", func(c context.Context, ctx *app.RequestContext) {
		var req handler.PositionUploadRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}
		resp, err := resumeHandler.HandlePositionUpload(c, ctx.Param("project_id"), &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 简历上传
	api.POST("/projects/:project_id/resumes", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := resumeHandler.HandleResumeUpload(c, file, fileHeader.Filename, ctx.Param("project_id"))
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/projects/:project_id/resumes", func(c context.Context, ctx *app.RequestContext) {
		resumes, err := resumeHandler.ListResumes(c, ctx.Param("project_id"))
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resumes)
	})

	// 同步解析预览
	api.POST("/parse/preview", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ParsePreviewRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}
		result, err := resumeHandler.HandleParsePreview(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, result)
	})

	// 匹配计算
	api.POST("/projects/:project_id/process", func(c context.Context, ctx *app.RequestContext) {
		resp, err := matchHandler.StartProcessing(c, ctx.Param("project_id"))
		if err != nil {
			if errors.Is(err, handler.ErrProjectNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/jobs/:job_id/status", func(c context.Context, ctx *app.RequestContext) {
		resp, err := matchHandler.JobStatus(c, ctx.Param("job_id"))
		if err != nil {
			if errors.Is(err, handler.ErrJobNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/positions/:position_id/matches", func(c context.Context, ctx *app.RequestContext) {
		limit, _ := strconv.Atoi(ctx.Query("limit"))
		matches, err := matchHandler.TopMatches(c, ctx.Param("position_id"), limit)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, matches)
	})
}
