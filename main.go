package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/extractor"
	appLogger "resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

func main() {
	ctx := context.Background()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	appLogger.Init(cfg.Logger)
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	glog.Info("配置与日志初始化完成")

	shutdownTracing, err := tracing.InitTracerProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Warnf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储层失败: %v", err)
	}
	glog.Info("存储层初始化完成")

	pdfExtractor, err := extractor.NewPDFExtractor(ctx)
	if err != nil {
		glog.Fatalf("初始化PDF提取器失败: %v", err)
	}

	filterStrings, err := parser.LoadFilterStrings(cfg.Parser.FilterStringsPath)
	if err != nil {
		glog.Warnf("加载过滤短语失败: %v", err)
	}

	compOpts := []processor.ComponentOpt{
		processor.WithSectionParser(parser.NewSectionParser(filterStrings)),
		processor.WithTextCleaner(parser.NewTextCleaner()),
		processor.WithPDFExtractor(pdfExtractor),
		processor.WithEmbedder(embedding.NewClient(cfg.Embedding)),
		processor.WithStorage(storageManager),
	}
	var setOpts []processor.SettingOpt
	if cfg.Parser.DefaultIntensity != "" {
		setOpts = append(setOpts, processor.WithDefaultIntensity(types.CleaningIntensity(cfg.Parser.DefaultIntensity)))
	}
	if cfg.Parser.MaxTokens > 0 {
		setOpts = append(setOpts, processor.WithDefaultMaxTokens(cfg.Parser.MaxTokens))
	}
	setOpts = append(setOpts, processor.WithMatchQueue(cfg.RabbitMQ.MatchQueue))
	resumeProcessor := processor.NewResumeProcessor(compOpts, setOpts)
	glog.Info("简历处理器初始化完成")

	matchEngine, err := matcher.NewMatcher(storageManager)
	if err != nil {
		glog.Fatalf("初始化匹配器失败: %v", err)
	}

	var messageRelay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ)
		messageRelay.Start()
		glog.Info("发件箱消息中继已启动")
	}

	var consumerStop chan<- struct{}
	if storageManager.RabbitMQ != nil {
		consumerStop, err = storageManager.RabbitMQ.StartConsumer(
			cfg.RabbitMQ.MatchQueue,
			cfg.RabbitMQ.PrefetchCount,
			matchEngine.HandleMatchJob,
		)
		if err != nil {
			glog.Fatalf("启动匹配任务消费者失败: %v", err)
		}
		glog.Infof("匹配任务消费者已启动，队列: %s", cfg.RabbitMQ.MatchQueue)
	} else {
		glog.Warn("消息队列未配置，异步匹配不可用")
	}

	h := buildServer(cfg)

	projectHandler := handler.NewProjectHandler(storageManager)
	resumeHandler := handler.NewResumeHandler(cfg, storageManager, resumeProcessor)
	matchHandler := handler.NewMatchHandler(storageManager, resumeProcessor, matchEngine)
	router.RegisterRoutes(h, cfg, projectHandler, resumeHandler, matchHandler)
	glog.Info("HTTP路由注册完成")

	go func() {
		glog.Infof("HTTP服务器启动，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
	}
	if consumerStop != nil {
		close(consumerStop)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("HTTP服务器关闭失败: %v", err)
	}

	storageManager.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Warnf("链路追踪关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// buildServer 组装hertz实例，启用追踪时注入服务端tracer与中间件
func buildServer(cfg *config.Config) *server.Hertz {
	if cfg.Tracing.Enabled {
		tracerOpt, tracerCfg := hertztracing.NewServerTracer()
		h := server.New(
			tracerOpt,
			server.WithHostPorts(cfg.Server.Address),
			server.WithHandleMethodNotAllowed(true),
		)
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
		h.Use(requestLogMiddleware())
		return h
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(requestLogMiddleware())
	return h
}

func requestLogMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		glog.CtxInfof(c, "%s %s -> %d (%s)",
			string(ctx.Method()), string(ctx.Path()),
			ctx.Response.StatusCode(), time.Since(start))
	}
}
