// Command server 是排班实时同步中心的主程序入口：加载配置、建立
// 数据库连接、装配约束优化器工作池与各开放周期的 Sync Hub，并通过
// HTTP/WebSocket 对外提供同步协议与最小运维命令面。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftsync/core/internal/config"
	"github.com/shiftsync/core/internal/database"
	"github.com/shiftsync/core/internal/hub"
	"github.com/shiftsync/core/internal/metrics"
	"github.com/shiftsync/core/internal/middleware"
	"github.com/shiftsync/core/internal/operator"
	"github.com/shiftsync/core/internal/repository"
	"github.com/shiftsync/core/internal/security"
	"github.com/shiftsync/core/internal/tenant"
	"github.com/shiftsync/core/pkg/logger"
	"github.com/shiftsync/core/pkg/optimizer"
)

// 退出码含义（运维命令面的一部分）：
// 0 正常关闭，1 启动阶段配置错误，2 启动阶段持久层不可达。
const (
	exitOK                     = 0
	exitConfigError            = 1
	exitPersistenceUnreachable = 2
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG_FILE")
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(exitConfigError)
	}

	logger.Init(logger.Config{Level: cfg.App.LogLevel, Format: "console"})
	log := logger.Get()

	fmt.Printf("排班同步中心 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("持久层不可达，拒绝启动")
		os.Exit(exitPersistenceUnreachable)
	}
	defer db.Close()

	scheduleRepo := repository.NewScheduleRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	configRepo := repository.NewConfigRepository(db)
	roster := repository.NewRoster(staffRepo, configRepo)

	pool := optimizer.NewPool(cfg.Optimizer.Workers)

	policy, ok := hub.ParsePolicy(cfg.Hub.ConflictPolicy)
	if !ok {
		log.Error().Str("policy", cfg.Hub.ConflictPolicy).Msg("配置错误：未知的冲突解决策略")
		os.Exit(exitConfigError)
	}

	wireEncoding, ok := hub.ParseSymbolEncoding(cfg.Wire.SymbolEncoding)
	if !ok {
		log.Error().Str("symbol_encoding", cfg.Wire.SymbolEncoding).Msg("配置错误：未知的线协议符号编码")
		os.Exit(exitConfigError)
	}

	manager := hub.NewManager(scheduleRepo, pool, *log, policy, cfg.Hub.ChangeLogSize, wireEncoding)
	wsServer := hub.NewServer(manager, *log)
	adminHandlers := operator.NewHandlers(manager, roster, *log)

	keyManager := security.NewAPIKeyManager()
	tenantManager := tenant.NewTenantManager()
	rateLimiter := security.NewRateLimiter(cfg.API.RateLimit, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"shiftsync"}`))
	})
	mux.Handle("/ws", wsServer)

	adminMux := http.NewServeMux()
	adminHandlers.Register(adminMux)
	mux.Handle("/admin/", middleware.RequireScope("admin", keyManager)(adminMux))

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	authConfig := &middleware.AuthConfig{
		APIKeyManager:   keyManager,
		TenantManager:   tenantManager,
		RateLimiter:     rateLimiter,
		SkipPaths:       []string{"/health", cfg.Metrics.Path},
		EnableRateLimit: true,
	}

	handler := middleware.RecoveryMiddleware(
		middleware.RequestIDMiddleware(
			middleware.SecurityHeadersMiddleware(
				middleware.LoggingMiddleware(
					middleware.AuthMiddleware(authConfig)(mux),
				),
			),
		),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 长连接 WebSocket 不设写超时
		IdleTimeout:  120 * time.Second,
	}

	sweeper := newSweeper(manager, db, log)
	if err := sweeper.Start(); err != nil {
		log.Error().Err(err).Msg("配置错误：巡检任务无法启动")
		os.Exit(exitConfigError)
	}
	defer sweeper.Stop()

	go func() {
		log.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("服务器启动失败")
			os.Exit(exitConfigError)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(exitConfigError)
	}

	log.Info().Msg("服务器已关闭")
	os.Exit(exitOK)
}
