package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/config"
	"github.com/siwachprerit/Drafted/internal/api"
	"github.com/siwachprerit/Drafted/internal/common"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/presence"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/repository/memory"
	"github.com/siwachprerit/Drafted/internal/repository/mysql"
	"github.com/siwachprerit/Drafted/internal/service"
	"github.com/siwachprerit/Drafted/internal/storage"
	"github.com/siwachprerit/Drafted/internal/util"
)

type repositories struct {
	users         interfaces.UserRepository
	posts         interfaces.PostRepository
	notifications interfaces.NotificationRepository
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()
	cfg := config.AppConfig

	// 初始化日志
	util.InitLogger(cfg.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 初始化存储库
	repos, db := openRepositories(ctx, cfg)
	if db != nil {
		defer db.Close()
	}

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			util.Logger.Fatal("注册验证器失败", zap.Error(err))
		}
	}

	// 初始化文件存储
	uploader, err := storage.New(ctx, cfg)
	if err != nil {
		util.Logger.Fatal("初始化文件存储失败", zap.Error(err), zap.String("driver", cfg.StorageDriver))
	}

	// 初始化实时推送
	hub := presence.NewHub(presence.AllowOrigins(api.AllowedOrigins(cfg)...))
	registry := openPresence(ctx, cfg, hub)
	hub.Use(registry)

	// 初始化服务
	userService := service.NewUserService(repos.users, repos.posts)
	postService := service.NewPostService(repos.posts, repos.users)
	notificationService := service.NewNotificationService(repos.notifications)
	engine := service.NewInteractionService(repos.users, repos.posts, notificationService, registry)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	r := api.NewRouter(cfg, api.Dependencies{
		Users:         userService,
		Posts:         postService,
		Notifications: notificationService,
		Engine:        engine,
		Hub:           hub,
		Storage:       uploader,
		Monitor:       errorMonitor,
	})

	if cfg.Debug {
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// 关闭所有 websocket 连接，Shutdown 不会等待被劫持的连接
	hub.Close()
	stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// openRepositories 根据 DB_DRIVER 选择 MySQL 或内存存储
func openRepositories(ctx context.Context, cfg config.Config) (repositories, *sql.DB) {
	if cfg.DBDriver == "memory" {
		util.Logger.Warn("使用内存存储，重启后数据会丢失")
		store := memory.NewStore()
		return repositories{
			users:         store.Users(),
			posts:         store.Posts(),
			notifications: store.Notifications(),
		}, nil
	}

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 数据库可能比应用晚启动
	err = common.WithRetry(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, 5, time.Second)
	if err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	return repositories{
		users:         mysql.NewUserRepository(db),
		posts:         mysql.NewPostRepository(db),
		notifications: mysql.NewNotificationRepository(db),
	}, db
}

// openPresence 多实例部署时使用 Redis 共享在线状态
func openPresence(ctx context.Context, cfg config.Config, hub *presence.Hub) presence.Registry {
	if cfg.PresenceBackend != "redis" {
		return presence.NewLocalRegistry(hub)
	}

	var registry *presence.RedisRegistry
	err := common.WithRetry(ctx, func(ctx context.Context) error {
		client, err := presence.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return err
		}
		registry = presence.NewRedisRegistry(client, hub)
		return nil
	}, 5, time.Second)
	if err != nil {
		util.Logger.Fatal("连接 Redis 失败", zap.Error(err))
	}

	go func() {
		if err := registry.Run(ctx); err != nil && ctx.Err() == nil {
			util.Logger.Error("在线状态订阅中断", zap.Error(err))
		}
	}()
	util.Logger.Info("在线状态使用 Redis 共享")
	return registry
}
