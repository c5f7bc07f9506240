package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"sudooom.im.mafia/internal/config"
	"sudooom.im.mafia/internal/feed"
	"sudooom.im.mafia/internal/game"
	"sudooom.im.mafia/internal/handler"
	"sudooom.im.mafia/internal/health"
	mafiaNats "sudooom.im.mafia/internal/nats"
	"sudooom.im.mafia/internal/repository"
	"sudooom.im.mafia/internal/router"
	"sudooom.im.mafia/internal/service/session"
	"sudooom.im.mafia/internal/store"
	"sudooom.im.mafia/internal/task"
	"sudooom.im.mafia/shared/jwt"
	"sudooom.im.mafia/shared/snowflake"
)

func main() {
	// .env 可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	configPath := os.Getenv("MAFIA_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err, "path", configPath)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := health.NewChecker(cfg.App.Name)

	// 会话存储
	var sessionStore store.SessionStore
	switch cfg.Store.Driver {
	case "memory":
		sessionStore = store.NewMemoryStore()
		logger.Warn("Using in-process session store, sessions are lost on restart")
	default:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to Redis", "error", err, "addr", cfg.Redis.GetAddr())
			os.Exit(1)
		}
		sessionStore = store.NewRedisStore(redisClient)
		checker.Register("redis", health.RedisProbe(redisClient), true)
		logger.Info("Connected to Redis", "addr", cfg.Redis.GetAddr())
	}

	// 变更推送
	var (
		publisher  feed.Publisher
		subscriber feed.Subscriber
	)
	switch cfg.Feed.Driver {
	case "memory":
		bus := feed.NewMemory()
		publisher, subscriber = bus, bus
	default:
		natsClient, err := mafiaNats.NewClient(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err, "url", cfg.NATS.URL)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = mafiaNats.NewEventPublisher(natsClient.Conn())
		subscriber = mafiaNats.NewEventSubscriber(natsClient.Conn(), mafiaNats.SubscriberConfig{
			WorkerCount: cfg.Feed.WorkerCount,
			BufferSize:  cfg.Feed.BufferSize,
		})
		checker.Register("nats", health.NATSProbe(natsClient.Conn()), true)
		logger.Info("Connected to NATS", "url", natsClient.Conn().ConnectedUrl())
	}

	// 叙事日志
	var logRepo repository.LogRepository
	switch cfg.Database.Driver {
	case "memory":
		logRepo = repository.NewMemoryLogRepository()
	case "sqlite":
		sqliteRepo, err := repository.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			logger.Error("Failed to open SQLite", "error", err, "path", cfg.Database.SQLitePath)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		logRepo = sqliteRepo
		checker.Register("database", health.SQLProbe(sqliteRepo.DB()), false)
		logger.Info("Opened SQLite game log", "path", cfg.Database.SQLitePath)
	default:
		db, err := connectDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgRepo := repository.NewPostgresLogRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to create game log schema", "error", err)
			os.Exit(1)
		}
		logRepo = pgRepo
		checker.Register("database", health.PostgresProbe(db), false)
		logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)
	}

	// 初始化 JWT 服务
	jwtService := jwt.NewService(cfg.JWT.SecretKey, cfg.JWT.AccessExpire)

	// 初始化雪花ID生成器
	sfNode, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	// 初始化 Service
	engine := game.NewEngine(game.NewRand(), cfg.Game.PhaseDuration)
	sessionService := session.NewSessionService(
		sessionStore,
		engine,
		publisher,
		logRepo,
		sfNode,
		jwtService,
		cfg.Game.MaxSettleRounds,
	)

	// 阶段截止
	if cfg.Game.EnforceDeadline {
		scheduler := task.NewScheduler(cfg.Scheduler)
		if err := scheduler.Start(); err != nil {
			logger.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()

		watcher := session.NewDeadlineWatcher(sessionService, scheduler, subscriber)
		if err := watcher.Start(ctx); err != nil {
			logger.Error("Failed to start deadline watcher", "error", err)
			os.Exit(1)
		}
		defer watcher.Stop()
	}

	// 设置路由
	r := router.SetupRouter(cfg, jwtService, handler.NewSessionHandler(sessionService), checker)

	// 启动服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Mafia server started",
			"addr", srv.Addr,
			"mode", cfg.App.Mode,
			"store", cfg.Store.Driver,
			"feed", cfg.Feed.Driver,
			"database", cfg.Database.Driver,
			"enforceDeadline", cfg.Game.EnforceDeadline,
			"tokenExpire", jwtService.GetAccessExpire())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	cancel()
	logger.Info("Server stopped")
}

// parseLevel 解析日志级别
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
