package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tavern/internal/config"
	"tavern/internal/handler"
	"tavern/internal/infrastructure/cache"
	"tavern/internal/infrastructure/database"
	"tavern/internal/infrastructure/logger"
	"tavern/internal/infrastructure/mq"
	"tavern/internal/job"
	"tavern/pkg/idgen"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	workerID := flag.Int64("worker-id", 1, "ID 生成器 worker，多实例部署时各不相同")
	flag.Parse()

	// DATABASE_URL 等可以放在 .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("读取 .env 失败")
	}

	cfg := config.LoadConfig(*configPath)
	logger.Init(&cfg.Log)
	idgen.Init(*workerID)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("服务异常退出")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.InitDatabase(&cfg.Database)
	defer database.Close(db)

	rdb := cache.InitRedis(&cfg.Redis)
	defer cache.CloseRedis()

	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	// 信号到达时 ctx 取消，投递任务随之退出
	if cfg.Kafka.Enabled {
		go job.NewOutboxSender(db, cfg).Start(ctx)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler:           handler.SetupRouter(db, rdb, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("mode", cfg.Server.Mode).Msg("HTTP 服务已启动")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("收到退出信号，开始关闭")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("服务已关闭")
	return nil
}
