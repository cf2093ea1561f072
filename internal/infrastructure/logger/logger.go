package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"tavern/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init 初始化全局日志
// format 为 json 时输出结构化日志，否则输出便于本地阅读的控制台格式
func Init(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
