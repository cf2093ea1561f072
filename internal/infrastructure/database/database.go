package database

import (
	"fmt"
	"strings"
	"time"

	"tavern/internal/config"
	"tavern/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dialector 根据驱动名选择 gorm 方言
func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres", "postgresql":
		return postgres.Open(cfg.URL), nil
	case "mysql":
		return mysql.Open(cfg.URL), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open 建立连接、配置连接池并自动迁移表结构
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 DB 失败: %w", err)
	}

	// 连接池配置
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	err = db.AutoMigrate(
		&model.Customer{},
		&model.BalanceEntry{},
		&model.OutboxMessage{},
	)
	if err != nil {
		return nil, fmt.Errorf("自动迁移表结构失败: %w", err)
	}

	return db, nil
}

// InitDatabase 初始化数据库连接，失败直接退出
func InitDatabase(cfg *config.DatabaseConfig) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("初始化数据库失败")
	}
	log.Info().Str("driver", cfg.Driver).Msg("数据库连接成功")
	return db
}

// Close 关闭底层连接池
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("关闭数据库连接失败")
	}
}
