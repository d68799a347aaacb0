package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/pressledger/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明:
// 1. 同一套GORM模型支持mysql/postgres/sqlite三种后端
// 2. 配置连接池参数(MaxOpenConns、MaxIdleConns、ConnMaxLifetime)
// 3. debug模式打印SQL
// 4. 自动迁移ledger_blobs表
func NewDB(backend string, cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	// 1. 选择驱动
	dialector, err := dialectorFor(backend, cfg.DSN(backend))
	if err != nil {
		return nil, err
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	// 3. 连接数据库(TranslateError把各驱动的唯一键冲突统一为gorm.ErrDuplicatedKey)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	// 6. 自动迁移
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

// Migrate 创建/更新表结构
// AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&BlobModel{})
}

func dialectorFor(backend, dsn string) (gorm.Dialector, error) {
	switch backend {
	case config.BackendMySQL:
		return mysql.Open(dsn), nil
	case config.BackendPostgres:
		return postgres.Open(dsn), nil
	case config.BackendSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("不支持的数据库后端: %q", backend)
	}
}
