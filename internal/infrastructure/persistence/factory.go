package persistence

import (
	"context"
	"fmt"

	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/blob"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/database"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/localfile"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/pressledger/pkg/logger"
)

// NewRemote 按配置创建远程仓库,未配置时返回nil
// 返回的cleanup用于关闭连接
//
// 远程仓库在启动时连不上不算致命错误:本地文件仍然可用,
// 这里只有配置错误(如驱动不支持)才返回error。
func NewRemote(ctx context.Context, cfg config.RemoteConfig, log *logger.Logger) (blob.Store, func(), error) {
	noop := func() {}

	var (
		inner   blob.Store
		cleanup = noop
	)
	switch cfg.Backend {
	case config.BackendNone:
		return nil, noop, nil

	case config.BackendMemory:
		inner = blob.NewMemoryStore()

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			// 连接失败时用不可达的仓库代替,由熔断器接管
			log.Warn(ctx, "redis unreachable at startup, remote store disabled until restart", err)
			inner = unreachable{err: err}
			break
		}
		store := redis.NewBlobStore(client, cfg.Redis.KeyPrefix)
		if err := store.LoadScripts(ctx); err != nil {
			log.Warn(ctx, "redis script preload failed", err)
		}
		inner = store
		cleanup = func() { _ = client.Close() }

	case config.BackendMySQL, config.BackendPostgres, config.BackendSQLite:
		db, err := database.NewDB(cfg.Backend, cfg.Database, false)
		if err != nil {
			log.Warn(ctx, "database unreachable at startup, remote store disabled until restart", err)
			inner = unreachable{err: err}
			break
		}
		inner = database.NewBlobStore(db)
		cleanup = func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}

	default:
		return nil, noop, fmt.Errorf("不支持的远程仓库后端: %q", cfg.Backend)
	}

	cb := blob.NewBreaker("remote-"+cfg.Backend, cfg.BreakerThreshold, cfg.BreakerTimeout)
	guarded := blob.NewGuarded(inner, cb, blob.GuardOptions{
		Timeout:   cfg.Timeout,
		Retries:   cfg.Retries,
		RetryWait: cfg.RetryWait,
	})
	return guarded, cleanup, nil
}

// NewFromConfig 按配置创建持久化管理器
func NewFromConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Manager, func(), error) {
	if log == nil {
		log = logger.Nop()
	}
	remote, cleanup, err := NewRemote(ctx, cfg.Remote, log)
	if err != nil {
		return nil, nil, err
	}
	local := localfile.NewOsStore(cfg.Storage.Dir)
	return NewManager(local, remote, NewLayout(cfg.Storage, cfg.Remote), log), cleanup, nil
}

// unreachable 启动时连接失败的远程仓库
type unreachable struct {
	err error
}

func (u unreachable) Get(context.Context, string) (*blob.Object, error) {
	return nil, u.err
}

func (u unreachable) Create(context.Context, string, []byte) (string, error) {
	return "", u.err
}

func (u unreachable) Update(context.Context, string, []byte, string) (string, error) {
	return "", u.err
}
