package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	apperrors "github.com/xiebiao/pressledger/pkg/errors"
	"github.com/xiebiao/pressledger/pkg/metrics"
)

// Registry 会话注册表
// 设计说明:
// 1. 每个会话持有一份独立加载的库存表和流水表
// 2. 有效期从打开时起算,访问不顺延,与会话令牌的过期时间保持一致
// 3. 过期检查在访问时进行,没有后台清理协程
type Registry struct {
	mu      sync.Mutex
	loader  inventory.Loader
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*entry
}

type entry struct {
	sess      *inventory.Session
	expiresAt time.Time
}

// NewRegistry 创建会话注册表
func NewRegistry(loader inventory.Loader, ttl time.Duration) *Registry {
	return &Registry{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Open 加载数据并创建新会话
func (r *Registry) Open(ctx context.Context) (string, *inventory.Session, *inventory.LoadReport, error) {
	sess, report, err := r.loader.Load(ctx)
	if err != nil {
		return "", nil, report, err
	}

	id := uuid.NewString()

	r.mu.Lock()
	r.entries[id] = &entry{sess: sess, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	metrics.IncGauge(metrics.SessionsActive)
	return id, sess, report, nil
}

// Get 获取会话
func (r *Registry) Get(id string) (*inventory.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if !r.now().Before(e.expiresAt) {
		delete(r.entries, id)
		metrics.DecGauge(metrics.SessionsActive)
		return nil, apperrors.ErrSessionNotFound
	}
	return e.sess, nil
}

// Reload 重新加载会话数据(丢弃未保存的内存修改)
func (r *Registry) Reload(ctx context.Context, id string) (*inventory.LoadReport, error) {
	sess, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	fresh, report, err := r.loader.Load(ctx)
	if err != nil {
		return report, err
	}
	sess.Replace(fresh.Items(), fresh.History())
	return report, nil
}

// Close 关闭会话
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(r.entries, id)
	metrics.DecGauge(metrics.SessionsActive)
	return nil
}

// Len 当前会话数(含尚未清理的过期会话)
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
