package blob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/pressledger/pkg/circuitbreaker"
)

// flakyStore 前failures次调用返回网络错误,之后委托给内存仓库
type flakyStore struct {
	*MemoryStore
	failures int
	calls    int
}

var errNetwork = errors.New("connection reset")

func (f *flakyStore) Get(ctx context.Context, path string) (*Object, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errNetwork
	}
	return f.MemoryStore.Get(ctx, path)
}

func TestGuarded_RetriesTransientOnce(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 1}
	inner.Put("inventory", []byte("data"))
	g := NewGuarded(inner, NewBreaker("t1", 5, time.Minute), GuardOptions{Retries: 1})

	obj, err := g.Get(context.Background(), "inventory")
	require.NoError(t, err, "一次瞬时错误后重试应成功")
	assert.Equal(t, "data", string(obj.Content))
	assert.Equal(t, 2, inner.calls)
}

func TestGuarded_RetryIsBounded(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}
	g := NewGuarded(inner, NewBreaker("t2", 50, time.Minute), GuardOptions{Retries: 1})

	_, err := g.Get(context.Background(), "inventory")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, errNetwork, "保留底层原因")
	assert.Equal(t, 2, inner.calls, "最多1次重试")
}

func TestGuarded_NotFoundIsNotRetried(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	g := NewGuarded(inner, NewBreaker("t3", 1, time.Minute), GuardOptions{Retries: 3})

	for i := 0; i < 3; i++ {
		_, err := g.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 3, inner.calls, "不存在不重试")
}

func TestGuarded_ConflictPassesThrough(t *testing.T) {
	mem := NewMemoryStore()
	cb := NewBreaker("t4", 1, time.Minute)
	g := NewGuarded(mem, cb, GuardOptions{Retries: 1})
	ctx := context.Background()

	_, err := g.Create(ctx, "history", []byte("a"))
	require.NoError(t, err)
	_, err = g.Create(ctx, "history", []byte("b"))
	assert.ErrorIs(t, err, ErrConflict)
	_, err = g.Update(ctx, "history", []byte("b"), "stale")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, circuitbreaker.StateClosed, cb.State(), "版本冲突不应触发熔断")
}

func TestGuarded_OpenBreakerFailsFast(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 100}
	g := NewGuarded(inner, NewBreaker("t5", 2, time.Hour), GuardOptions{})
	ctx := context.Background()

	_, _ = g.Get(ctx, "a")
	_, _ = g.Get(ctx, "a")
	calls := inner.calls

	_, err := g.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Equal(t, calls, inner.calls, "熔断后不再访问远程仓库")
}

// lostReplyStore 写入成功后返回网络错误,模拟响应丢失
type lostReplyStore struct {
	*MemoryStore
	writes int
	drop   bool // 为false时写入不落地,直接报错
}

func (l *lostReplyStore) Create(ctx context.Context, path string, content []byte) (string, error) {
	l.writes++
	if !l.drop {
		return "", errNetwork
	}
	if _, err := l.MemoryStore.Create(ctx, path, content); err != nil {
		return "", err
	}
	return "", errNetwork
}

func (l *lostReplyStore) Update(ctx context.Context, path string, content []byte, version string) (string, error) {
	l.writes++
	if !l.drop {
		return "", errNetwork
	}
	if _, err := l.MemoryStore.Update(ctx, path, content, version); err != nil {
		return "", err
	}
	return "", errNetwork
}

func TestGuarded_LostReplyCountsAsWritten(t *testing.T) {
	inner := &lostReplyStore{MemoryStore: NewMemoryStore(), drop: true}
	inner.Put("history", []byte("old"))
	g := NewGuarded(inner, NewBreaker("t6", 5, time.Minute), GuardOptions{Retries: 1})
	ctx := context.Background()

	obj, err := g.Get(ctx, "history")
	require.NoError(t, err)

	v, err := g.Update(ctx, "history", []byte("new"), obj.Version)
	require.NoError(t, err, "远程内容已经是本次写入,应视为成功")
	assert.Equal(t, 1, inner.writes, "写入不重试")

	after, err := g.Get(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, "new", string(after.Content))
	assert.Equal(t, after.Version, v, "返回回读到的版本号")

	_, err = g.Create(ctx, "inventory", []byte("rows"))
	require.NoError(t, err)
	assert.Equal(t, 2, inner.writes)
}

func TestGuarded_FailedWriteIsUnavailable(t *testing.T) {
	inner := &lostReplyStore{MemoryStore: NewMemoryStore()}
	inner.Put("history", []byte("old"))
	g := NewGuarded(inner, NewBreaker("t7", 5, time.Minute), GuardOptions{Retries: 1})
	ctx := context.Background()

	obj, err := g.Get(ctx, "history")
	require.NoError(t, err)

	_, err = g.Update(ctx, "history", []byte("new"), obj.Version)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, inner.writes)

	_, err = g.Create(ctx, "inventory", []byte("rows"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMemoryStore_Versions(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	v1, err := m.Create(ctx, "p", []byte("1"))
	require.NoError(t, err)
	v2, err := m.Update(ctx, "p", []byte("2"), v1)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	_, err = m.Update(ctx, "p", []byte("3"), v1)
	assert.ErrorIs(t, err, ErrConflict, "旧版本号写入应冲突")

	_, err = m.Update(ctx, "missing", []byte("x"), "1")
	assert.ErrorIs(t, err, ErrConflict)
}
