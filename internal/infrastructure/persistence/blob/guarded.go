package blob

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xiebiao/pressledger/pkg/circuitbreaker"
	"github.com/xiebiao/pressledger/pkg/metrics"
)

// GuardOptions 远程调用保护参数
type GuardOptions struct {
	Timeout   time.Duration // 单次调用超时,0表示不限制
	Retries   uint64        // Get遇到瞬时错误时的重试次数
	RetryWait time.Duration // 重试间隔
}

// Guarded 带熔断、超时和有限重试的远程仓库
//
// 错误归类:
// 1. ErrNotFound/ErrConflict是正常业务结果,原样返回,不重试,不计入熔断
// 2. 熔断器打开时快速失败,不重试
// 3. 其他错误(网络、超时)统一包装为ErrUnavailable
//
// 只有Get会重试。写入失败时可能已经落地而只是丢了响应,
// 重试会拿旧版本号撞上自己写入的新版本,所以改为回读确认:
// 远程内容与本次写入一致即视为成功。
type Guarded struct {
	inner Store
	cb    *circuitbreaker.CircuitBreaker
	opts  GuardOptions
}

// NewGuarded 包装远程仓库
func NewGuarded(inner Store, cb *circuitbreaker.CircuitBreaker, opts GuardOptions) *Guarded {
	return &Guarded{inner: inner, cb: cb, opts: opts}
}

// NewBreaker 创建远程仓库熔断器
// 状态变化同步到circuit_breaker_state指标
func NewBreaker(name string, failureThreshold uint32, openTimeout time.Duration) *circuitbreaker.CircuitBreaker {
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	cb := circuitbreaker.NewCircuitBreaker(name, circuitbreaker.Config{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      openTimeout,
		ReadyToTrip:  circuitbreaker.ConsecutiveFailures(failureThreshold),
		IsSuccessful: func(err error) bool { return err == nil || isOutcome(err) },
	})
	cb.SetStateChangeCallback(func(name string, _ circuitbreaker.State, to circuitbreaker.State) {
		metrics.SetBreakerState(name, int(to))
	})
	return cb
}

// isOutcome 远程仓库正常给出的业务结果
func isOutcome(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}

func (g *Guarded) Get(ctx context.Context, path string) (*Object, error) {
	var obj *Object
	err := g.call(ctx, "get", g.opts.Retries, func(ctx context.Context) error {
		o, err := g.inner.Get(ctx, path)
		obj = o
		return err
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (g *Guarded) Create(ctx context.Context, path string, content []byte) (string, error) {
	var version string
	err := g.call(ctx, "create", 0, func(ctx context.Context) error {
		v, err := g.inner.Create(ctx, path, content)
		version = v
		return err
	})
	if err != nil && !isOutcome(err) {
		if v, ok := g.landed(ctx, path, content); ok {
			return v, nil
		}
	}
	return version, err
}

func (g *Guarded) Update(ctx context.Context, path string, content []byte, expected string) (string, error) {
	var version string
	err := g.call(ctx, "update", 0, func(ctx context.Context) error {
		v, err := g.inner.Update(ctx, path, content, expected)
		version = v
		return err
	})
	if err != nil && !isOutcome(err) {
		if v, ok := g.landed(ctx, path, content); ok {
			return v, nil
		}
	}
	return version, err
}

// landed 写入报错后回读,判断内容是否已经写入
func (g *Guarded) landed(ctx context.Context, path string, content []byte) (string, bool) {
	obj, err := g.Get(ctx, path)
	if err != nil || !bytes.Equal(obj.Content, content) {
		return "", false
	}
	return obj.Version, true
}

func (g *Guarded) call(ctx context.Context, op string, retries uint64, fn func(ctx context.Context) error) error {
	attempt := func() error {
		err := g.cb.Execute(ctx, func(ctx context.Context) error {
			if g.opts.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
				defer cancel()
			}
			return fn(ctx)
		})
		if err == nil {
			return nil
		}
		if isOutcome(err) || errors.Is(err, circuitbreaker.ErrOpenState) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.opts.RetryWait), retries),
		ctx,
	)
	err := backoff.Retry(attempt, policy)

	switch {
	case err == nil:
		metrics.RecordRemoteCall(op, "success")
		return nil
	case errors.Is(err, ErrNotFound):
		metrics.RecordRemoteCall(op, "not_found")
		return err
	case errors.Is(err, ErrConflict):
		metrics.RecordRemoteCall(op, "conflict")
		return err
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.RecordRemoteCall(op, "rejected")
	default:
		metrics.RecordRemoteCall(op, "error")
	}
	return ErrUnavailable.WithCause(err)
}
