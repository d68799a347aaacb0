package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock 可手动推进的时钟
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var (
	errUnavailable = errors.New("remote unavailable")
	errNotFound    = errors.New("not found")
)

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker("remote", Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: ConsecutiveFailures(3),
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
		Now: clock.Now,
	})
}

func fail(context.Context) error    { return errUnavailable }
func succeed(context.Context) error { return nil }

// TestCircuitBreaker_Trip 连续失败后熔断,熔断期间不调用实际函数
func TestCircuitBreaker_Trip(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, fail); err != errUnavailable {
			t.Fatalf("第%d次期望返回原始错误，实际%v", i+1, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if err != ErrOpenState {
		t.Errorf("期望返回ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断器打开时不应该调用实际函数")
	}
}

// TestCircuitBreaker_BusinessErrorsDoNotTrip 业务结果(文件不存在)不计为失败
func TestCircuitBreaker_BusinessErrorsDoNotTrip(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Now()})

	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return errNotFound })
		if err != errNotFound {
			t.Fatalf("期望原样返回errNotFound，实际%v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("业务错误不应触发熔断，实际状态%s", cb.State())
	}
	if c := cb.Counts(); c.TotalSuccesses != 10 {
		t.Errorf("期望计为成功10次，实际%d次", c.TotalSuccesses)
	}
}

// TestCircuitBreaker_HalfOpenRecovery 超时后探测成功,恢复为CLOSED
func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	var changes []string
	cb.SetStateChangeCallback(func(_ string, from, to State) {
		changes = append(changes, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clock.Advance(31 * time.Second)

	if cb.State() != StateHalfOpen {
		t.Fatalf("期望状态为HALF_OPEN，实际%s", cb.State())
	}
	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("半开状态探测请求应该通过，实际%v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("探测成功后期望CLOSED，实际%s", cb.State())
	}

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(changes) != len(want) {
		t.Fatalf("期望状态变化%v，实际%v", want, changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("第%d次状态变化期望%s，实际%s", i, want[i], changes[i])
		}
	}
}

// TestCircuitBreaker_HalfOpenFailure 半开状态探测失败,重新打开
func TestCircuitBreaker_HalfOpenFailure(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clock.Advance(31 * time.Second)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateOpen {
		t.Errorf("期望状态转回OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_IntervalReset 统计窗口过期后清零
func TestCircuitBreaker_IntervalReset(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clock.Advance(2 * time.Minute)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateClosed {
		t.Errorf("窗口过期后失败次数应清零，实际状态%s", cb.State())
	}
}

// TestCircuitBreaker_CanceledContext 已取消的请求不计入统计
func TestCircuitBreaker_CanceledContext(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cb.Execute(ctx, succeed); !errors.Is(err, context.Canceled) {
		t.Errorf("期望context.Canceled，实际%v", err)
	}
	if c := cb.Counts(); c.Requests != 0 {
		t.Errorf("已取消的请求不应计数，实际%d", c.Requests)
	}
}

func BenchmarkCircuitBreaker(b *testing.B) {
	cb := NewCircuitBreaker("bench", Config{Interval: 10 * time.Second, Timeout: 30 * time.Second})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, succeed)
	}
}
