package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_状态流转(t *testing.T) {
	now := time.UnixMilli(1000000)
	clock := func() time.Time { return now }
	cb := NewCircuitBreaker("gpt",
		WithFailureThreshold(3),
		WithResetTimeout(30*time.Second),
		WithClock(clock))

	// 初始 CLOSED，放行
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())

	// 连续两次失败还不到阈值
	cb.MarkFailure()
	cb.MarkFailure()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())

	// 第三次失败触发熔断
	cb.MarkFailure()
	assert.Equal(t, StateOpen, cb.State())

	// 熔断期间拒绝，不发起任何调用
	now = now.Add(time.Millisecond)
	assert.False(t, cb.Allow())

	// 超时之后放行一个试探请求
	now = now.Add(30 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())
	// 试探请求还在路上，不再放行第二个
	assert.False(t, cb.Allow())

	// 试探成功，恢复 CLOSED
	cb.MarkSuccess()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_试探失败重新熔断(t *testing.T) {
	now := time.UnixMilli(1000000)
	clock := func() time.Time { return now }
	cb := NewCircuitBreaker("gpt",
		WithFailureThreshold(1),
		WithResetTimeout(10*time.Second),
		WithClock(clock))

	cb.MarkFailure()
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(10 * time.Second)
	assert.True(t, cb.Allow())
	// 试探失败，重新熔断，nextAttemptTime 整个重新计算
	cb.MarkFailure()
	assert.Equal(t, StateOpen, cb.State())
	status := cb.Status()
	assert.Equal(t, now.Add(10*time.Second).UnixMilli(), status.NextAttemptTime)

	// 没到新的 nextAttemptTime 仍然拒绝
	now = now.Add(5 * time.Second)
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_成功重置连续失败计数(t *testing.T) {
	cb := NewCircuitBreaker("gpt", WithFailureThreshold(3))
	cb.MarkFailure()
	cb.MarkFailure()
	cb.MarkSuccess()
	cb.MarkFailure()
	cb.MarkFailure()
	// 中间成功过，计数被重置，不该熔断
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Status(t *testing.T) {
	now := time.UnixMilli(1000000)
	clock := func() time.Time { return now }
	cb := NewCircuitBreaker("qwen",
		WithFailureThreshold(2),
		WithResetTimeout(30*time.Second),
		WithClock(clock))

	cb.MarkSuccess()
	cb.MarkFailure()
	cb.MarkFailure()

	status := cb.Status()
	assert.Equal(t, "qwen", status.Provider)
	assert.Equal(t, "OPEN", status.State)
	assert.Equal(t, 2, status.ConsecutiveFailures)
	assert.Equal(t, int64(3), status.TotalRequests)
	assert.Equal(t, int64(1), status.SuccessfulRequests)
	assert.Equal(t, int64(2), status.FailedRequests)
	assert.Equal(t, int64(1), status.CircuitOpenCount)
	assert.Equal(t, now.UnixMilli(), status.LastFailureTime)
	assert.Equal(t, now.Add(30*time.Second).UnixMilli(), status.NextAttemptTime)
}
