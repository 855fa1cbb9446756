package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrCircuitOpen 平台被熔断，没有发起真正的调用
var ErrCircuitOpen = errors.New("平台熔断中，拒绝调用")

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

var openCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_circuit_open_total",
	Help: "Total number of circuit breaker open transitions",
}, []string{"provider"})

// CircuitBreaker 单平台的熔断器，CLOSED/OPEN/HALF_OPEN 三状态
// 所有状态变更都在锁内完成，进程重启之后从 CLOSED 冷启动
type CircuitBreaker struct {
	mu       sync.Mutex
	provider string
	state    State
	// 连续失败次数
	consecutiveFailures int
	lastFailureTime     time.Time
	nextAttemptTime     time.Time
	// HALF_OPEN 下只放行一个试探请求
	probing bool

	failureThreshold int
	resetTimeout     time.Duration
	// 可注入的时钟，测试用
	now func() time.Time

	// 累计统计
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	circuitOpenCount   int64
}

type Option func(*CircuitBreaker)

func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) { cb.failureThreshold = n }
}

func WithResetTimeout(d time.Duration) Option {
	return func(cb *CircuitBreaker) { cb.resetTimeout = d }
}

func WithClock(fn func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = fn }
}

// NewCircuitBreaker 默认 3 次连续失败熔断，30s 之后放行一个试探请求
func NewCircuitBreaker(provider string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		provider:         provider,
		state:            StateClosed,
		failureThreshold: 3,
		resetTimeout:     30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Allow 判断是否允许发起调用。OPEN 且未到 nextAttemptTime 一律拒绝，
// 到了 nextAttemptTime 就转 HALF_OPEN 并且只放行一个试探请求
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttemptTime) {
			return false
		}
		cb.state = StateHalfOpen
		cb.probing = true
		return true
	case StateHalfOpen:
		// 已经有一个试探请求在路上了
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return true
	}
}

// MarkSuccess 记录一次成功调用
func (cb *CircuitBreaker) MarkSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.totalRequests++
	cb.successfulRequests++
	switch cb.state {
	case StateHalfOpen:
		// 试探成功，恢复
		cb.state = StateClosed
		cb.consecutiveFailures = 0
		cb.probing = false
	case StateClosed:
		cb.consecutiveFailures = 0
	default:
	}
}

// MarkFailure 记录一次失败调用
func (cb *CircuitBreaker) MarkFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.totalRequests++
	cb.failedRequests++
	now := cb.now()
	cb.lastFailureTime = now
	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.open(now)
		}
	case StateHalfOpen:
		// 试探失败，重新熔断
		cb.consecutiveFailures++
		cb.probing = false
		cb.open(now)
	default:
	}
}

// open 必须在持有锁的情况下调用
func (cb *CircuitBreaker) open(now time.Time) {
	cb.state = StateOpen
	cb.nextAttemptTime = now.Add(cb.resetTimeout)
	cb.circuitOpenCount++
	openCounter.WithLabelValues(cb.provider).Inc()
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Status() domain.ProviderStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	res := domain.ProviderStatus{
		Provider:            cb.provider,
		State:               cb.state.String(),
		ConsecutiveFailures: cb.consecutiveFailures,
		TotalRequests:       cb.totalRequests,
		SuccessfulRequests:  cb.successfulRequests,
		FailedRequests:      cb.failedRequests,
		CircuitOpenCount:    cb.circuitOpenCount,
	}
	if !cb.lastFailureTime.IsZero() {
		res.LastFailureTime = cb.lastFailureTime.UnixMilli()
	}
	if !cb.nextAttemptTime.IsZero() {
		res.NextAttemptTime = cb.nextAttemptTime.UnixMilli()
	}
	return res
}
