package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/service/breaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	name  string
	calls int
	resp  domain.LLMResponse
	err   error
}

func (f *fakePlatform) Name() string {
	return f.name
}

func (f *fakePlatform) Handle(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error) {
	f.calls++
	return f.resp, f.err
}

func TestRouter_主平台成功(t *testing.T) {
	primary := &fakePlatform{name: "gpt", resp: domain.LLMResponse{Answer: "ok", Tokens: 12}}
	secondary := &fakePlatform{name: "qwen", resp: domain.LLMResponse{Answer: "backup"}}
	r := NewRouter([]Platform{primary, secondary})

	resp, err := r.Handle(context.Background(), domain.LLMRequest{Biz: domain.BizHomeworkParse})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	assert.Equal(t, "gpt", resp.Provider)
	assert.Equal(t, 1, primary.calls)
	// 主平台成功就不该碰备选平台
	assert.Equal(t, 0, secondary.calls)
}

func TestRouter_主平台失败切换备选(t *testing.T) {
	primary := &fakePlatform{name: "gpt", err: errors.New("网络错误")}
	secondary := &fakePlatform{name: "qwen", resp: domain.LLMResponse{Answer: "backup"}}
	r := NewRouter([]Platform{primary, secondary})

	resp, err := r.Handle(context.Background(), domain.LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "backup", resp.Answer)
	assert.Equal(t, "qwen", resp.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestRouter_最多尝试两个平台(t *testing.T) {
	p1 := &fakePlatform{name: "gpt", err: errors.New("挂了")}
	p2 := &fakePlatform{name: "qwen", err: errors.New("也挂了")}
	p3 := &fakePlatform{name: "zhipu", resp: domain.LLMResponse{Answer: "third"}}
	r := NewRouter([]Platform{p1, p2, p3})

	_, err := r.Handle(context.Background(), domain.LLMRequest{})
	assert.ErrorIs(t, err, ErrProviderCall)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 1, p2.calls)
	// 兜底只有一次，第三个平台不会被调用
	assert.Equal(t, 0, p3.calls)
}

func TestRouter_空响应算失败(t *testing.T) {
	primary := &fakePlatform{name: "gpt", resp: domain.LLMResponse{Answer: "   "}}
	secondary := &fakePlatform{name: "qwen", resp: domain.LLMResponse{Answer: "backup"}}
	r := NewRouter([]Platform{primary, secondary})

	resp, err := r.Handle(context.Background(), domain.LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "qwen", resp.Provider)
}

func TestRouter_熔断之后不发起调用(t *testing.T) {
	primary := &fakePlatform{name: "gpt", err: errors.New("挂了")}
	r := NewRouter([]Platform{primary},
		breaker.WithFailureThreshold(3),
		breaker.WithResetTimeout(30*time.Second))

	for i := 0; i < 3; i++ {
		_, err := r.Handle(context.Background(), domain.LLMRequest{})
		assert.ErrorIs(t, err, ErrProviderCall)
	}
	assert.Equal(t, 3, primary.calls)

	// 已经熔断，请求直接被拒绝，调用计数不再增长
	_, err := r.Handle(context.Background(), domain.LLMRequest{})
	assert.ErrorIs(t, err, breaker.ErrCircuitOpen)
	assert.Equal(t, 3, primary.calls)
}

func TestRouter_熔断恢复只放行一个试探(t *testing.T) {
	now := time.UnixMilli(1000000)
	clock := func() time.Time { return now }
	primary := &fakePlatform{name: "gpt", err: errors.New("挂了")}
	r := NewRouter([]Platform{primary},
		breaker.WithFailureThreshold(1),
		breaker.WithResetTimeout(30*time.Second),
		breaker.WithClock(clock))

	_, err := r.Handle(context.Background(), domain.LLMRequest{})
	assert.ErrorIs(t, err, ErrProviderCall)
	assert.Equal(t, 1, primary.calls)

	// 熔断窗口之后恰好放行一个试探请求，成功则恢复
	now = now.Add(30 * time.Second)
	primary.err = nil
	primary.resp = domain.LLMResponse{Answer: "recovered"}
	resp, err := r.Handle(context.Background(), domain.LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Answer)
	assert.Equal(t, 2, primary.calls)
	assert.Equal(t, "CLOSED", r.Status()[0].State)
}

func TestRouter_指定首选平台(t *testing.T) {
	p1 := &fakePlatform{name: "gpt", resp: domain.LLMResponse{Answer: "a"}}
	p2 := &fakePlatform{name: "qwen", resp: domain.LLMResponse{Answer: "b"}}
	r := NewRouter([]Platform{p1, p2})

	resp, err := r.Handle(context.Background(), domain.LLMRequest{Provider: "qwen"})
	require.NoError(t, err)
	assert.Equal(t, "qwen", resp.Provider)
	assert.Equal(t, 0, p1.calls)
	assert.Equal(t, 1, p2.calls)
}

func TestRouter_MarkMalformed(t *testing.T) {
	primary := &fakePlatform{name: "gpt", resp: domain.LLMResponse{Answer: "not json"}}
	r := NewRouter([]Platform{primary}, breaker.WithFailureThreshold(2))

	_, err := r.Handle(context.Background(), domain.LLMRequest{})
	require.NoError(t, err)
	// 校验器发现内容解析不了，回填到熔断器
	r.MarkMalformed("gpt")
	r.MarkMalformed("gpt")
	assert.Equal(t, "OPEN", r.Status()[0].State)
}

type fakeStreamPlatform struct {
	fakePlatform
	events []domain.StreamEvent
	// 生产协程退出时关闭
	produced chan struct{}
}

func (f *fakeStreamPlatform) StreamHandle(ctx context.Context, req domain.LLMRequest) (chan domain.StreamEvent, error) {
	ch := make(chan domain.StreamEvent, 4)
	go func() {
		defer close(f.produced)
		defer close(ch)
		for _, ev := range f.events {
			ch <- ev
		}
	}()
	return ch, nil
}

func TestRouter_流式成功计入熔断器(t *testing.T) {
	p := &fakeStreamPlatform{
		fakePlatform: fakePlatform{name: "gpt"},
		events: []domain.StreamEvent{
			{Content: "{", Delta: "{"},
			{Done: true},
		},
		produced: make(chan struct{}),
	}
	r := NewRouter([]Platform{p})

	out, provider, err := r.StreamHandle(context.Background(), domain.LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "gpt", provider)
	var got []domain.StreamEvent
	for ev := range out {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.True(t, got[1].Done)
	assert.Equal(t, int64(1), r.Status()[0].SuccessfulRequests)
}

func TestRouter_流式中途断开不卡死生产者(t *testing.T) {
	events := make([]domain.StreamEvent, 0, 30)
	for i := 0; i < 29; i++ {
		events = append(events, domain.StreamEvent{Content: "部分", Delta: "部分"})
	}
	events = append(events, domain.StreamEvent{Done: true})
	p := &fakeStreamPlatform{
		fakePlatform: fakePlatform{name: "gpt"},
		events:       events,
		produced:     make(chan struct{}),
	}
	r := NewRouter([]Platform{p})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, _, err := r.StreamHandle(ctx, domain.LLMRequest{})
	require.NoError(t, err)

	// 只消费一帧就断开，剩下的事件堵在通道里
	<-out
	cancel()

	// 上游会被排干，生产协程正常退出
	select {
	case <-p.produced:
	case <-time.After(time.Second):
		t.Fatal("生产协程没有退出")
	}
	// 终态事件照常计入熔断器，不会因为断开丢账
	assert.Eventually(t, func() bool {
		return r.Status()[0].SuccessfulRequests == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRouter_没有注册平台(t *testing.T) {
	r := NewRouter(nil)
	_, err := r.Handle(context.Background(), domain.LLMRequest{})
	assert.ErrorIs(t, err, ErrNoProvider)
}
