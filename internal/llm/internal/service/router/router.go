package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/service/breaker"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler"
	"github.com/gotomicro/ego/core/elog"
)

var (
	// ErrProviderCall 平台调用失败（网络错误、非 2xx、空响应）
	ErrProviderCall = errors.New("平台调用失败")
	// ErrNoProvider 没有可用平台
	ErrNoProvider = errors.New("没有注册任何平台")
)

// Platform 真正的出口，一个大模型平台一个实现
type Platform interface {
	Name() string
	Handle(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error)
}

// StreamPlatform 支持流式输出的平台
type StreamPlatform interface {
	Platform
	StreamHandle(ctx context.Context, req domain.LLMRequest) (chan domain.StreamEvent, error)
}

type guardedPlatform struct {
	platform Platform
	breaker  *breaker.CircuitBreaker
}

// Router 按优先级选平台，每个平台一个熔断器。
// 主平台失败（熔断拒绝或者调用失败）之后最多再试一个备选平台，
// 绝不并行调用，控制成本
type Router struct {
	platforms []guardedPlatform
	logger    *elog.Component
}

var _ handler.Handler = &Router{}

func NewRouter(platforms []Platform, opts ...breaker.Option) *Router {
	guarded := make([]guardedPlatform, 0, len(platforms))
	for _, p := range platforms {
		guarded = append(guarded, guardedPlatform{
			platform: p,
			breaker:  breaker.NewCircuitBreaker(p.Name(), opts...),
		})
	}
	return &Router{
		platforms: guarded,
		logger:    elog.DefaultLogger,
	}
}

func (r *Router) Handle(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error) {
	candidates := r.candidates(req.Provider)
	if len(candidates) == 0 {
		return domain.LLMResponse{}, ErrNoProvider
	}
	var lastErr error
	for _, c := range candidates {
		name := c.platform.Name()
		if !c.breaker.Allow() {
			// 熔断中直接拒绝，不发起网络调用
			lastErr = fmt.Errorf("%w: %s", breaker.ErrCircuitOpen, name)
			r.logger.Warn("平台熔断中，跳过", elog.String("provider", name), elog.String("tid", req.Tid))
			continue
		}
		resp, err := c.platform.Handle(ctx, req)
		if err == nil && strings.TrimSpace(resp.Answer) == "" {
			err = fmt.Errorf("%w: %s 返回空响应", ErrProviderCall, name)
		}
		if err != nil {
			c.breaker.MarkFailure()
			if errors.Is(err, ErrProviderCall) {
				lastErr = err
			} else {
				lastErr = fmt.Errorf("%w: %s: %s", ErrProviderCall, name, err.Error())
			}
			r.logger.Error("平台调用失败",
				elog.String("provider", name),
				elog.String("tid", req.Tid),
				elog.FieldErr(err))
			continue
		}
		c.breaker.MarkSuccess()
		resp.Provider = name
		return resp, nil
	}
	return domain.LLMResponse{}, lastErr
}

// StreamHandle 流式调用。建连失败会切换备选平台，
// 流一旦建立，终态事件（Done/Error）驱动熔断器计数
func (r *Router) StreamHandle(ctx context.Context, req domain.LLMRequest) (chan domain.StreamEvent, string, error) {
	candidates := r.candidates(req.Provider)
	if len(candidates) == 0 {
		return nil, "", ErrNoProvider
	}
	var lastErr error
	for _, c := range candidates {
		name := c.platform.Name()
		sp, ok := c.platform.(StreamPlatform)
		if !ok {
			continue
		}
		if !c.breaker.Allow() {
			lastErr = fmt.Errorf("%w: %s", breaker.ErrCircuitOpen, name)
			continue
		}
		eventCh, err := sp.StreamHandle(ctx, req)
		if err != nil {
			c.breaker.MarkFailure()
			lastErr = fmt.Errorf("%w: %s: %s", ErrProviderCall, name, err.Error())
			r.logger.Error("平台流式调用失败",
				elog.String("provider", name),
				elog.String("tid", req.Tid),
				elog.FieldErr(err))
			continue
		}
		return r.observe(ctx, eventCh, c.breaker), name, nil
	}
	return nil, "", lastErr
}

// observe 转发事件流，同时把终态喂给熔断器。
// 调用方中途断开时不能卡死在发送上，要把上游排干，
// 让平台侧的生产协程退出，终态照常计入熔断器
func (r *Router) observe(ctx context.Context, in chan domain.StreamEvent, cb *breaker.CircuitBreaker) chan domain.StreamEvent {
	out := make(chan domain.StreamEvent, cap(in))
	go func() {
		defer close(out)
		for evt := range in {
			r.feed(evt, cb)
			select {
			case out <- evt:
			case <-ctx.Done():
				for evt := range in {
					r.feed(evt, cb)
				}
				return
			}
		}
	}()
	return out
}

func (r *Router) feed(evt domain.StreamEvent, cb *breaker.CircuitBreaker) {
	if evt.Error != nil {
		cb.MarkFailure()
	} else if evt.Done {
		cb.MarkSuccess()
	}
}

// MarkMalformed 平台返回了无法解析的内容。
// 解析失败由上游校验器发现，但是失败要算到平台头上
func (r *Router) MarkMalformed(provider string) {
	for _, c := range r.platforms {
		if c.platform.Name() == provider {
			c.breaker.MarkFailure()
			return
		}
	}
}

// Providers 按优先级返回所有平台名
func (r *Router) Providers() []string {
	res := make([]string, 0, len(r.platforms))
	for _, c := range r.platforms {
		res = append(res, c.platform.Name())
	}
	return res
}

func (r *Router) Status() []domain.ProviderStatus {
	res := make([]domain.ProviderStatus, 0, len(r.platforms))
	for _, c := range r.platforms {
		res = append(res, c.breaker.Status())
	}
	return res
}

// candidates 把首选平台排在最前面，之后按注册顺序补位。
// 最多返回两个：主平台 + 一个备选
func (r *Router) candidates(preference string) []guardedPlatform {
	res := make([]guardedPlatform, 0, 2)
	if preference != "" {
		for _, c := range r.platforms {
			if c.platform.Name() == preference {
				res = append(res, c)
				break
			}
		}
	}
	for _, c := range r.platforms {
		if len(res) >= 2 {
			break
		}
		if len(res) > 0 && res[0].platform.Name() == c.platform.Name() {
			continue
		}
		res = append(res, c)
	}
	return res
}
