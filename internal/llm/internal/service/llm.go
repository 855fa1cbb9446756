package service

import (
	"context"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/repository"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler"
	"github.com/ecodeclub/homework/internal/llm/internal/service/router"
)

//go:generate mockgen -source=./llm.go -destination=../../mocks/llm.mock.go -package=llmmocks -typed=true Service
type Service interface {
	// Invoke 一问一答，阻塞到拿到完整回答
	Invoke(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error)
	// Stream 流式回答，返回事件通道和实际选中的平台
	Stream(ctx context.Context, req domain.LLMRequest) (chan domain.StreamEvent, string, error)
	// MarkMalformed 回答无法解析时由调用方回填，算平台一次失败
	MarkMalformed(provider string)
	// Providers 按优先级返回平台名
	Providers() []string
	// Status 各平台熔断器状态
	Status() []domain.ProviderStatus
}

type llmService struct {
	// 公共部分组合之后的链，出口是 Router
	handler handler.Handler
	router  *router.Router
	// 流式请求不走记录链，但是配置还是要加载的
	configRepo repository.ConfigRepository
}

func NewLLMService(root handler.Handler, r *router.Router,
	configRepo repository.ConfigRepository) Service {
	return &llmService{
		handler:    root,
		router:     r,
		configRepo: configRepo,
	}
}

func (g *llmService) Invoke(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error) {
	return g.handler.Handle(ctx, req)
}

func (g *llmService) Stream(ctx context.Context, req domain.LLMRequest) (chan domain.StreamEvent, string, error) {
	cfg, err := g.configRepo.GetConfig(ctx, req.Biz)
	if err != nil {
		return nil, "", err
	}
	req.Config = cfg
	return g.router.StreamHandle(ctx, req)
}

func (g *llmService) MarkMalformed(provider string) {
	g.router.MarkMalformed(provider)
}

func (g *llmService) Providers() []string {
	return g.router.Providers()
}

func (g *llmService) Status() []domain.ProviderStatus {
	return g.router.Status()
}
