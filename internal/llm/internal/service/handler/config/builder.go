package config

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/repository"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler"
)

// HandlerBuilder 根据 biz 加载业务配置（模型、提示词模板、限制）
type HandlerBuilder struct {
	repo repository.ConfigRepository
}

var _ handler.Builder = &HandlerBuilder{}

func NewHandler(repo repository.ConfigRepository) *HandlerBuilder {
	return &HandlerBuilder{
		repo: repo,
	}
}

func (h *HandlerBuilder) Name() string {
	return "config"
}

func (h *HandlerBuilder) Next(next handler.Handler) handler.Handler {
	return handler.HandleFunc(func(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error) {
		cfg, err := h.repo.GetConfig(ctx, req.Biz)
		if err != nil {
			return domain.LLMResponse{}, fmt.Errorf("加载业务配置失败 biz: %s, %w", req.Biz, err)
		}
		req.Config = cfg
		if cfg.MaxInput > 0 {
			var total int
			for _, input := range req.Input {
				total += utf8.RuneCountInString(input)
			}
			if total > cfg.MaxInput {
				return domain.LLMResponse{}, fmt.Errorf("输入太长，最长不超过 %d，现有长度 %d", cfg.MaxInput, total)
			}
		}
		return next.Handle(ctx, req)
	})
}
