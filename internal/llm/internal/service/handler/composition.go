package handler

import (
	"context"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
)

// CompositionHandler 通过组合 Handler 来完成某个业务
// 公共部分（日志、配置、记录）在前，路由在最后
type CompositionHandler struct {
	root Handler
}

func (c *CompositionHandler) Handle(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error) {
	return c.root.Handle(ctx, req)
}

func NewCompositionHandler(common []Builder,
	root Handler) *CompositionHandler {
	for i := len(common) - 1; i >= 0; i-- {
		current := common[i]
		root = current.Next(root)
	}
	return &CompositionHandler{
		root: root,
	}
}
