package web

import (
	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/service"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	svc    service.ConfigService
	llmSvc service.Service
}

func NewAdminHandler(svc service.ConfigService, llmSvc service.Service) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		llmSvc: llmSvc,
	}
}

func (h *AdminHandler) RegisterRoutes(server *gin.Engine) {
	admin := server.Group("/ai/config")
	admin.POST("/save", ginx.B[ConfigRequest](h.Save))
	admin.GET("/list", ginx.W(h.List))
	admin.POST("/detail", ginx.B[ConfigInfoReq](h.GetById))
	// 各平台熔断器状态
	server.GET("/ai/provider/status", ginx.W(h.ProviderStatus))
}

func (h *AdminHandler) Save(ctx *ginx.Context, req ConfigRequest) (ginx.Result, error) {
	id, err := h.svc.Save(ctx, domain.BizConfig{
		Id:             req.Config.Id,
		Biz:            req.Config.Biz,
		MaxInput:       req.Config.MaxInput,
		Model:          req.Config.Model,
		Price:          req.Config.Price,
		Temperature:    req.Config.Temperature,
		TopP:           req.Config.TopP,
		SystemPrompt:   req.Config.SystemPrompt,
		PromptTemplate: req.Config.PromptTemplate,
	})
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: id,
	}, nil
}

func (h *AdminHandler) List(ctx *ginx.Context) (ginx.Result, error) {
	configs, err := h.svc.List(ctx)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: slice.Map(configs, func(idx int, c domain.BizConfig) Config {
			return h.domainToConfig(c)
		}),
	}, nil
}

func (h *AdminHandler) GetById(ctx *ginx.Context, req ConfigInfoReq) (ginx.Result, error) {
	cfg, err := h.svc.GetById(ctx, req.Id)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: h.domainToConfig(cfg),
	}, nil
}

func (h *AdminHandler) ProviderStatus(ctx *ginx.Context) (ginx.Result, error) {
	return ginx.Result{
		Data: slice.Map(h.llmSvc.Status(), func(idx int, src domain.ProviderStatus) ProviderStatus {
			return ProviderStatus{
				Provider:            src.Provider,
				State:               src.State,
				ConsecutiveFailures: src.ConsecutiveFailures,
				LastFailureTime:     src.LastFailureTime,
				NextAttemptTime:     src.NextAttemptTime,
				TotalRequests:       src.TotalRequests,
				SuccessfulRequests:  src.SuccessfulRequests,
				FailedRequests:      src.FailedRequests,
				CircuitOpenCount:    src.CircuitOpenCount,
			}
		}),
	}, nil
}

func (h *AdminHandler) domainToConfig(c domain.BizConfig) Config {
	return Config{
		Id:             c.Id,
		Biz:            c.Biz,
		MaxInput:       c.MaxInput,
		Model:          c.Model,
		Price:          c.Price,
		Temperature:    c.Temperature,
		TopP:           c.TopP,
		SystemPrompt:   c.SystemPrompt,
		PromptTemplate: c.PromptTemplate,
	}
}
