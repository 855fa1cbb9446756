package llm

import (
	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/service"
	"github.com/ecodeclub/homework/internal/llm/internal/service/breaker"
	"github.com/ecodeclub/homework/internal/llm/internal/service/router"
	"github.com/ecodeclub/homework/internal/llm/internal/web"
)

type LLMRequest = domain.LLMRequest
type LLMResponse = domain.LLMResponse
type StreamEvent = domain.StreamEvent
type Image = domain.Image
type BizConfig = domain.BizConfig
type ProviderStatus = domain.ProviderStatus
type Service = service.Service
type ConfigService = service.ConfigService
type AdminHandler = web.AdminHandler

const (
	BizHomeworkParse   = domain.BizHomeworkParse
	BizHomeworkGrade   = domain.BizHomeworkGrade
	BizHomeworkSuggest = domain.BizHomeworkSuggest
)

// ErrCircuitOpen 平台熔断中，没有发起网络调用
var ErrCircuitOpen = breaker.ErrCircuitOpen

// ErrProviderCall 平台调用失败
var ErrProviderCall = router.ErrProviderCall
