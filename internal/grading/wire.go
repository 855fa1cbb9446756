//go:build wireinject

package grading

import (
	"github.com/ecodeclub/homework/internal/grading/internal/service"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/google/wire"
)

func InitModule(llmModule *llm.Module) *Module {
	wire.Build(
		service.NewLLMGradingService,
		wire.Struct(new(Module), "*"),
		wire.FieldsOf(new(*llm.Module), "Svc"),
	)
	return new(Module)
}
