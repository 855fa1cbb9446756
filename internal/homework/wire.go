//go:build wireinject

package homework

import (
	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework/internal/repository"
	"github.com/ecodeclub/homework/internal/homework/internal/repository/cache"
	"github.com/ecodeclub/homework/internal/homework/internal/web"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/ecodeclub/mq-api"
	"github.com/google/wire"
)

func InitModule(ec ecache.Cache, q mq.MQ,
	llmModule *llm.Module, gradingModule *grading.Module) (*Module, error) {
	wire.Build(
		initService,
		initProducer,
		repository.NewTaskRepository,
		cache.NewTaskECache,
		web.NewHandler,
		wire.FieldsOf(new(*llm.Module), "Svc"),
		wire.FieldsOf(new(*grading.Module), "Svc"),
		wire.Struct(new(Module), "*"),
	)
	return new(Module), nil
}
