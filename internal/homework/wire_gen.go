// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package homework

import (
	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework/internal/repository"
	"github.com/ecodeclub/homework/internal/homework/internal/repository/cache"
	"github.com/ecodeclub/homework/internal/homework/internal/web"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/ecodeclub/mq-api"
)

// Injectors from wire.go:

func InitModule(ec ecache.Cache, q mq.MQ, llmModule *llm.Module, gradingModule *grading.Module) (*Module, error) {
	v := llmModule.Svc
	v2 := gradingModule.Svc
	taskCache := cache.NewTaskECache(ec)
	taskRepository := repository.NewTaskRepository(taskCache)
	taskEventProducer, err := initProducer(q)
	if err != nil {
		return nil, err
	}
	v3 := initService(v, v2, taskRepository, taskEventProducer)
	handler := web.NewHandler(v3)
	module := &Module{
		Svc: v3,
		Hdl: handler,
	}
	return module, nil
}
