// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package grading

import (
	"github.com/ecodeclub/homework/internal/grading/internal/service"
	"github.com/ecodeclub/homework/internal/llm"
)

// Injectors from wire.go:

func InitModule(llmModule *llm.Module) *Module {
	v := llmModule.Svc
	v2 := service.NewLLMGradingService(v)
	module := &Module{
		Svc: v2,
	}
	return module
}
