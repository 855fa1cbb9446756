// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package ioc

import (
	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/google/wire"
)

// Injectors from wire.go:

func InitApp() (*App, error) {
	cmdable := InitRedis()
	provider := InitSession(cmdable)
	cache := InitCache(cmdable)
	mq := InitMQ()
	v := InitDB()
	module, err := llm.InitModule(v, cache)
	if err != nil {
		return nil, err
	}
	gradingModule := grading.InitModule(module)
	homeworkModule, err := homework.InitModule(cache, mq, module, gradingModule)
	if err != nil {
		return nil, err
	}
	v2 := homeworkModule.Hdl
	component := initGinxServer(provider, v2)
	v3 := module.AdminHandler
	adminServer := InitAdminServer(v3)
	app := &App{
		Web:   component,
		Admin: adminServer,
	}
	return app, nil
}

// wire.go:

var BaseSet = wire.NewSet(InitDB, InitCache, InitRedis, InitMQ)
