//go:build wireinject

package ioc

import (
	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/google/wire"
)

var BaseSet = wire.NewSet(InitDB, InitCache, InitRedis, InitMQ)

func InitApp() (*App, error) {
	wire.Build(wire.Struct(new(App), "*"),
		BaseSet,
		llm.InitModule,
		grading.InitModule,
		homework.InitModule,
		wire.FieldsOf(new(*homework.Module), "Hdl"),
		wire.FieldsOf(new(*llm.Module), "AdminHandler"),
		InitSession,
		initGinxServer,
		InitAdminServer)
	return new(App), nil
}
