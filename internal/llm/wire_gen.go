// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package llm

import (
	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/homework/internal/llm/internal/repository"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/cache"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/dao"
	"github.com/ecodeclub/homework/internal/llm/internal/service"
	"github.com/ecodeclub/homework/internal/llm/internal/web"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
	"sync"
)

// Injectors from wire.go:

func InitModule(db *egorm.Component, ec ecache.Cache) (*Module, error) {
	configDAO := dao.NewGORMConfigDAO(db)
	configCache := cache.NewConfigECache(ec)
	configRepository := repository.NewCachedConfigRepository(configDAO, configCache)
	handlerBuilder := newConfigBuilder(configRepository)
	llmRecordDAO := InitLLMRecordDAO(db)
	llmLogRepo := repository.NewLLMLogRepo(llmRecordDAO)
	recordHandlerBuilder := newRecordBuilder(llmLogRepo)
	v := initCommonHandlers(handlerBuilder, recordHandlerBuilder)
	v2 := initPlatforms()
	router := initRouter(v2)
	handler := initRootHandler(v, router)
	v3 := service.NewLLMService(handler, router, configRepository)
	v4 := service.NewConfigService(configRepository)
	adminHandler := web.NewAdminHandler(v4, v3)
	module := &Module{
		Svc:          v3,
		ConfigSvc:    v4,
		AdminHandler: adminHandler,
	}
	return module, nil
}

// wire.go:

var daoOnce = sync.Once{}

func InitTableOnce(db *gorm.DB) {
	daoOnce.Do(func() {
		err := dao.InitTables(db)
		if err != nil {
			panic(err)
		}
	})
}

func InitLLMRecordDAO(db *egorm.Component) dao.LLMRecordDAO {
	InitTableOnce(db)
	return dao.NewGORMLLMLogDAO(db)
}
