//go:build wireinject

package llm

import (
	"sync"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/homework/internal/llm/internal/repository"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/cache"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/dao"
	"github.com/ecodeclub/homework/internal/llm/internal/service"
	"github.com/ecodeclub/homework/internal/llm/internal/web"
	"github.com/ego-component/egorm"
	"github.com/google/wire"
	"gorm.io/gorm"
)

func InitModule(db *egorm.Component, ec ecache.Cache) (*Module, error) {
	wire.Build(
		service.NewLLMService,
		service.NewConfigService,
		repository.NewLLMLogRepo,
		repository.NewCachedConfigRepository,
		cache.NewConfigECache,

		InitLLMRecordDAO,
		dao.NewGORMConfigDAO,

		newConfigBuilder,
		newRecordBuilder,
		initCommonHandlers,
		initRootHandler,
		initPlatforms,
		initRouter,

		web.NewAdminHandler,

		wire.Struct(new(Module), "*"),
	)
	return new(Module), nil
}

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
