package llm

import (
	"time"

	"github.com/ecodeclub/homework/internal/llm/internal/repository"
	"github.com/ecodeclub/homework/internal/llm/internal/service/breaker"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler/config"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler/log"
	"github.com/ecodeclub/homework/internal/llm/internal/service/handler/record"
	"github.com/ecodeclub/homework/internal/llm/internal/service/platform/openai"
	"github.com/ecodeclub/homework/internal/llm/internal/service/platform/zhipu"
	"github.com/ecodeclub/homework/internal/llm/internal/service/router"
	"github.com/gotomicro/ego/core/econf"
)

// initPlatforms 注册顺序就是兜底顺序：gpt 主，qwen 备，zhipu 托底纯文本
func initPlatforms() []router.Platform {
	type Platform struct {
		Name    string `yaml:"name"`
		BaseUrl string `yaml:"baseUrl"`
		APIKey  string `yaml:"apikey"`
	}
	type Config struct {
		OpenAI []Platform `yaml:"openai"`
		Zhipu  struct {
			APIKey string `yaml:"apikey"`
		} `yaml:"zhipu"`
	}
	var cfg Config
	err := econf.UnmarshalKey("llm.platforms", &cfg)
	if err != nil {
		panic(err)
	}
	platforms := make([]router.Platform, 0, len(cfg.OpenAI)+1)
	for _, p := range cfg.OpenAI {
		platforms = append(platforms, openai.NewHandler(p.Name, p.BaseUrl, p.APIKey))
	}
	if cfg.Zhipu.APIKey != "" {
		h, err := zhipu.NewHandler(cfg.Zhipu.APIKey)
		if err != nil {
			panic(err)
		}
		platforms = append(platforms, h)
	}
	return platforms
}

func initRouter(platforms []router.Platform) *router.Router {
	type Config struct {
		FailureThreshold int `yaml:"failureThreshold"`
		ResetTimeoutSecs int `yaml:"resetTimeoutSecs"`
	}
	cfg := Config{FailureThreshold: 3, ResetTimeoutSecs: 30}
	// 没配就用默认值
	_ = econf.UnmarshalKey("llm.breaker", &cfg)
	return router.NewRouter(platforms,
		breaker.WithFailureThreshold(cfg.FailureThreshold),
		breaker.WithResetTimeout(time.Duration(cfg.ResetTimeoutSecs)*time.Second))
}

func initCommonHandlers(cfgBuilder *config.HandlerBuilder,
	recordBuilder *record.HandlerBuilder) []handler.Builder {
	// log -> config -> record -> router
	return []handler.Builder{log.NewHandler(), cfgBuilder, recordBuilder}
}

func initRootHandler(common []handler.Builder, r *router.Router) handler.Handler {
	return handler.NewCompositionHandler(common, r)
}

func newConfigBuilder(repo repository.ConfigRepository) *config.HandlerBuilder {
	return config.NewHandler(repo)
}

func newRecordBuilder(repo repository.LLMLogRepo) *record.HandlerBuilder {
	return record.NewHandler(repo)
}
