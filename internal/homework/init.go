package homework

import (
	"time"

	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework/internal/event"
	"github.com/ecodeclub/homework/internal/homework/internal/repository"
	"github.com/ecodeclub/homework/internal/homework/internal/service"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/ecodeclub/mq-api"
	"github.com/gotomicro/ego/core/econf"
)

func initProducer(q mq.MQ) (event.TaskEventProducer, error) {
	p, err := q.Producer(event.TaskCompletedEvent{}.Topic())
	if err != nil {
		return nil, err
	}
	return event.NewTaskEventProducer(p), nil
}

// initService 超时都可以在配置里调，不配就用默认值
func initService(aiSvc llm.Service,
	gradeSvc grading.Service,
	taskRepo repository.TaskRepository,
	producer event.TaskEventProducer) Service {
	type Config struct {
		HierarchicalTimeoutSecs int `yaml:"hierarchicalTimeoutSecs"`
		FlatTimeoutSecs         int `yaml:"flatTimeoutSecs"`
		DetachAfterSecs         int `yaml:"detachAfterSecs"`
	}
	cfg := Config{
		HierarchicalTimeoutSecs: 300,
		FlatTimeoutSecs:         180,
		DetachAfterSecs:         10,
	}
	_ = econf.UnmarshalKey("homework", &cfg)
	return service.NewParseService(aiSvc, gradeSvc, taskRepo, producer,
		service.WithTimeouts(
			time.Duration(cfg.HierarchicalTimeoutSecs)*time.Second,
			time.Duration(cfg.FlatTimeoutSecs)*time.Second),
		service.WithDetachAfter(time.Duration(cfg.DetachAfterSecs)*time.Second))
}
