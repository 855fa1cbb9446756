package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/pkg/errors"
)

var ErrTaskNotFound = errors.New("任务没找到")

// 任务只保留一小时，到期自动回收，不需要显式清理
const taskExpiration = time.Hour

type TaskCache interface {
	Get(ctx context.Context, taskId string) (domain.BackgroundTask, error)
	Set(ctx context.Context, task domain.BackgroundTask) error
}

type TaskECache struct {
	ec ecache.Cache
}

func NewTaskECache(ec ecache.Cache) TaskCache {
	return &TaskECache{
		ec: &ecache.NamespaceCache{
			Namespace: "homework:task:",
			C:         ec,
		},
	}
}

func (c *TaskECache) Get(ctx context.Context, taskId string) (domain.BackgroundTask, error) {
	val := c.ec.Get(ctx, taskId)
	if val.KeyNotFound() {
		return domain.BackgroundTask{}, ErrTaskNotFound
	}
	if val.Err != nil {
		return domain.BackgroundTask{}, errors.Wrap(val.Err, "查询任务缓存出错")
	}
	var task domain.BackgroundTask
	err := json.Unmarshal([]byte(val.Val.(string)), &task)
	if err != nil {
		return domain.BackgroundTask{}, errors.Wrap(err, "反序列化任务失败")
	}
	return task, nil
}

func (c *TaskECache) Set(ctx context.Context, task domain.BackgroundTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "序列化任务失败")
	}
	return c.ec.Set(ctx, task.TaskId, string(data), taskExpiration)
}
