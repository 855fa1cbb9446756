package repository

import (
	"context"

	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/homework/internal/repository/cache"
)

var ErrTaskNotFound = cache.ErrTaskNotFound

// TaskRepository 后台任务登记处。任务体量不大、生命周期短，
// 只存缓存不落库，过期自动消失
//
//go:generate mockgen -source=./task.go -destination=../../mocks/task.mock.go -package=homeworkmocks -typed=true TaskRepository
type TaskRepository interface {
	Get(ctx context.Context, taskId string) (domain.BackgroundTask, error)
	Save(ctx context.Context, task domain.BackgroundTask) error
}

type taskRepository struct {
	cache cache.TaskCache
}

func NewTaskRepository(c cache.TaskCache) TaskRepository {
	return &taskRepository{cache: c}
}

func (r *taskRepository) Get(ctx context.Context, taskId string) (domain.BackgroundTask, error) {
	return r.cache.Get(ctx, taskId)
}

func (r *taskRepository) Save(ctx context.Context, task domain.BackgroundTask) error {
	return r.cache.Set(ctx, task)
}
