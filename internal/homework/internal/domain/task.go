package domain

import (
	"github.com/ecodeclub/homework/internal/grading"
)

// TaskStatus 后台任务状态
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// BackgroundTask 调用方脱离之后继续跑的解析任务。
// 脱离之后调用方不能再取消它，只能等它完成或者 TTL 到期被回收
type BackgroundTask struct {
	TaskId string
	Uid    int64
	Status TaskStatus
	// 成功才有
	Result *ParseResult
	// 按题 id 挂批改结果，绝不改写 ParseResult 本身
	Grades map[string]grading.GradeRecord
	// 失败才有
	ErrorCode string
	ErrorMsg  string
	CreatedAt int64
}
