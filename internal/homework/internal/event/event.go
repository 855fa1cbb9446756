package event

// TaskCompletedEvent 后台任务有结果之后发出的通知意图，
// 由通知侧消费并决定推送渠道。任务成功失败都会发
type TaskCompletedEvent struct {
	TaskId string `json:"taskId"`
	Uid    int64  `json:"uid"`
	Status string `json:"status"`
	// 失败才有
	ErrorCode string `json:"errorCode,omitempty"`
}

func (TaskCompletedEvent) Topic() string {
	return "homework_task_completed_events"
}
