package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ecodeclub/mq-api"
)

//go:generate mockgen -source=./producer.go -destination=../../mocks/producer.mock.go -package=homeworkmocks -typed=true TaskEventProducer
type TaskEventProducer interface {
	Produce(ctx context.Context, evt TaskCompletedEvent) error
}

type taskEventProducer struct {
	producer mq.Producer
}

func NewTaskEventProducer(producer mq.Producer) TaskEventProducer {
	return &taskEventProducer{producer: producer}
}

func (p *taskEventProducer) Produce(ctx context.Context, evt TaskCompletedEvent) error {
	data, err := json.Marshal(&evt)
	if err != nil {
		return fmt.Errorf("序列化失败: %w", err)
	}
	_, err = p.producer.Produce(ctx, &mq.Message{Value: data})
	if err != nil {
		return fmt.Errorf("发送任务完成消息失败: %w", err)
	}
	return nil
}
