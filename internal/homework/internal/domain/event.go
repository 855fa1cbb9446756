package domain

// DeliveryEventType 流式交付的事件类型
type DeliveryEventType string

const (
	EventStart   DeliveryEventType = "start"
	EventContent DeliveryEventType = "content"
	EventEnd     DeliveryEventType = "end"
	// 二次增强，严格排在 end 之后
	EventSuggestions DeliveryEventType = "suggestions"
	EventError       DeliveryEventType = "error"
)

// DeliveryEvent 流式交付的一帧
type DeliveryEvent struct {
	Type DeliveryEventType
	// start：选中的平台
	Provider string
	// content：累积内容 + 本帧增量
	Content string
	Delta   string
	// end：统计信息
	Tokens       int64
	FinishReason string
	ElapsedMs    int64
	// suggestions
	Items []string
	// error
	Message string
}
