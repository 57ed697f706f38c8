package canvas

import "prism-docs-api/internal/domain/entity"

// EventType 画布进度流事件类型
type EventType string

const (
	EventProgress EventType = "progress"
	EventReady    EventType = "ready"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event 画布进度流事件
// 每轮恰好一个终态事件（ready/complete/error）且总在最后。
type Event struct {
	Type    EventType
	State   entity.CanvasState
	Message string
	// Code 终态 error 携带的稳定错误码
	Code string
	// Session 终态 ready/complete 携带的会话快照
	Session *entity.CanvasSession
}

// Terminal 是否为终态事件
func (e Event) Terminal() bool {
	return e.Type != EventProgress
}

// EventSink 画布事件出口
type EventSink interface {
	Publish(event Event)
}

// EventSinkFunc 函数式 EventSink
type EventSinkFunc func(event Event)

// Publish 实现 EventSink
func (f EventSinkFunc) Publish(event Event) {
	f(event)
}
