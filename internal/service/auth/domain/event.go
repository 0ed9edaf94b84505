// internal/service/auth/domain/event.go
package domain

// EventKind 标识一次用户生命周期变更。
type EventKind string

const (
	EventRegistration EventKind = "registration"
	EventDelete       EventKind = "delete"
)

// Topic 返回事件对应的持久化 topic，每种事件一条队列。
func (k EventKind) Topic() string {
	switch k {
	case EventRegistration:
		return "users.registration"
	case EventDelete:
		return "users.delete"
	}
	return ""
}

// UserSnapshot 是放上消息总线的用户快照，消费方用它维护本地副本。
type UserSnapshot struct {
	UUID     string `json:"uuid"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}
