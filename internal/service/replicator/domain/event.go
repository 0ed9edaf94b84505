// internal/service/replicator/domain/event.go
package domain

import "github.com/pkg/errors"

// 消费端订阅的两条持久化队列，对应两种生命周期事件。
const (
	TopicRegistration = "users.registration"
	TopicDelete       = "users.delete"
)

var ErrMalformedEvent = errors.New("malformed user lifecycle event")

// UserLifecycleEvent 是认证服务发出的用户快照。
// 消费端只依赖这三个字段，多余字段一律忽略。
type UserLifecycleEvent struct {
	UUID     string `json:"uuid"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// Validate 检查事件是否携带了可用的身份。
func (e *UserLifecycleEvent) Validate() error {
	if e.UUID == "" {
		return errors.Wrap(ErrMalformedEvent, "missing uuid")
	}
	return nil
}
