// internal/service/loyalty/domain/user.go
package domain

// User 是认证服务用户在本地的只读副本，只保留权益判定需要的字段。
// 它由 sync-worker 异步维护，永远不能当作身份的权威来源。
type User struct {
	UUID     string
	Email    string
	IsActive bool
	GroupIDs []uint
}

// Group 是本地的用户分组，权益可以整组授予。
type Group struct {
	ID          uint
	Name        string
	Description string
}
