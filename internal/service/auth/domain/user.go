// internal/service/auth/domain/user.go
package domain

import "time"

// User 是认证服务拥有的用户身份，是整个平台的权威来源。
// 账号永远不做物理删除，注销只是翻 Active 标记。
type User struct {
	UUID         string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// AuthenticationRecord 是一行登录历史，只追加，永不修改。
type AuthenticationRecord struct {
	ID        uint
	UserUUID  string
	ClientID  string
	CreatedAt time.Time
}
