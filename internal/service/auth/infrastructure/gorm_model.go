// internal/service/auth/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// AuthUserModel 对应认证库的 users 表。
type AuthUserModel struct {
	UUID         string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:255;uniqueIndex"`
	FirstName    string `gorm:"size:255"`
	LastName     string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255"`
	Active       bool   `gorm:"default:true"`
	CreatedAt    time.Time
}

func (AuthUserModel) TableName() string { return "auth_users" }

// AuthHistoryModel 对应登录历史表，只插入不更新。
type AuthHistoryModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserUUID  string `gorm:"size:36;index"`
	ClientID  string `gorm:"size:255"`
	CreatedAt time.Time
}

func (AuthHistoryModel) TableName() string { return "auth_history" }

// AutoMigrate 建出认证侧的表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AuthUserModel{}, &AuthHistoryModel{})
}
