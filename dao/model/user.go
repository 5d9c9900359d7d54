package model

import (
	"gorm.io/gorm"
)

// User is the basic entity of the system
type User struct {
	gorm.Model
	Name     string  `gorm:"uniqueIndex;type:varchar(32);not null;comment:用户名"`
	Nickname *string `gorm:"type:varchar(64);comment:昵称"`
	Email    string  `gorm:"uniqueIndex;type:varchar(128);not null;comment:邮箱，审批身份标识"`
	Password *string `gorm:"type:varchar(128);comment:密码"`
	Role     Role    `gorm:"not null;default:1;comment:平台角色 (user, admin)"`
	Section  string  `gorm:"type:varchar(64);comment:部门"`
}
