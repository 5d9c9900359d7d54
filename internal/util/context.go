package util

import (
	"github.com/gin-gonic/gin"

	"github.com/hris-lab/trainflow/dao/model"
)

const (
	UserIDKey   = "x-user-id"
	UsernameKey = "x-user-name"
	EmailKey    = "x-user-email"
	RoleKey     = "x-user-role"
)

func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(EmailKey, msg.Email)
	c.Set(RoleKey, msg.Role)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)
	msg.Email = ctx.GetString(EmailKey)

	role, _ := ctx.Get(RoleKey)
	if r, ok := role.(model.Role); ok {
		msg.Role = r
	}
	return msg
}
