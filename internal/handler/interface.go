package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hris-lab/trainflow/pkg/workflow"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared dependencies handler managers need.
type RegisterConfig struct {
	DB          *gorm.DB
	Coordinator *workflow.Coordinator
}

type Register func(*RegisterConfig) Manager

// Registers collects the handler constructors; each handler file appends
// itself in an init().
var Registers []Register
