package internal

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/hris-lab/trainflow/internal/handler"
	"github.com/hris-lab/trainflow/internal/middleware"
	"github.com/hris-lab/trainflow/pkg/constants"
)

// Register assembles the gin engine: health check, swagger, and the
// public/protected/admin groups of every registered manager.
func Register(config *handler.RegisterConfig) *gin.Engine {
	r := gin.Default()

	// Enable CORS for http://localhost:XXXX in debug mode
	if gin.Mode() == gin.DebugMode {
		fe := os.Getenv("TRAINFLOW_FE_PORT")
		if fe != "" {
			url := "http://localhost:" + fe
			corsConf := cors.DefaultConfig()
			corsConf.AllowOrigins = []string{url}
			corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization")
			r.Use(cors.New(corsConf))
		}
	}

	r.GET("/"+constants.APIPrefix+"/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	managers := registerManagers(config)

	publicRouter := r.Group(constants.APIPrefix)

	protectedRouter := r.Group(constants.APIPrefix)
	protectedRouter.Use(middleware.AuthProtected())

	adminRouter := r.Group(constants.APIPrefix + "/admin")
	adminRouter.Use(middleware.AuthProtected(), middleware.AuthAdmin())

	for _, mgr := range managers {
		mgr.RegisterPublic(publicRouter)
		mgr.RegisterProtected(protectedRouter.Group(mgr.GetName()))
		mgr.RegisterAdmin(adminRouter.Group(mgr.GetName()))
	}

	return r
}
