package helper

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hris-lab/trainflow/dao/query"
	"github.com/hris-lab/trainflow/dao/store"
	"github.com/hris-lab/trainflow/internal/handler"
	"github.com/hris-lab/trainflow/pkg/config"
	"github.com/hris-lab/trainflow/pkg/notify"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

// ConfigInitializer wraps the startup wiring.
type ConfigInitializer struct {
	backendConfig *config.Config
}

func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment loads .debug.env overrides in debug mode.
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	err := godotenv.Load(".debug.env")
	if err != nil {
		return err
	}

	be := os.Getenv("TRAINFLOW_BE_PORT")
	if be == "" {
		panic("TRAINFLOW_BE_PORT is not set")
	}
	ms := os.Getenv("TRAINFLOW_MS_PORT")
	if ms == "" {
		panic("TRAINFLOW_MS_PORT is not set")
	}

	ci.backendConfig.ServerAddr = ":" + be
	ci.backendConfig.MetricsAddr = ":" + ms

	return nil
}

// InitializeRegisterConfig wires db, notifier and coordinator into the
// handler dependencies.
func (ci *ConfigInitializer) InitializeRegisterConfig() (*handler.RegisterConfig, error) {
	db := query.GetDB()

	mailer := notify.NewMailer(db)
	coordinator := workflow.NewCoordinator(store.NewGormStore(db), mailer)

	return &handler.RegisterConfig{
		DB:          db,
		Coordinator: coordinator,
	}, nil
}
