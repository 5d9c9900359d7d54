package main

import (
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/cmd/trainflow/helper"
	"github.com/hris-lab/trainflow/dao/query"
	"github.com/hris-lab/trainflow/pkg/reminder"
)

// @title						TrainFlow API
// @version					1.0.0
// @description				API server for TrainFlow, the internal HR training-request approval system.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description				Obtain a TOKEN via /login and pass 'Bearer ${TOKEN}' to access protected routes
func main() {
	// Initialize configuration
	configInit := helper.NewConfigInitializer()
	backendConfig := configInit.GetBackendConfig()

	// Load debug environment if needed
	if err := configInit.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	// Initialize register config and dependencies
	registerConfig, err := configInit.InitializeRegisterConfig()
	if err != nil {
		klog.Fatalf("Failed to register config: %s\n", err)
	}

	// Reminder cron for stale waiting documents
	reminderMgr := reminder.NewManager(query.GetDB(), registerConfig.Coordinator)
	if err := reminderMgr.Start(); err != nil {
		klog.Fatalf("Failed to start reminder cron: %s", err)
	}
	defer reminderMgr.Stop()

	// Setup server runner
	serverRunner := helper.NewServerRunner(backendConfig)
	serverRunner.StartMetricsServer()
	serverRunner.StartServer(registerConfig)
}
