// Migration runner: applies the gormigrate list against the configured
// postgres database.
package main

import (
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/dao/migrations"
	"github.com/hris-lab/trainflow/dao/query"
)

func main() {
	db := query.GetDB()
	if err := migrations.Migrate(db); err != nil {
		klog.Fatalf("migration failed: %s", err)
	}
	klog.Info("migration finished")
}
