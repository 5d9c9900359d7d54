package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/pkg/config"
	"github.com/hris-lab/trainflow/pkg/constants"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

// Manager re-sends the approval-request mail for documents that have been
// sitting in a waiting state too long. It only sends mail; workflow state is
// never mutated here.
type Manager struct {
	cron  *cron.Cron
	db    *gorm.DB
	coord *workflow.Coordinator
}

func NewManager(db *gorm.DB, coord *workflow.Coordinator) *Manager {
	return &Manager{
		cron:  cron.New(),
		db:    db,
		coord: coord,
	}
}

// Start registers the reminder schedule if enabled in config.
func (m *Manager) Start() error {
	conf := config.GetConfig().Reminder
	if !conf.Enable {
		klog.Info("reminder cron disabled")
		return nil
	}
	if _, err := m.cron.AddFunc(conf.Spec, m.run); err != nil {
		return err
	}
	m.cron.Start()
	klog.Infof("reminder cron started with spec %q", conf.Spec)
	return nil
}

func (m *Manager) Stop() {
	m.cron.Stop()
}

var waitingStatuses = []model.RequestStatus{
	model.StatusWaitingSectionManager,
	model.StatusWaitingDeptManager,
	model.StatusWaitingHRDAdmin,
	model.StatusWaitingHRDConfirmation,
	model.StatusWaitingManagingDir,
	model.StatusWaitingDeputyDir,
	model.StatusRevisionAdmin,
}

func (m *Manager) run() {
	conf := config.GetConfig().Reminder
	cutoff := time.Now().AddDate(0, 0, -conf.StaleDays)

	var stale []model.TrainingRequest
	err := m.db.
		Where("status IN ?", waitingStatuses).
		Where("updated_at < ?", cutoff).
		Find(&stale).Error
	if err != nil {
		klog.Errorf("reminder scan failed: %v", err)
		return
	}
	ctx := context.Background()
	for i := range stale {
		result, err := m.coord.RetryNotification(ctx, stale[i].ID, "system", constants.ReminderOrigin)
		if err != nil {
			klog.Warningf("reminder for request %d failed: %v", stale[i].ID, err)
			continue
		}
		if !result.Success {
			klog.Infof("reminder for request %d: %s", stale[i].ID, result.Message)
		}
	}
	klog.Infof("reminder cron finished, %d stale request(s) scanned", len(stale))
}
