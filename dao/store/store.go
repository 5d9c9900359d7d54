package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

// GormStore implements workflow.RecordStore on top of gorm/postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, id uint) (*model.TrainingRequest, error) {
	var req model.TrainingRequest
	err := s.db.WithContext(ctx).Preload("Slots").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: training request %d", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrPersistence, err)
	}
	return &req, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, id uint, status model.RequestStatus, _ string) error {
	res := s.db.WithContext(ctx).
		Model(&model.TrainingRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", workflow.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: training request %d", workflow.ErrNotFound, id)
	}
	return nil
}

func (s *GormStore) UpdateSlot(ctx context.Context, id uint, level model.ApprovalLevel,
	sub model.SlotStatus, comment string, stamp *workflow.Stamp) error {
	tx := s.db.WithContext(ctx).
		Model(&model.ApprovalSlot{}).
		Where("request_id = ? AND level = ?", id, level)
	res := tx.Updates(map[string]any{
		"sub_status": sub,
		"comment":    comment,
	})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", workflow.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: slot %v of training request %d", workflow.ErrNotFound, level, id)
	}
	if stamp != nil {
		// The stamp is written exactly once; a slot that was stamped before
		// keeps its original approve-info.
		err := s.db.WithContext(ctx).
			Model(&model.ApprovalSlot{}).
			Where("request_id = ? AND level = ? AND stamped_at IS NULL", id, level).
			Updates(map[string]any{
				"stamped_by": stamp.Identity,
				"stamped_at": stamp.At,
			}).Error
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrPersistence, err)
		}
	}
	return nil
}

func (s *GormStore) ResetSlots(ctx context.Context, id uint, levels []model.ApprovalLevel) error {
	err := s.db.WithContext(ctx).
		Model(&model.ApprovalSlot{}).
		Where("request_id = ? AND level IN ?", id, levels).
		Updates(map[string]any{
			"sub_status": model.SlotPending,
			"comment":    "",
			"stamped_by": "",
			"stamped_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrPersistence, err)
	}
	return nil
}

func (s *GormStore) AppendAudit(ctx context.Context, entry *model.ApprovalHistory) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrPersistence, err)
	}
	return nil
}

// Transaction runs fn against a store bound to a single database
// transaction, so slot, status and audit writes commit or roll back as one.
func (s *GormStore) Transaction(ctx context.Context, fn func(workflow.RecordStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
