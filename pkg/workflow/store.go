package workflow

import (
	"context"
	"time"

	"github.com/hris-lab/trainflow/dao/model"
)

// Stamp is the immutable approve-info written when a slot leaves Pending.
type Stamp struct {
	Identity string
	At       time.Time
}

// RecordStore is the persistence boundary of the coordinator. The gorm
// implementation lives in dao/store; tests use an in-memory fake.
type RecordStore interface {
	Get(ctx context.Context, id uint) (*model.TrainingRequest, error)
	UpdateStatus(ctx context.Context, id uint, status model.RequestStatus, actor string) error
	UpdateSlot(ctx context.Context, id uint, level model.ApprovalLevel,
		sub model.SlotStatus, comment string, stamp *Stamp) error
	ResetSlots(ctx context.Context, id uint, levels []model.ApprovalLevel) error
	AppendAudit(ctx context.Context, entry *model.ApprovalHistory) error

	// Transaction runs fn against a store bound to one transaction; the
	// permission re-check after entering it is mandatory.
	Transaction(ctx context.Context, fn func(RecordStore) error) error
}

// Notification is one outbound message. The coordinator decides who goes in
// each field per transition kind; the transport only delivers.
type Notification struct {
	RequestID     uint
	To            []string
	Cc            []string
	Subject       string
	Body          string
	Category      model.NotificationCategory
	CorrelationID string
}

// Notifier delivers a notification and records the outcome per recipient.
// Delivery is fire-and-forget relative to the state transition.
type Notifier interface {
	Send(ctx context.Context, n *Notification) error
}
