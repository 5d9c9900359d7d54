package model

import (
	"gorm.io/gorm"
)

// ApprovalHistory is the append-only audit trail: one row per coordinator
// action that mutated state (plus RETRY rows, which mutate nothing but are
// kept for troubleshooting). Rows are never updated or deleted.
type ApprovalHistory struct {
	gorm.Model
	RequestID uint          `gorm:"index;not null"`
	Role      string        `gorm:"type:varchar(64);comment:以哪个审批角色操作"`
	Actor     string        `gorm:"type:varchar(128);not null;comment:操作人邮箱"`
	Action    ActionKind    `gorm:"type:varchar(32);not null"`
	Comment   string        `gorm:"type:varchar(512)"`
	FromState RequestStatus `gorm:"type:varchar(64)"`
	ToState   RequestStatus `gorm:"type:varchar(64)"`
	Origin    string        `gorm:"type:varchar(64);comment:调用方来源地址"`
}

// NotificationRecord is one row per message actually dispatched, one per
// recipient even when sent as a single multi-recipient SMTP call.
// Write-only; the engine never reads it back.
type NotificationRecord struct {
	gorm.Model
	RequestID     uint                 `gorm:"index"`
	Recipient     string               `gorm:"type:varchar(128);not null"`
	Category      NotificationCategory `gorm:"type:varchar(32);not null"`
	Subject       string               `gorm:"type:varchar(256)"`
	Outcome       NotificationOutcome  `gorm:"type:varchar(16);not null"`
	Error         string               `gorm:"type:varchar(512)"`
	CorrelationID string               `gorm:"type:varchar(64);index"`
}
