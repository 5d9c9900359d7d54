package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SkipSentinel is the reserved approver value meaning "this level requires
// no action". Matching is trimmed and case-insensitive; parsing lives in
// pkg/workflow, the raw string is only stored here.
const SkipSentinel = "none"

// TrainingDetail is the business payload of a request; the workflow engine
// never reads it.
type TrainingDetail struct {
	Course    string `json:"course"`
	Provider  string `json:"provider"`
	Venue     string `json:"venue"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Cost      int64  `json:"cost"`
	Reason    string `json:"reason"`
}

// TrainingRequest is the document under workflow control.
type TrainingRequest struct {
	gorm.Model
	Number string                             `gorm:"uniqueIndex;type:varchar(32);not null;comment:单号，创建时分配，之后不可变"`
	Title  string                             `gorm:"type:varchar(256);not null;comment:标题"`
	Detail datatypes.JSONType[TrainingDetail] `gorm:"comment:培训内容"`
	Status RequestStatus                      `gorm:"type:varchar(64);not null;default:Pending;comment:工作流状态"`

	CreatedBy string                       `gorm:"type:varchar(128);not null;comment:创建人邮箱"`
	CCList    datatypes.JSONType[[]string] `gorm:"comment:抄送列表"`

	Slots []ApprovalSlot `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// Slot returns the slot for a level, nil if the row is missing.
func (r *TrainingRequest) Slot(level ApprovalLevel) *ApprovalSlot {
	for i := range r.Slots {
		if r.Slots[i].Level == level {
			return &r.Slots[i]
		}
	}
	return nil
}

// ApprovalSlot is one approval level's assignment and outcome.
type ApprovalSlot struct {
	gorm.Model
	RequestID uint          `gorm:"uniqueIndex:idx_request_level;not null"`
	Level     ApprovalLevel `gorm:"uniqueIndex:idx_request_level;not null"`

	Approver  string     `gorm:"type:varchar(128);comment:审批人邮箱，none 表示跳过"`
	SubStatus SlotStatus `gorm:"type:varchar(32);not null;default:Pending;comment:本级结果"`
	Comment   string     `gorm:"type:varchar(512);comment:审批意见"`

	// Stamp, written exactly once when the slot leaves Pending.
	StampedBy string     `gorm:"type:varchar(128)"`
	StampedAt *time.Time `gorm:""`
}
