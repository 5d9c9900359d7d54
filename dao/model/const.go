// 定义与数据库表字段对应的常量
// 由于 Gin 框架在进行参数校验时，如果给了 required 标签，则不能传入零值
// 这个时候，我们可以通过定义对应类型的指针解决该问题，但这可能导致出错
// 所以在定义常量时，最好将零值排除在外，请使用 iota + 1 定义第一个常量
package model

// User role in platform
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// ApprovalLevel is the position of one approval slot in the fixed chain.
// The numeric order is the forward order of the workflow.
type ApprovalLevel uint8

const (
	LevelSectionManager ApprovalLevel = iota + 1
	LevelDepartmentManager
	LevelHRDAdmin
	LevelHRDConfirmation
	LevelManagingDirector
	LevelDeputyManagingDirector
)

// String returns the role name recorded in audit entries and permission results.
func (l ApprovalLevel) String() string {
	switch l {
	case LevelSectionManager:
		return "SectionManager"
	case LevelDepartmentManager:
		return "DepartmentManager"
	case LevelHRDAdmin:
		return "HRDAdmin"
	case LevelHRDConfirmation:
		return "HRDConfirmation"
	case LevelManagingDirector:
		return "ManagingDirector"
	case LevelDeputyManagingDirector:
		return "DeputyManagingDirector"
	default:
		return "Unknown"
	}
}

// RequestStatus is the overall workflow state of a training request.
// It is the single source of truth for whose turn it is.
type RequestStatus string

const (
	StatusPending                RequestStatus = "Pending"
	StatusWaitingSectionManager  RequestStatus = "WAITING_FOR_SECTION_MANAGER"
	StatusWaitingDeptManager     RequestStatus = "WAITING_FOR_DEPARTMENT_MANAGER"
	StatusWaitingHRDAdmin        RequestStatus = "WAITING_FOR_HRD_ADMIN"
	StatusWaitingHRDConfirmation RequestStatus = "WAITING_FOR_HRD_CONFIRMATION"
	StatusWaitingManagingDir     RequestStatus = "WAITING_FOR_MANAGING_DIRECTOR"
	StatusWaitingDeputyDir       RequestStatus = "WAITING_FOR_DEPUTY_MANAGING_DIRECTOR"
	StatusRevise                 RequestStatus = "Revise"
	StatusRevisionAdmin          RequestStatus = "Revision Admin"
	StatusApproved               RequestStatus = "APPROVED"
	StatusRejected               RequestStatus = "REJECTED"
)

// Terminal reports whether no further workflow action is valid.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// SlotStatus is the per-level outcome, independent of the overall status.
type SlotStatus string

const (
	SlotPending  SlotStatus = "Pending"
	SlotApproved SlotStatus = "APPROVED"
	SlotRevise   SlotStatus = "Revise"
	SlotRejected SlotStatus = "REJECTED"
)

// ActionKind is the kind of one coordinator action in the audit trail.
type ActionKind string

const (
	ActionSubmitted ActionKind = "SUBMITTED"
	ActionApproved  ActionKind = "APPROVED"
	ActionRevise    ActionKind = "Revise"
	ActionRejected  ActionKind = "REJECTED"
	ActionRetry     ActionKind = "RETRY"
)

// NotificationCategory classifies one dispatched message.
type NotificationCategory string

const (
	NotifyPendingNotice   NotificationCategory = "PENDING_NOTICE"
	NotifyApprovalRequest NotificationCategory = "APPROVAL_REQUEST"
	NotifyProgress        NotificationCategory = "APPROVAL_PROGRESS"
	NotifyFinalApproval   NotificationCategory = "FINAL_APPROVAL"
	NotifyReviseNotice    NotificationCategory = "REVISE_NOTICE"
	NotifyRevisionAdmin   NotificationCategory = "REVISION_ADMIN_NOTICE"
	NotifyRejectNotice    NotificationCategory = "REJECT_NOTICE"
	NotifyRetryRequest    NotificationCategory = "RETRY_REQUEST"
)

// NotificationOutcome is the delivery outcome for one recipient.
type NotificationOutcome string

const (
	NotifySent   NotificationOutcome = "SENT"
	NotifyFailed NotificationOutcome = "FAILED"
)
