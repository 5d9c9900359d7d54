package workflow

import (
	"github.com/hris-lab/trainflow/dao/model"
)

// deniedReason is deliberately the same for every denial so the response
// does not leak which approver the document is waiting on.
const deniedReason = "not authorized to act on this document in its current state"

// Decision is the outcome of a permission check. Role carries the matched
// role name so the coordinator knows which slot to mutate.
type Decision struct {
	Allowed bool                `json:"allowed"`
	Level   model.ApprovalLevel `json:"-"`
	Role    string              `json:"role,omitempty"`
	Reason  string              `json:"reason,omitempty"`
}

// CanAct decides whether actor may act on the document at its current
// status. Pure: no side effects, no storage access.
func CanAct(req *model.TrainingRequest, actor string) Decision {
	var level model.ApprovalLevel
	if req.Status == model.StatusRevisionAdmin {
		// Re-entry path: the HRD admin remediates downstream send-backs.
		level = model.LevelHRDAdmin
	} else {
		l, ok := LevelForStatus(req.Status)
		if !ok {
			return Decision{Reason: deniedReason}
		}
		level = l
	}

	slot := req.Slot(level)
	if slot == nil {
		return Decision{Reason: deniedReason}
	}
	if !ParseAssignment(slot.Approver).Matches(actor) {
		return Decision{Reason: deniedReason}
	}
	return Decision{Allowed: true, Level: level, Role: level.String()}
}
