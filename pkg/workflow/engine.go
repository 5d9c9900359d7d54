package workflow

import (
	"fmt"

	"github.com/hris-lab/trainflow/dao/model"
)

// The transition engine is pure: it maps (current status, assignments) onto
// the next status and never touches storage.

// FirstStatus computes the state a fresh submission enters, scanning the
// chain for the first level that actually has an approver. SectionManager
// must be assigned or skipped explicitly; HRDAdmin and HRDConfirmation are
// mandatory gatekeepers and can be neither skipped nor left empty.
func FirstStatus(asg Assignments) (model.RequestStatus, error) {
	if asg[model.LevelSectionManager].IsUnassigned() {
		return "", fmt.Errorf("%w: section manager is not assigned", ErrValidation)
	}
	if !asg[model.LevelHRDAdmin].IsAssigned() {
		return "", fmt.Errorf("%w: HRD admin is a mandatory approver", ErrValidation)
	}
	if !asg[model.LevelHRDConfirmation].IsAssigned() {
		return "", fmt.Errorf("%w: HRD confirmation is a mandatory approver", ErrValidation)
	}
	return scanFrom(0, asg), nil
}

// NextStatus computes the forward transition from a waiting status after the
// awaited approver approved. From Revision Admin the target is always the
// HRD confirmation level; the lower levels are not revisited on re-entry.
func NextStatus(current model.RequestStatus, asg Assignments) (model.RequestStatus, error) {
	if current == model.StatusRevisionAdmin {
		return model.StatusWaitingHRDConfirmation, nil
	}
	level, ok := LevelForStatus(current)
	if !ok {
		return "", fmt.Errorf("%w: no forward transition from %q", ErrValidation, current)
	}
	for i, l := range Chain {
		if l == level {
			return scanFrom(i+1, asg), nil
		}
	}
	return "", fmt.Errorf("%w: unknown level %v", ErrValidation, level)
}

// scanFrom returns the waiting status of the first level at or after idx
// with a real approver. A slot that is skipped or empty has nobody to wait
// on, so it is passed over either way.
func scanFrom(idx int, asg Assignments) model.RequestStatus {
	for i := idx; i < len(Chain); i++ {
		if asg[Chain[i]].IsAssigned() {
			return WaitingStatus(Chain[i])
		}
	}
	return model.StatusApproved
}

// reviseTargets encodes the two send-back semantics: the upstream roles
// return the document to its creator, the downstream roles return it to the
// HRD admin only.
var reviseTargets = map[model.ApprovalLevel]model.RequestStatus{
	model.LevelSectionManager:         model.StatusRevise,
	model.LevelDepartmentManager:      model.StatusRevise,
	model.LevelHRDAdmin:               model.StatusRevise,
	model.LevelHRDConfirmation:        model.StatusRevisionAdmin,
	model.LevelManagingDirector:       model.StatusRevisionAdmin,
	model.LevelDeputyManagingDirector: model.StatusRevisionAdmin,
}

// ReviseTarget returns where a send-back from the given level lands.
func ReviseTarget(level model.ApprovalLevel) (model.RequestStatus, error) {
	target, ok := reviseTargets[level]
	if !ok {
		return "", fmt.Errorf("%w: unknown level %v", ErrValidation, level)
	}
	return target, nil
}

// ApproverFor resolves the slot the given status is waiting on, the same way
// the forward engine does. ok is false when the status waits on nobody
// (Pending, Revise, terminal states).
func ApproverFor(status model.RequestStatus, asg Assignments) (model.ApprovalLevel, Assignment, bool) {
	if status == model.StatusRevisionAdmin {
		return model.LevelHRDAdmin, asg[model.LevelHRDAdmin], true
	}
	level, ok := LevelForStatus(status)
	if !ok {
		return 0, Assignment{}, false
	}
	return level, asg[level], true
}
