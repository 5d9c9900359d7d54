package workflow

import (
	"github.com/hris-lab/trainflow/dao/model"
)

// Chain is the fixed forward order of approval levels.
var Chain = []model.ApprovalLevel{
	model.LevelSectionManager,
	model.LevelDepartmentManager,
	model.LevelHRDAdmin,
	model.LevelHRDConfirmation,
	model.LevelManagingDirector,
	model.LevelDeputyManagingDirector,
}

var waitingStatus = map[model.ApprovalLevel]model.RequestStatus{
	model.LevelSectionManager:         model.StatusWaitingSectionManager,
	model.LevelDepartmentManager:      model.StatusWaitingDeptManager,
	model.LevelHRDAdmin:               model.StatusWaitingHRDAdmin,
	model.LevelHRDConfirmation:        model.StatusWaitingHRDConfirmation,
	model.LevelManagingDirector:       model.StatusWaitingManagingDir,
	model.LevelDeputyManagingDirector: model.StatusWaitingDeputyDir,
}

var levelForStatus = map[model.RequestStatus]model.ApprovalLevel{
	model.StatusWaitingSectionManager:  model.LevelSectionManager,
	model.StatusWaitingDeptManager:     model.LevelDepartmentManager,
	model.StatusWaitingHRDAdmin:        model.LevelHRDAdmin,
	model.StatusWaitingHRDConfirmation: model.LevelHRDConfirmation,
	model.StatusWaitingManagingDir:     model.LevelManagingDirector,
	model.StatusWaitingDeputyDir:       model.LevelDeputyManagingDirector,
}

// WaitingStatus maps a level onto the status that awaits it.
func WaitingStatus(level model.ApprovalLevel) model.RequestStatus {
	return waitingStatus[level]
}

// LevelForStatus resolves which level a waiting status is waiting on.
// ok is false for Pending, Revise, Revision Admin and the terminal states.
func LevelForStatus(status model.RequestStatus) (model.ApprovalLevel, bool) {
	level, ok := levelForStatus[status]
	return level, ok
}

// ResetScope selects which half of the chain a reset touches.
type ResetScope uint8

const (
	ScopeUpstream   ResetScope = iota + 1 // levels 1-3
	ScopeDownstream                       // levels 4-6
)

// Levels returns the slots covered by the scope, in chain order.
func (s ResetScope) Levels() []model.ApprovalLevel {
	if s == ScopeUpstream {
		return []model.ApprovalLevel{
			model.LevelSectionManager,
			model.LevelDepartmentManager,
			model.LevelHRDAdmin,
		}
	}
	return []model.ApprovalLevel{
		model.LevelHRDConfirmation,
		model.LevelManagingDirector,
		model.LevelDeputyManagingDirector,
	}
}
