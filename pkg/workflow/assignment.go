package workflow

import (
	"strings"

	"github.com/hris-lab/trainflow/dao/model"
)

// AssignmentKind tags the three cases an approver column can hold.
type AssignmentKind uint8

const (
	Unassigned AssignmentKind = iota
	Skipped
	Assigned
)

// Assignment is the parsed approver value of one slot. Parsing happens once
// here so the skip sentinel's trimming and case rules live in one place.
type Assignment struct {
	kind     AssignmentKind
	identity string
}

func ParseAssignment(raw string) Assignment {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Assignment{kind: Unassigned}
	}
	if strings.EqualFold(v, model.SkipSentinel) {
		return Assignment{kind: Skipped}
	}
	return Assignment{kind: Assigned, identity: v}
}

func (a Assignment) IsAssigned() bool   { return a.kind == Assigned }
func (a Assignment) IsSkipped() bool    { return a.kind == Skipped }
func (a Assignment) IsUnassigned() bool { return a.kind == Unassigned }

// Identity returns the approver identity, empty unless assigned.
func (a Assignment) Identity() string { return a.identity }

// Matches reports whether actor is this slot's approver. Exact identity
// equality, case-insensitive, no partial or role-based matching.
func (a Assignment) Matches(actor string) bool {
	return a.kind == Assigned && strings.EqualFold(a.identity, strings.TrimSpace(actor))
}

// Assignments indexes the parsed approver of every level.
type Assignments map[model.ApprovalLevel]Assignment

func AssignmentsOf(req *model.TrainingRequest) Assignments {
	asg := make(Assignments, len(Chain))
	for _, level := range Chain {
		if slot := req.Slot(level); slot != nil {
			asg[level] = ParseAssignment(slot.Approver)
		} else {
			asg[level] = Assignment{kind: Unassigned}
		}
	}
	return asg
}
