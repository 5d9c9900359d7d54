package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hris-lab/trainflow/dao/model"
)

func assignments(approvers map[model.ApprovalLevel]string) Assignments {
	asg := make(Assignments, len(Chain))
	for _, level := range Chain {
		asg[level] = ParseAssignment(approvers[level])
	}
	return asg
}

func fullChain() map[model.ApprovalLevel]string {
	return map[model.ApprovalLevel]string{
		model.LevelSectionManager:         "alice@corp.example",
		model.LevelDepartmentManager:      "dave@corp.example",
		model.LevelHRDAdmin:               "bob@corp.example",
		model.LevelHRDConfirmation:        "carol@corp.example",
		model.LevelManagingDirector:       "mia@corp.example",
		model.LevelDeputyManagingDirector: "noah@corp.example",
	}
}

func TestParseAssignment(t *testing.T) {
	assert.True(t, ParseAssignment("").IsUnassigned())
	assert.True(t, ParseAssignment("   ").IsUnassigned())
	assert.True(t, ParseAssignment("none").IsSkipped())
	assert.True(t, ParseAssignment(" NONE ").IsSkipped())
	assert.True(t, ParseAssignment("None").IsSkipped())

	a := ParseAssignment("  Alice@corp.example ")
	assert.True(t, a.IsAssigned())
	assert.Equal(t, "Alice@corp.example", a.Identity())
	assert.True(t, a.Matches("alice@CORP.example"))
	assert.False(t, a.Matches("alice"))
}

func TestFirstStatus(t *testing.T) {
	t.Run("full chain starts at section manager", func(t *testing.T) {
		first, err := FirstStatus(assignments(fullChain()))
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingSectionManager, first)
	})

	t.Run("both lower levels skipped starts at hrd admin", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelSectionManager] = "none"
		approvers[model.LevelDepartmentManager] = "none"
		first, err := FirstStatus(assignments(approvers))
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingHRDAdmin, first)
	})

	t.Run("unassigned section manager fails", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelSectionManager] = ""
		_, err := FirstStatus(assignments(approvers))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("hrd admin is mandatory", func(t *testing.T) {
		for _, bad := range []string{"", "none"} {
			approvers := fullChain()
			approvers[model.LevelHRDAdmin] = bad
			_, err := FirstStatus(assignments(approvers))
			assert.ErrorIs(t, err, ErrValidation)
		}
	})

	t.Run("hrd confirmation is mandatory", func(t *testing.T) {
		for _, bad := range []string{"", "none"} {
			approvers := fullChain()
			approvers[model.LevelHRDConfirmation] = bad
			_, err := FirstStatus(assignments(approvers))
			assert.ErrorIs(t, err, ErrValidation)
		}
	})
}

func TestNextStatus(t *testing.T) {
	t.Run("walks the chain in order", func(t *testing.T) {
		asg := assignments(fullChain())
		steps := []struct {
			from model.RequestStatus
			to   model.RequestStatus
		}{
			{model.StatusWaitingSectionManager, model.StatusWaitingDeptManager},
			{model.StatusWaitingDeptManager, model.StatusWaitingHRDAdmin},
			{model.StatusWaitingHRDAdmin, model.StatusWaitingHRDConfirmation},
			{model.StatusWaitingHRDConfirmation, model.StatusWaitingManagingDir},
			{model.StatusWaitingManagingDir, model.StatusWaitingDeputyDir},
			{model.StatusWaitingDeputyDir, model.StatusApproved},
		}
		for _, step := range steps {
			next, err := NextStatus(step.from, asg)
			require.NoError(t, err)
			assert.Equal(t, step.to, next, "from %s", step.from)
		}
	})

	t.Run("skips levels without a real approver", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelDepartmentManager] = "none"
		approvers[model.LevelManagingDirector] = "none"
		approvers[model.LevelDeputyManagingDirector] = ""
		asg := assignments(approvers)

		next, err := NextStatus(model.StatusWaitingSectionManager, asg)
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingHRDAdmin, next)

		next, err = NextStatus(model.StatusWaitingHRDConfirmation, asg)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, next)
	})

	t.Run("revision admin always re-enters at hrd confirmation", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelSectionManager] = "none"
		next, err := NextStatus(model.StatusRevisionAdmin, assignments(approvers))
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingHRDConfirmation, next)
	})

	t.Run("no forward transition from non-waiting states", func(t *testing.T) {
		asg := assignments(fullChain())
		for _, status := range []model.RequestStatus{
			model.StatusPending, model.StatusRevise, model.StatusApproved, model.StatusRejected,
		} {
			_, err := NextStatus(status, asg)
			assert.ErrorIs(t, err, ErrValidation, "from %s", status)
		}
	})
}

func TestReviseTarget(t *testing.T) {
	upstream := []model.ApprovalLevel{
		model.LevelSectionManager, model.LevelDepartmentManager, model.LevelHRDAdmin,
	}
	for _, level := range upstream {
		target, err := ReviseTarget(level)
		require.NoError(t, err)
		assert.Equal(t, model.StatusRevise, target, "level %s", level)
	}

	downstream := []model.ApprovalLevel{
		model.LevelHRDConfirmation, model.LevelManagingDirector, model.LevelDeputyManagingDirector,
	}
	for _, level := range downstream {
		target, err := ReviseTarget(level)
		require.NoError(t, err)
		assert.Equal(t, model.StatusRevisionAdmin, target, "level %s", level)
	}
}

func TestApproverFor(t *testing.T) {
	asg := assignments(fullChain())

	level, a, ok := ApproverFor(model.StatusWaitingHRDConfirmation, asg)
	require.True(t, ok)
	assert.Equal(t, model.LevelHRDConfirmation, level)
	assert.Equal(t, "carol@corp.example", a.Identity())

	level, a, ok = ApproverFor(model.StatusRevisionAdmin, asg)
	require.True(t, ok)
	assert.Equal(t, model.LevelHRDAdmin, level)
	assert.Equal(t, "bob@corp.example", a.Identity())

	for _, status := range []model.RequestStatus{
		model.StatusPending, model.StatusRevise, model.StatusApproved, model.StatusRejected,
	} {
		_, _, ok = ApproverFor(status, asg)
		assert.False(t, ok, "status %s", status)
	}
}

func TestResetScopeLevels(t *testing.T) {
	assert.Equal(t, []model.ApprovalLevel{
		model.LevelSectionManager, model.LevelDepartmentManager, model.LevelHRDAdmin,
	}, ScopeUpstream.Levels())
	assert.Equal(t, []model.ApprovalLevel{
		model.LevelHRDConfirmation, model.LevelManagingDirector, model.LevelDeputyManagingDirector,
	}, ScopeDownstream.Levels())
}
