package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hris-lab/trainflow/dao/model"
)

func requestWith(status model.RequestStatus, approvers map[model.ApprovalLevel]string) *model.TrainingRequest {
	req := &model.TrainingRequest{
		Number:    "TR-20250110-TEST01",
		Title:     "Advanced welding course",
		Status:    status,
		CreatedBy: "erin@corp.example",
	}
	req.ID = 1
	for _, level := range Chain {
		req.Slots = append(req.Slots, model.ApprovalSlot{
			RequestID: 1,
			Level:     level,
			Approver:  approvers[level],
			SubStatus: model.SlotPending,
		})
	}
	return req
}

func TestCanAct(t *testing.T) {
	approvers := fullChain()

	t.Run("awaited approver is allowed", func(t *testing.T) {
		req := requestWith(model.StatusWaitingSectionManager, approvers)
		dec := CanAct(req, "alice@corp.example")
		assert.True(t, dec.Allowed)
		assert.Equal(t, model.LevelSectionManager, dec.Level)
		assert.Equal(t, "SectionManager", dec.Role)
	})

	t.Run("match is case-insensitive", func(t *testing.T) {
		req := requestWith(model.StatusWaitingHRDAdmin, approvers)
		dec := CanAct(req, "BOB@corp.EXAMPLE")
		assert.True(t, dec.Allowed)
		assert.Equal(t, "HRDAdmin", dec.Role)
	})

	t.Run("wrong identity is denied", func(t *testing.T) {
		req := requestWith(model.StatusWaitingSectionManager, approvers)
		dec := CanAct(req, "bob@corp.example")
		assert.False(t, dec.Allowed)
		assert.NotEmpty(t, dec.Reason)
	})

	t.Run("nobody acts on non-waiting states", func(t *testing.T) {
		for _, status := range []model.RequestStatus{
			model.StatusPending, model.StatusRevise, model.StatusApproved, model.StatusRejected,
		} {
			req := requestWith(status, approvers)
			dec := CanAct(req, "alice@corp.example")
			assert.False(t, dec.Allowed, "status %s", status)
		}
	})

	t.Run("revision admin authorizes the hrd admin", func(t *testing.T) {
		req := requestWith(model.StatusRevisionAdmin, approvers)
		dec := CanAct(req, "bob@corp.example")
		assert.True(t, dec.Allowed)
		assert.Equal(t, model.LevelHRDAdmin, dec.Level)

		dec = CanAct(req, "carol@corp.example")
		assert.False(t, dec.Allowed)
	})

	t.Run("skipped slot authorizes nobody", func(t *testing.T) {
		skipped := fullChain()
		skipped[model.LevelSectionManager] = "none"
		req := requestWith(model.StatusWaitingSectionManager, skipped)
		dec := CanAct(req, "none")
		assert.False(t, dec.Allowed)
	})
}
