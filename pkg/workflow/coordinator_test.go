package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/hris-lab/trainflow/dao/model"
)

type fakeStore struct {
	requests      map[uint]*model.TrainingRequest
	audits        []model.ApprovalHistory
	statusFailure error
}

func newFakeStore(reqs ...*model.TrainingRequest) *fakeStore {
	s := &fakeStore{requests: map[uint]*model.TrainingRequest{}}
	for _, r := range reqs {
		s.requests[r.ID] = r
	}
	return s
}

func (f *fakeStore) Get(_ context.Context, id uint) (*model.TrainingRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: training request %d", ErrNotFound, id)
	}
	return req, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uint, status model.RequestStatus, _ string) error {
	if f.statusFailure != nil {
		return f.statusFailure
	}
	req, ok := f.requests[id]
	if !ok {
		return fmt.Errorf("%w: training request %d", ErrNotFound, id)
	}
	req.Status = status
	return nil
}

func (f *fakeStore) UpdateSlot(_ context.Context, id uint, level model.ApprovalLevel,
	sub model.SlotStatus, comment string, stamp *Stamp) error {
	req, ok := f.requests[id]
	if !ok {
		return fmt.Errorf("%w: training request %d", ErrNotFound, id)
	}
	slot := req.Slot(level)
	if slot == nil {
		return fmt.Errorf("%w: slot %v", ErrNotFound, level)
	}
	slot.SubStatus = sub
	slot.Comment = comment
	if stamp != nil && slot.StampedAt == nil {
		at := stamp.At
		slot.StampedBy = stamp.Identity
		slot.StampedAt = &at
	}
	return nil
}

func (f *fakeStore) ResetSlots(_ context.Context, id uint, levels []model.ApprovalLevel) error {
	req, ok := f.requests[id]
	if !ok {
		return fmt.Errorf("%w: training request %d", ErrNotFound, id)
	}
	for _, level := range levels {
		if slot := req.Slot(level); slot != nil {
			slot.SubStatus = model.SlotPending
			slot.Comment = ""
			slot.StampedBy = ""
			slot.StampedAt = nil
		}
	}
	return nil
}

func (f *fakeStore) AppendAudit(_ context.Context, entry *model.ApprovalHistory) error {
	f.audits = append(f.audits, *entry)
	return nil
}

func (f *fakeStore) Transaction(_ context.Context, fn func(RecordStore) error) error {
	return fn(f)
}

type fakeNotifier struct {
	sent []*Notification
}

func (f *fakeNotifier) Send(_ context.Context, n *Notification) error {
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) byCategory(cat model.NotificationCategory) []*Notification {
	var out []*Notification
	for _, n := range f.sent {
		if n.Category == cat {
			out = append(out, n)
		}
	}
	return out
}

func newTestRequest(id uint, approvers map[model.ApprovalLevel]string) *model.TrainingRequest {
	req := requestWith(model.StatusPending, approvers)
	req.ID = id
	for i := range req.Slots {
		req.Slots[i].RequestID = id
	}
	req.CCList = datatypes.NewJSONType([]string{"hr-cc@corp.example"})
	return req
}

func setup(approvers map[model.ApprovalLevel]string) (*Coordinator, *fakeStore, *fakeNotifier, *model.TrainingRequest) {
	req := newTestRequest(1, approvers)
	st := newFakeStore(req)
	nt := &fakeNotifier{}
	return NewCoordinator(st, nt), st, nt, req
}

func TestStartWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("full chain run to final approval", func(t *testing.T) {
		approvers := map[model.ApprovalLevel]string{
			model.LevelSectionManager:         "alice@corp.example",
			model.LevelDepartmentManager:      "none",
			model.LevelHRDAdmin:               "bob@corp.example",
			model.LevelHRDConfirmation:        "carol@corp.example",
			model.LevelManagingDirector:       "none",
			model.LevelDeputyManagingDirector: "none",
		}
		coord, st, nt, req := setup(approvers)

		result, err := coord.StartWorkflow(ctx, 1, "erin@corp.example", "10.0.0.9")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, model.StatusWaitingSectionManager, req.Status)

		// pending notice to creator + approval request to alice
		pending := nt.byCategory(model.NotifyPendingNotice)
		require.Len(t, pending, 1)
		assert.Equal(t, []string{"erin@corp.example"}, pending[0].To)
		assert.Equal(t, []string{"hr-cc@corp.example"}, pending[0].Cc)
		requests := nt.byCategory(model.NotifyApprovalRequest)
		require.Len(t, requests, 1)
		assert.Equal(t, []string{"alice@corp.example"}, requests[0].To)

		steps := []struct {
			actor string
			want  model.RequestStatus
		}{
			{"alice@corp.example", model.StatusWaitingHRDAdmin},
			{"bob@corp.example", model.StatusWaitingHRDConfirmation},
			{"carol@corp.example", model.StatusApproved},
		}
		for _, step := range steps {
			result, err = coord.ProcessApprove(ctx, 1, step.actor, "ok", "10.0.0.9")
			require.NoError(t, err)
			assert.Equal(t, step.want, result.NewStatus)
		}
		assert.Equal(t, model.StatusApproved, req.Status)

		// final blast goes to every assigned identity plus creator and cc,
		// all in "to", deduplicated
		final := nt.byCategory(model.NotifyFinalApproval)
		require.Len(t, final, 1)
		assert.ElementsMatch(t, []string{
			"alice@corp.example", "bob@corp.example", "carol@corp.example",
			"erin@corp.example", "hr-cc@corp.example",
		}, final[0].To)
		assert.Empty(t, final[0].Cc)

		// audit: submit + three approvals
		require.Len(t, st.audits, 4)
		assert.Equal(t, model.ActionSubmitted, st.audits[0].Action)
		assert.Equal(t, model.StatusPending, st.audits[0].FromState)
		assert.Equal(t, "SectionManager", st.audits[1].Role)
		assert.Equal(t, model.StatusApproved, st.audits[3].ToState)
	})

	t.Run("skipped lower levels start at hrd admin", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelSectionManager] = "none"
		approvers[model.LevelDepartmentManager] = "none"
		coord, _, _, req := setup(approvers)

		result, err := coord.StartWorkflow(ctx, 1, "erin@corp.example", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingHRDAdmin, result.NewStatus)
		assert.Equal(t, model.StatusWaitingHRDAdmin, req.Status)
	})

	t.Run("missing gatekeeper fails without state change or mail", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelHRDConfirmation] = "none"
		coord, st, nt, req := setup(approvers)

		_, err := coord.StartWorkflow(ctx, 1, "erin@corp.example", "")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, model.StatusPending, req.Status)
		assert.Empty(t, nt.sent)
		assert.Empty(t, st.audits)
	})

	t.Run("resubmission from revise clears every slot", func(t *testing.T) {
		coord, _, _, req := setup(fullChain())
		req.Status = model.StatusRevise
		now := req.CreatedAt
		for i := range req.Slots {
			req.Slots[i].SubStatus = model.SlotApproved
			req.Slots[i].StampedBy = "someone"
			req.Slots[i].StampedAt = &now
		}

		result, err := coord.StartWorkflow(ctx, 1, "erin@corp.example", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingSectionManager, result.NewStatus)
		for _, slot := range req.Slots {
			assert.Equal(t, model.SlotPending, slot.SubStatus)
			assert.Empty(t, slot.StampedBy)
			assert.Nil(t, slot.StampedAt)
		}
	})

	t.Run("cannot start twice", func(t *testing.T) {
		coord, _, _, _ := setup(fullChain())
		_, err := coord.StartWorkflow(ctx, 1, "erin@corp.example", "")
		require.NoError(t, err)
		_, err = coord.StartWorkflow(ctx, 1, "erin@corp.example", "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestProcessApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("second approve by same actor is denied", func(t *testing.T) {
		coord, _, _, req := setup(fullChain())
		req.Status = model.StatusWaitingSectionManager

		_, err := coord.ProcessApprove(ctx, 1, "alice@corp.example", "", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingDeptManager, req.Status)

		_, err = coord.ProcessApprove(ctx, 1, "alice@corp.example", "", "")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, model.StatusWaitingDeptManager, req.Status)
	})

	t.Run("stamp is written once", func(t *testing.T) {
		coord, _, _, req := setup(fullChain())
		req.Status = model.StatusWaitingSectionManager

		_, err := coord.ProcessApprove(ctx, 1, "alice@corp.example", "fine", "")
		require.NoError(t, err)
		slot := req.Slot(model.LevelSectionManager)
		require.NotNil(t, slot.StampedAt)
		assert.Equal(t, "alice@corp.example", slot.StampedBy)
		assert.Equal(t, model.SlotApproved, slot.SubStatus)
	})

	t.Run("approve from revision admin resets only downstream", func(t *testing.T) {
		coord, _, _, req := setup(fullChain())
		req.Status = model.StatusRevisionAdmin
		now := req.CreatedAt
		for i := range req.Slots {
			req.Slots[i].SubStatus = model.SlotApproved
			req.Slots[i].Comment = "earlier round"
			req.Slots[i].StampedBy = req.Slots[i].Approver
			req.Slots[i].StampedAt = &now
		}

		result, err := coord.ProcessApprove(ctx, 1, "bob@corp.example", "fixed", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingHRDConfirmation, result.NewStatus)

		for _, level := range ScopeUpstream.Levels() {
			slot := req.Slot(level)
			assert.Equal(t, model.SlotApproved, slot.SubStatus, "level %s", level)
			assert.Equal(t, "earlier round", slot.Comment, "level %s", level)
			assert.NotNil(t, slot.StampedAt, "level %s", level)
		}
		for _, level := range ScopeDownstream.Levels() {
			slot := req.Slot(level)
			assert.Equal(t, model.SlotPending, slot.SubStatus, "level %s", level)
			assert.Empty(t, slot.Comment, "level %s", level)
			assert.Nil(t, slot.StampedAt, "level %s", level)
		}
	})

	t.Run("skipped directors approve straight to final", func(t *testing.T) {
		approvers := fullChain()
		approvers[model.LevelManagingDirector] = "none"
		approvers[model.LevelDeputyManagingDirector] = "none"
		coord, _, _, req := setup(approvers)
		req.Status = model.StatusWaitingHRDConfirmation

		result, err := coord.ProcessApprove(ctx, 1, "carol@corp.example", "", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, result.NewStatus)
	})

	t.Run("progress mail and next approver request on intermediate approve", func(t *testing.T) {
		coord, _, nt, req := setup(fullChain())
		req.Status = model.StatusWaitingSectionManager

		_, err := coord.ProcessApprove(ctx, 1, "alice@corp.example", "", "")
		require.NoError(t, err)

		progress := nt.byCategory(model.NotifyProgress)
		require.Len(t, progress, 1)
		assert.Equal(t, []string{"erin@corp.example"}, progress[0].To)
		assert.Equal(t, []string{"hr-cc@corp.example"}, progress[0].Cc)

		requests := nt.byCategory(model.NotifyApprovalRequest)
		require.Len(t, requests, 1)
		assert.Equal(t, []string{"dave@corp.example"}, requests[0].To)
		assert.Empty(t, requests[0].Cc)
	})

	t.Run("persistence failure aborts without notifications", func(t *testing.T) {
		coord, st, nt, req := setup(fullChain())
		req.Status = model.StatusWaitingSectionManager
		st.statusFailure = fmt.Errorf("%w: connection lost", ErrPersistence)

		_, err := coord.ProcessApprove(ctx, 1, "alice@corp.example", "", "")
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Empty(t, nt.sent)
	})
}

func TestProcessRevise(t *testing.T) {
	ctx := context.Background()

	t.Run("comment is mandatory", func(t *testing.T) {
		coord, st, _, req := setup(fullChain())
		req.Status = model.StatusWaitingSectionManager

		_, err := coord.ProcessRevise(ctx, 1, "alice@corp.example", "   ", "")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, model.StatusWaitingSectionManager, req.Status)
		assert.Empty(t, st.audits)
	})

	t.Run("upstream role returns to creator", func(t *testing.T) {
		coord, _, nt, req := setup(fullChain())
		req.Status = model.StatusWaitingSectionManager

		result, err := coord.ProcessRevise(ctx, 1, "alice@corp.example", "budget missing", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusRevise, result.NewStatus)
		assert.Equal(t, model.SlotRevise, req.Slot(model.LevelSectionManager).SubStatus)

		notices := nt.byCategory(model.NotifyReviseNotice)
		require.Len(t, notices, 1)
		assert.Equal(t, []string{"erin@corp.example"}, notices[0].To)
		assert.Equal(t, []string{"hr-cc@corp.example"}, notices[0].Cc)
	})

	t.Run("downstream role returns to hrd admin", func(t *testing.T) {
		coord, _, nt, req := setup(fullChain())
		req.Status = model.StatusWaitingHRDConfirmation

		result, err := coord.ProcessRevise(ctx, 1, "carol@corp.example", "numbers off", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusRevisionAdmin, result.NewStatus)

		notices := nt.byCategory(model.NotifyRevisionAdmin)
		require.Len(t, notices, 1)
		assert.Equal(t, []string{"bob@corp.example"}, notices[0].To)
		assert.ElementsMatch(t, []string{"erin@corp.example", "hr-cc@corp.example"}, notices[0].Cc)
	})
}

func TestProcessReject(t *testing.T) {
	ctx := context.Background()

	t.Run("comment is mandatory", func(t *testing.T) {
		coord, _, _, req := setup(fullChain())
		req.Status = model.StatusWaitingHRDAdmin

		_, err := coord.ProcessReject(ctx, 1, "bob@corp.example", "", "")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, model.StatusWaitingHRDAdmin, req.Status)
	})

	t.Run("rejects from a waiting state", func(t *testing.T) {
		coord, st, nt, req := setup(fullChain())
		req.Status = model.StatusWaitingHRDAdmin

		result, err := coord.ProcessReject(ctx, 1, "bob@corp.example", "not eligible", "10.1.2.3")
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, result.NewStatus)
		assert.Equal(t, model.SlotRejected, req.Slot(model.LevelHRDAdmin).SubStatus)

		require.Len(t, st.audits, 1)
		assert.Equal(t, model.ActionRejected, st.audits[0].Action)
		assert.Equal(t, "10.1.2.3", st.audits[0].Origin)

		notices := nt.byCategory(model.NotifyRejectNotice)
		require.Len(t, notices, 1)
		assert.Equal(t, []string{"erin@corp.example"}, notices[0].To)
	})

	t.Run("no action after terminal state", func(t *testing.T) {
		coord, _, _, req := setup(fullChain())
		req.Status = model.StatusRejected

		_, err := coord.ProcessApprove(ctx, 1, "alice@corp.example", "", "")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestRetryNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("re-sends to current approver with requester in cc", func(t *testing.T) {
		coord, st, nt, req := setup(fullChain())
		req.Status = model.StatusWaitingHRDConfirmation

		result, err := coord.RetryNotification(ctx, 1, "admin@corp.example", "10.9.9.9")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, model.StatusWaitingHRDConfirmation, result.NewStatus)

		retries := nt.byCategory(model.NotifyRetryRequest)
		require.Len(t, retries, 1)
		assert.Equal(t, []string{"carol@corp.example"}, retries[0].To)
		assert.ElementsMatch(t, []string{
			"erin@corp.example", "hr-cc@corp.example", "admin@corp.example",
		}, retries[0].Cc)

		require.Len(t, st.audits, 1)
		assert.Equal(t, model.ActionRetry, st.audits[0].Action)
		assert.Equal(t, st.audits[0].FromState, st.audits[0].ToState)
	})

	t.Run("rejected document cannot be retried", func(t *testing.T) {
		coord, _, nt, req := setup(fullChain())
		req.Status = model.StatusRejected

		_, err := coord.RetryNotification(ctx, 1, "admin@corp.example", "")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, nt.sent)
	})

	t.Run("pending document is a reported no-op", func(t *testing.T) {
		coord, _, nt, _ := setup(fullChain())

		result, err := coord.RetryNotification(ctx, 1, "admin@corp.example", "")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "no approver to notify")
		assert.Empty(t, nt.sent)
	})

	t.Run("unknown document", func(t *testing.T) {
		coord, _, _, _ := setup(fullChain())
		_, err := coord.RetryNotification(ctx, 42, "admin@corp.example", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCheckPermission(t *testing.T) {
	ctx := context.Background()
	coord, _, _, req := setup(fullChain())
	req.Status = model.StatusWaitingDeptManager

	dec, err := coord.CheckPermission(ctx, 1, "dave@corp.example")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, "DepartmentManager", dec.Role)

	dec, err = coord.CheckPermission(ctx, 1, "alice@corp.example")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
}
