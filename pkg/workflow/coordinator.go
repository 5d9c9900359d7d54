package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/pkg/metrics"
)

// Coordinator orchestrates one user action as a single logical unit:
// resolve permission, mutate the addressed slot, persist the new status and
// one audit entry in one transaction, then dispatch notifications. A
// notification failure never reverses the state transition.
type Coordinator struct {
	store    RecordStore
	notifier Notifier
}

func NewCoordinator(store RecordStore, notifier Notifier) *Coordinator {
	return &Coordinator{store: store, notifier: notifier}
}

// ActionResult is what the caller gets back from one workflow action.
type ActionResult struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	NewStatus model.RequestStatus `json:"newStatus,omitempty"`
}

// CheckPermission reports whether actor may act on the document right now.
func (c *Coordinator) CheckPermission(ctx context.Context, id uint, actor string) (*Decision, error) {
	req, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dec := CanAct(req, actor)
	return &dec, nil
}

// StartWorkflow moves a Pending document into its first waiting state. A
// document in Revise may also be started: resubmission after creator edits
// is a fresh submission, so every slot is cleared first.
func (c *Coordinator) StartWorkflow(ctx context.Context, id uint, actor, origin string) (*ActionResult, error) {
	var first model.RequestStatus
	err := c.store.Transaction(ctx, func(s RecordStore) error {
		req, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != model.StatusPending && req.Status != model.StatusRevise {
			return fmt.Errorf("%w: workflow cannot start from status %q", ErrValidation, req.Status)
		}
		prev := req.Status
		if prev == model.StatusRevise {
			if err = s.ResetSlots(ctx, id, ScopeUpstream.Levels()); err != nil {
				return err
			}
			if err = s.ResetSlots(ctx, id, ScopeDownstream.Levels()); err != nil {
				return err
			}
		}
		first, err = FirstStatus(AssignmentsOf(req))
		if err != nil {
			return err
		}
		if err = s.UpdateStatus(ctx, id, first, actor); err != nil {
			return err
		}
		return s.AppendAudit(ctx, &model.ApprovalHistory{
			RequestID: id,
			Role:      "Requester",
			Actor:     actor,
			Action:    model.ActionSubmitted,
			FromState: prev,
			ToState:   first,
			Origin:    origin,
		})
	})
	if err != nil {
		c.observe("start", err)
		return nil, err
	}
	c.observe("start", nil)

	req, err := c.store.Get(ctx, id)
	if err != nil {
		klog.Errorf("request %d: reload after start failed, notifications skipped: %v", id, err)
		return &ActionResult{Success: true, Message: "workflow started", NewStatus: first}, nil
	}
	corr := uuid.NewString()
	c.dispatch(ctx, &Notification{
		RequestID:     id,
		To:            []string{req.CreatedBy},
		Cc:            req.CCList.Data(),
		Subject:       subjectFor(model.NotifyPendingNotice, req),
		Body:          bodyFor(model.NotifyPendingNotice, req, ""),
		Category:      model.NotifyPendingNotice,
		CorrelationID: corr,
	})
	c.notifyApprover(ctx, req, first, corr)
	return &ActionResult{Success: true, Message: "workflow started", NewStatus: first}, nil
}

// ProcessApprove records an approval by the awaited approver and moves the
// document forward. From Revision Admin only the downstream slots are reset
// and the flow re-enters at HRD confirmation.
func (c *Coordinator) ProcessApprove(ctx context.Context, id uint, actor, comment, origin string) (*ActionResult, error) {
	var next model.RequestStatus
	err := c.store.Transaction(ctx, func(s RecordStore) error {
		req, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		dec := CanAct(req, actor)
		if !dec.Allowed {
			return ErrPermissionDenied
		}
		prev := req.Status
		asg := AssignmentsOf(req)
		if prev == model.StatusRevisionAdmin {
			// Levels 1-3 keep their prior outcome and stamps; only the
			// downstream half is revisited after remediation.
			if err = s.ResetSlots(ctx, id, ScopeDownstream.Levels()); err != nil {
				return err
			}
			next = model.StatusWaitingHRDConfirmation
		} else {
			stamp := &Stamp{Identity: actor, At: time.Now()}
			if err = s.UpdateSlot(ctx, id, dec.Level, model.SlotApproved, comment, stamp); err != nil {
				return err
			}
			next, err = NextStatus(prev, asg)
			if err != nil {
				return err
			}
		}
		if err = s.UpdateStatus(ctx, id, next, actor); err != nil {
			return err
		}
		return s.AppendAudit(ctx, &model.ApprovalHistory{
			RequestID: id,
			Role:      dec.Role,
			Actor:     actor,
			Action:    model.ActionApproved,
			Comment:   comment,
			FromState: prev,
			ToState:   next,
			Origin:    origin,
		})
	})
	if err != nil {
		c.observe("approve", err)
		return nil, err
	}
	c.observe("approve", nil)

	req, err := c.store.Get(ctx, id)
	if err != nil {
		klog.Errorf("request %d: reload after approve failed, notifications skipped: %v", id, err)
		return &ActionResult{Success: true, Message: "approved", NewStatus: next}, nil
	}
	corr := uuid.NewString()
	if next == model.StatusApproved {
		c.dispatch(ctx, &Notification{
			RequestID:     id,
			To:            chainRecipients(req),
			Subject:       subjectFor(model.NotifyFinalApproval, req),
			Body:          bodyFor(model.NotifyFinalApproval, req, comment),
			Category:      model.NotifyFinalApproval,
			CorrelationID: corr,
		})
	} else {
		c.dispatch(ctx, &Notification{
			RequestID:     id,
			To:            []string{req.CreatedBy},
			Cc:            req.CCList.Data(),
			Subject:       subjectFor(model.NotifyProgress, req),
			Body:          bodyFor(model.NotifyProgress, req, comment),
			Category:      model.NotifyProgress,
			CorrelationID: corr,
		})
		c.notifyApprover(ctx, req, next, corr)
	}
	return &ActionResult{Success: true, Message: "approved", NewStatus: next}, nil
}

// ProcessRevise sends the document back. Where it lands depends on who is
// returning it: upstream roles return it to the creator, downstream roles
// return it to the HRD admin for remediation.
func (c *Coordinator) ProcessRevise(ctx context.Context, id uint, actor, comment, origin string) (*ActionResult, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: a comment is required when returning a document", ErrValidation)
	}
	var target model.RequestStatus
	err := c.store.Transaction(ctx, func(s RecordStore) error {
		req, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		dec := CanAct(req, actor)
		if !dec.Allowed {
			return ErrPermissionDenied
		}
		prev := req.Status
		target, err = ReviseTarget(dec.Level)
		if err != nil {
			return err
		}
		stamp := &Stamp{Identity: actor, At: time.Now()}
		if err = s.UpdateSlot(ctx, id, dec.Level, model.SlotRevise, comment, stamp); err != nil {
			return err
		}
		if err = s.UpdateStatus(ctx, id, target, actor); err != nil {
			return err
		}
		return s.AppendAudit(ctx, &model.ApprovalHistory{
			RequestID: id,
			Role:      dec.Role,
			Actor:     actor,
			Action:    model.ActionRevise,
			Comment:   comment,
			FromState: prev,
			ToState:   target,
			Origin:    origin,
		})
	})
	if err != nil {
		c.observe("revise", err)
		return nil, err
	}
	c.observe("revise", nil)

	req, err := c.store.Get(ctx, id)
	if err != nil {
		klog.Errorf("request %d: reload after revise failed, notifications skipped: %v", id, err)
		return &ActionResult{Success: true, Message: "returned", NewStatus: target}, nil
	}
	corr := uuid.NewString()
	if target == model.StatusRevisionAdmin {
		admin := ""
		if slot := req.Slot(model.LevelHRDAdmin); slot != nil {
			admin = ParseAssignment(slot.Approver).Identity()
		}
		c.dispatch(ctx, &Notification{
			RequestID:     id,
			To:            []string{admin},
			Cc:            append([]string{req.CreatedBy}, req.CCList.Data()...),
			Subject:       subjectFor(model.NotifyRevisionAdmin, req),
			Body:          bodyFor(model.NotifyRevisionAdmin, req, comment),
			Category:      model.NotifyRevisionAdmin,
			CorrelationID: corr,
		})
	} else {
		c.dispatch(ctx, &Notification{
			RequestID:     id,
			To:            []string{req.CreatedBy},
			Cc:            req.CCList.Data(),
			Subject:       subjectFor(model.NotifyReviseNotice, req),
			Body:          bodyFor(model.NotifyReviseNotice, req, comment),
			Category:      model.NotifyReviseNotice,
			CorrelationID: corr,
		})
	}
	return &ActionResult{Success: true, Message: "returned", NewStatus: target}, nil
}

// ProcessReject terminates the workflow from any waiting state.
func (c *Coordinator) ProcessReject(ctx context.Context, id uint, actor, comment, origin string) (*ActionResult, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: a comment is required when rejecting a document", ErrValidation)
	}
	err := c.store.Transaction(ctx, func(s RecordStore) error {
		req, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		dec := CanAct(req, actor)
		if !dec.Allowed {
			return ErrPermissionDenied
		}
		prev := req.Status
		stamp := &Stamp{Identity: actor, At: time.Now()}
		if err = s.UpdateSlot(ctx, id, dec.Level, model.SlotRejected, comment, stamp); err != nil {
			return err
		}
		if err = s.UpdateStatus(ctx, id, model.StatusRejected, actor); err != nil {
			return err
		}
		return s.AppendAudit(ctx, &model.ApprovalHistory{
			RequestID: id,
			Role:      dec.Role,
			Actor:     actor,
			Action:    model.ActionRejected,
			Comment:   comment,
			FromState: prev,
			ToState:   model.StatusRejected,
			Origin:    origin,
		})
	})
	if err != nil {
		c.observe("reject", err)
		return nil, err
	}
	c.observe("reject", nil)

	req, err := c.store.Get(ctx, id)
	if err != nil {
		klog.Errorf("request %d: reload after reject failed, notifications skipped: %v", id, err)
		return &ActionResult{Success: true, Message: "rejected", NewStatus: model.StatusRejected}, nil
	}
	c.dispatch(ctx, &Notification{
		RequestID:     id,
		To:            []string{req.CreatedBy},
		Cc:            req.CCList.Data(),
		Subject:       subjectFor(model.NotifyRejectNotice, req),
		Body:          bodyFor(model.NotifyRejectNotice, req, comment),
		Category:      model.NotifyRejectNotice,
		CorrelationID: uuid.NewString(),
	})
	return &ActionResult{Success: true, Message: "rejected", NewStatus: model.StatusRejected}, nil
}

// ResetApprovalStatus clears the slots of one half of the chain back to
// Pending, including comment and stamp.
func (c *Coordinator) ResetApprovalStatus(ctx context.Context, id uint, scope ResetScope) error {
	return c.store.ResetSlots(ctx, id, scope.Levels())
}

// RetryNotification re-sends the approval-request mail for whichever
// approver the current status waits on. Not a state transition; it leaves a
// RETRY row in the history for troubleshooting. When the status waits on
// nobody the call reports why instead of silently succeeding.
func (c *Coordinator) RetryNotification(ctx context.Context, id uint, actor, origin string) (*ActionResult, error) {
	req, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == model.StatusRejected {
		return nil, fmt.Errorf("%w: request is rejected, there is no approver to notify", ErrValidation)
	}
	level, a, ok := ApproverFor(req.Status, AssignmentsOf(req))
	role := ""
	if ok {
		role = level.String()
	}
	entry := &model.ApprovalHistory{
		RequestID: id,
		Role:      role,
		Actor:     actor,
		Action:    model.ActionRetry,
		FromState: req.Status,
		ToState:   req.Status,
		Origin:    origin,
	}
	if err := c.store.AppendAudit(ctx, entry); err != nil {
		klog.Warningf("request %d: retry history row not written: %v", id, err)
	}
	if !ok || !a.IsAssigned() {
		c.observe("retry", nil)
		return &ActionResult{
			Message:   fmt.Sprintf("no approver to notify while status is %q", req.Status),
			NewStatus: req.Status,
		}, nil
	}
	cc := append([]string{req.CreatedBy}, req.CCList.Data()...)
	cc = append(cc, actor)
	c.dispatch(ctx, &Notification{
		RequestID:     id,
		To:            []string{a.Identity()},
		Cc:            cc,
		Subject:       subjectFor(model.NotifyRetryRequest, req),
		Body:          bodyFor(model.NotifyRetryRequest, req, ""),
		Category:      model.NotifyRetryRequest,
		CorrelationID: uuid.NewString(),
	})
	c.observe("retry", nil)
	return &ActionResult{
		Success:   true,
		Message:   "approval request re-sent to " + a.Identity(),
		NewStatus: req.Status,
	}, nil
}

// notifyApprover sends the approval-request mail for a waiting status.
// Skip-or-empty slots produce a logged warning, never an error.
func (c *Coordinator) notifyApprover(ctx context.Context, req *model.TrainingRequest, status model.RequestStatus, corr string) {
	_, a, ok := ApproverFor(status, AssignmentsOf(req))
	to := ""
	if ok {
		to = a.Identity()
	}
	c.dispatch(ctx, &Notification{
		RequestID:     req.ID,
		To:            []string{to},
		Subject:       subjectFor(model.NotifyApprovalRequest, req),
		Body:          bodyFor(model.NotifyApprovalRequest, req, ""),
		Category:      model.NotifyApprovalRequest,
		CorrelationID: corr,
	})
}

// dispatch delivers one notification, dropping empty recipients first. An
// empty "to" is logged and counted, the action that produced it stands.
func (c *Coordinator) dispatch(ctx context.Context, n *Notification) {
	n.To = compactIdentities(n.To)
	n.Cc = compactIdentities(n.Cc)
	if len(n.To) == 0 {
		klog.Warningf("request %d: %s notification skipped, no recipient", n.RequestID, n.Category)
		metrics.Notifications.WithLabelValues(string(n.Category), metrics.OutcomeFailed).Inc()
		return
	}
	if err := c.notifier.Send(ctx, n); err != nil {
		klog.Errorf("request %d: %s notification failed: %v", n.RequestID, n.Category, err)
	}
}

func (c *Coordinator) observe(action string, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case isPermissionDenied(err):
		outcome = metrics.OutcomeDenied
	default:
		outcome = metrics.OutcomeFailed
	}
	metrics.WorkflowActions.WithLabelValues(action, outcome).Inc()
}

func isPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// chainRecipients is the final-approval fan-out: every distinct identity
// ever assigned in the chain, plus creator and cc list, all in "to".
func chainRecipients(req *model.TrainingRequest) []string {
	ids := make([]string, 0, len(Chain)+4)
	for _, level := range Chain {
		if slot := req.Slot(level); slot != nil {
			if a := ParseAssignment(slot.Approver); a.IsAssigned() {
				ids = append(ids, a.Identity())
			}
		}
	}
	ids = append(ids, req.CreatedBy)
	ids = append(ids, req.CCList.Data()...)
	return compactIdentities(ids)
}

func compactIdentities(ids []string) []string {
	trimmed := lo.FilterMap(ids, func(id string, _ int) (string, bool) {
		v := strings.TrimSpace(id)
		return v, v != ""
	})
	return lo.UniqBy(trimmed, strings.ToLower)
}
