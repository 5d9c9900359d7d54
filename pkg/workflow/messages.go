package workflow

import (
	"fmt"

	"github.com/hris-lab/trainflow/dao/model"
)

// Mail templates. Plain text; report layout is out of scope here.

func subjectFor(category model.NotificationCategory, req *model.TrainingRequest) string {
	switch category {
	case model.NotifyPendingNotice:
		return fmt.Sprintf("[TrainFlow] Training request %s submitted", req.Number)
	case model.NotifyApprovalRequest, model.NotifyRetryRequest:
		return fmt.Sprintf("[TrainFlow] Training request %s awaits your approval", req.Number)
	case model.NotifyProgress:
		return fmt.Sprintf("[TrainFlow] Training request %s approved at current level", req.Number)
	case model.NotifyFinalApproval:
		return fmt.Sprintf("[TrainFlow] Training request %s fully approved", req.Number)
	case model.NotifyReviseNotice:
		return fmt.Sprintf("[TrainFlow] Training request %s returned for revision", req.Number)
	case model.NotifyRevisionAdmin:
		return fmt.Sprintf("[TrainFlow] Training request %s returned to HRD admin", req.Number)
	case model.NotifyRejectNotice:
		return fmt.Sprintf("[TrainFlow] Training request %s rejected", req.Number)
	default:
		return fmt.Sprintf("[TrainFlow] Training request %s", req.Number)
	}
}

func bodyFor(category model.NotificationCategory, req *model.TrainingRequest, comment string) string {
	head := fmt.Sprintf("Training request %s (%s)\nCurrent state: %s\n\n",
		req.Number, req.Title, req.Status)
	switch category {
	case model.NotifyPendingNotice:
		return head + "Your request has been submitted and entered the approval chain."
	case model.NotifyApprovalRequest, model.NotifyRetryRequest:
		return head + "The document is waiting for your decision. Please approve, return or reject it."
	case model.NotifyProgress:
		return head + "The request passed another approval level and moved on in the chain."
	case model.NotifyFinalApproval:
		return head + "All required approvers signed off. The request is fully approved."
	case model.NotifyReviseNotice:
		return head + fmt.Sprintf("The request was returned to you for revision.\nComment: %s\n\nEdit the document and resubmit to restart the approval chain.", comment)
	case model.NotifyRevisionAdmin:
		return head + fmt.Sprintf("A late-stage approver returned the request for remediation.\nComment: %s\n\nAfter your correction it re-enters at HRD confirmation.", comment)
	case model.NotifyRejectNotice:
		return head + fmt.Sprintf("The request was rejected.\nComment: %s", comment)
	default:
		return head
	}
}
