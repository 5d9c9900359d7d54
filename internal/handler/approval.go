package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hris-lab/trainflow/internal/resputil"
	"github.com/hris-lab/trainflow/internal/util"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewApprovalMgr)
}

// ApprovalMgr exposes the workflow coordinator's action surface.
type ApprovalMgr struct {
	name  string
	coord *workflow.Coordinator
}

func NewApprovalMgr(conf *RegisterConfig) Manager {
	return &ApprovalMgr{
		name:  "approvals",
		coord: conf.Coordinator,
	}
}

func (mgr *ApprovalMgr) GetName() string { return mgr.name }

func (mgr *ApprovalMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ApprovalMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/:id/submit", mgr.Submit)
	g.POST("/:id/approve", mgr.Approve)
	g.POST("/:id/revise", mgr.Revise)
	g.POST("/:id/reject", mgr.Reject)
	g.GET("/:id/permission", mgr.Permission)
}

func (mgr *ApprovalMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("/:id/retry", mgr.Retry)
}

type ActionReq struct {
	Comment string `json:"comment"`
}

// swagger
//
//	@Summary		Submit a request into the approval chain
//	@Description	Moves a Pending document to its first waiting state; a Revise document is resubmitted with all slots cleared
//	@Tags			approvals
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[workflow.ActionResult]
//	@Router			/v1/approvals/{id}/submit [post]
func (mgr *ApprovalMgr) Submit(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)
	result, err := mgr.coord.StartWorkflow(c, id, token.Email, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	resputil.Success(c, result)
}

// swagger
//
//	@Summary		Approve at the current level
//	@Tags			approvals
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[workflow.ActionResult]
//	@Router			/v1/approvals/{id}/approve [post]
func (mgr *ApprovalMgr) Approve(c *gin.Context) {
	mgr.act(c, mgr.coord.ProcessApprove)
}

// swagger
//
//	@Summary		Send the document back
//	@Description	Upstream roles return it to the creator (Revise); downstream roles return it to the HRD admin (Revision Admin). Comment required.
//	@Tags			approvals
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[workflow.ActionResult]
//	@Router			/v1/approvals/{id}/revise [post]
func (mgr *ApprovalMgr) Revise(c *gin.Context) {
	mgr.act(c, mgr.coord.ProcessRevise)
}

// swagger
//
//	@Summary		Reject the document
//	@Description	Terminal; comment required
//	@Tags			approvals
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[workflow.ActionResult]
//	@Router			/v1/approvals/{id}/reject [post]
func (mgr *ApprovalMgr) Reject(c *gin.Context) {
	mgr.act(c, mgr.coord.ProcessReject)
}

type actionFunc func(ctx context.Context, id uint, actor, comment, origin string) (*workflow.ActionResult, error)

func (mgr *ApprovalMgr) act(c *gin.Context, fn actionFunc) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var payload ActionReq
	if err := c.ShouldBindJSON(&payload); err != nil && err.Error() != "EOF" {
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
		return
	}
	token := util.GetToken(c)
	result, err := fn(c, id, token.Email, payload.Comment, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	resputil.Success(c, result)
}

// swagger
//
//	@Summary		Check whether the caller may act on the document
//	@Tags			approvals
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[workflow.Decision]
//	@Router			/v1/approvals/{id}/permission [get]
func (mgr *ApprovalMgr) Permission(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)
	dec, err := mgr.coord.CheckPermission(c, id, token.Email)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	resputil.Success(c, dec)
}

// swagger
//
//	@Summary		Re-send the approval request mail (admin)
//	@Description	Not a state transition; the caller is added to the cc list of the re-sent mail
//	@Tags			approvals
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[workflow.ActionResult]
//	@Router			/v1/admin/approvals/{id}/retry [post]
func (mgr *ApprovalMgr) Retry(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)
	result, err := mgr.coord.RetryNotification(c, id, token.Email, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	resputil.Success(c, result)
}
