package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/internal/resputil"
	"github.com/hris-lab/trainflow/internal/util"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewTrainingRequestMgr)
}

type TrainingRequestMgr struct {
	name string
	db   *gorm.DB
}

func NewTrainingRequestMgr(conf *RegisterConfig) Manager {
	return &TrainingRequestMgr{
		name: "requests",
		db:   conf.DB,
	}
}

func (mgr *TrainingRequestMgr) GetName() string { return mgr.name }

func (mgr *TrainingRequestMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *TrainingRequestMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListMyRequests)
	g.GET("/:id", mgr.GetRequest)
	g.POST("", mgr.CreateRequest)
	g.PUT("/:id", mgr.UpdateRequest)
	g.DELETE("/:id", mgr.DeleteRequest)
	g.GET("/:id/history", mgr.GetHistory)
}

func (mgr *TrainingRequestMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListAllRequests)
	g.GET("/:id", mgr.GetRequestAdmin)
	g.GET("/:id/history", mgr.GetHistoryAdmin)
	g.GET("/:id/notifications", mgr.GetNotificationLog)
}

type (
	// ApproverAssignments maps one identity (or the skip value) per level.
	ApproverAssignments struct {
		SectionManager         string `json:"sectionManager" binding:"required"`
		DepartmentManager      string `json:"departmentManager"`
		HRDAdmin               string `json:"hrdAdmin" binding:"required"`
		HRDConfirmation        string `json:"hrdConfirmation" binding:"required"`
		ManagingDirector       string `json:"managingDirector"`
		DeputyManagingDirector string `json:"deputyManagingDirector"`
	}

	CreateRequestReq struct {
		Title     string               `json:"title" binding:"required"`
		Detail    model.TrainingDetail `json:"detail"`
		CCList    []string             `json:"ccList"`
		Approvers ApproverAssignments  `json:"approvers" binding:"required"`
	}

	UpdateRequestReq struct {
		Title     string               `json:"title" binding:"required"`
		Detail    model.TrainingDetail `json:"detail"`
		CCList    []string             `json:"ccList"`
		Approvers ApproverAssignments  `json:"approvers" binding:"required"`
	}

	SlotResp struct {
		Level     uint8            `json:"level"`
		Role      string           `json:"role"`
		Approver  string           `json:"approver"`
		SubStatus model.SlotStatus `json:"subStatus"`
		Comment   string           `json:"comment"`
		StampedBy string           `json:"stampedBy,omitempty"`
		StampedAt *time.Time       `json:"stampedAt,omitempty"`
	}

	TrainingRequestResp struct {
		ID        uint                 `json:"id"`
		Number    string               `json:"number"`
		Title     string               `json:"title"`
		Status    model.RequestStatus  `json:"status"`
		Detail    model.TrainingDetail `json:"detail"`
		CreatedBy string               `json:"createdBy"`
		CCList    []string             `json:"ccList"`
		CreatedAt time.Time            `json:"createdAt"`
		Slots     []SlotResp           `json:"slots"`
	}
)

func (a *ApproverAssignments) byLevel() map[model.ApprovalLevel]string {
	return map[model.ApprovalLevel]string{
		model.LevelSectionManager:         a.SectionManager,
		model.LevelDepartmentManager:      a.DepartmentManager,
		model.LevelHRDAdmin:               a.HRDAdmin,
		model.LevelHRDConfirmation:        a.HRDConfirmation,
		model.LevelManagingDirector:       a.ManagingDirector,
		model.LevelDeputyManagingDirector: a.DeputyManagingDirector,
	}
}

func newRequestNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TR-%s-%s", time.Now().Format("20060102"), suffix)
}

func convertToRequestResp(req *model.TrainingRequest) TrainingRequestResp {
	resp := TrainingRequestResp{
		ID:        req.ID,
		Number:    req.Number,
		Title:     req.Title,
		Status:    req.Status,
		Detail:    req.Detail.Data(),
		CreatedBy: req.CreatedBy,
		CCList:    req.CCList.Data(),
		CreatedAt: req.CreatedAt,
	}
	for _, level := range workflow.Chain {
		if slot := req.Slot(level); slot != nil {
			resp.Slots = append(resp.Slots, SlotResp{
				Level:     uint8(slot.Level),
				Role:      slot.Level.String(),
				Approver:  slot.Approver,
				SubStatus: slot.SubStatus,
				Comment:   slot.Comment,
				StampedBy: slot.StampedBy,
				StampedAt: slot.StampedAt,
			})
		}
	}
	return resp
}

func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		resputil.BadRequest(c, "invalid request id", resputil.InvalidRequest)
		return 0, false
	}
	return uint(id), true
}

// swagger
//
//	@Summary		List my training requests
//	@Description	Requests created by the current user plus the ones awaiting the user's approval
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]TrainingRequestResp]
//	@Router			/v1/requests [get]
func (mgr *TrainingRequestMgr) ListMyRequests(c *gin.Context) {
	token := util.GetToken(c)
	if token.UserID == 0 {
		resputil.Error(c, "cannot get user id", resputil.NotSpecified)
		return
	}

	var created []model.TrainingRequest
	err := mgr.db.WithContext(c).
		Preload("Slots").
		Where("created_by = ?", token.Email).
		Find(&created).Error
	if err != nil {
		klog.Errorf("failed to query my requests, userID: %d, err: %v", token.UserID, err)
		resputil.Error(c, "failed to get my requests", resputil.NotSpecified)
		return
	}

	// Requests where the user holds a slot, regardless of turn.
	var assigned []model.TrainingRequest
	err = mgr.db.WithContext(c).
		Preload("Slots").
		Where("id IN (?)", mgr.db.
			Model(&model.ApprovalSlot{}).
			Select("request_id").
			Where("LOWER(approver) = LOWER(?)", token.Email)).
		Where("created_by <> ?", token.Email).
		Find(&assigned).Error
	if err != nil {
		klog.Errorf("failed to query assigned requests, userID: %d, err: %v", token.UserID, err)
		resputil.Error(c, "failed to get my requests", resputil.NotSpecified)
		return
	}

	result := make([]TrainingRequestResp, 0, len(created)+len(assigned))
	for i := range created {
		result = append(result, convertToRequestResp(&created[i]))
	}
	for i := range assigned {
		result = append(result, convertToRequestResp(&assigned[i]))
	}
	resputil.Success(c, result)
}

// swagger
//
//	@Summary		Get one training request
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[TrainingRequestResp]
//	@Router			/v1/requests/{id} [get]
func (mgr *TrainingRequestMgr) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	req, ok := mgr.loadVisible(c, id)
	if !ok {
		return
	}
	resputil.Success(c, convertToRequestResp(req))
}

// loadVisible fetches one request and checks the caller is its creator, on
// its cc list or one of its approvers.
func (mgr *TrainingRequestMgr) loadVisible(c *gin.Context, id uint) (*model.TrainingRequest, bool) {
	token := util.GetToken(c)
	var req model.TrainingRequest
	err := mgr.db.WithContext(c).Preload("Slots").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "document not found", resputil.DocumentNotFound)
		return nil, false
	}
	if err != nil {
		klog.Errorf("failed to query request %d: %v", id, err)
		resputil.Error(c, "failed to get request", resputil.NotSpecified)
		return nil, false
	}
	if !canSee(&req, token.Email) {
		resputil.HTTPError(c, 403, "you are not allowed to view this document", resputil.UserNotAllowed)
		return nil, false
	}
	return &req, true
}

func canSee(req *model.TrainingRequest, email string) bool {
	if strings.EqualFold(req.CreatedBy, email) {
		return true
	}
	for _, cc := range req.CCList.Data() {
		if strings.EqualFold(cc, email) {
			return true
		}
	}
	for i := range req.Slots {
		if workflow.ParseAssignment(req.Slots[i].Approver).Matches(email) {
			return true
		}
	}
	return false
}

// swagger
//
//	@Summary		Create a training request
//	@Description	Creates the document in Pending with every slot Pending; the number is assigned once here
//	@Tags			requests
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[TrainingRequestResp]
//	@Router			/v1/requests [post]
func (mgr *TrainingRequestMgr) CreateRequest(c *gin.Context) {
	token := util.GetToken(c)
	var payload CreateRequestReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
		return
	}

	req := model.TrainingRequest{
		Number:    newRequestNumber(),
		Title:     payload.Title,
		Detail:    datatypes.NewJSONType(payload.Detail),
		Status:    model.StatusPending,
		CreatedBy: token.Email,
		CCList:    datatypes.NewJSONType(payload.CCList),
	}
	for level, approver := range payload.Approvers.byLevel() {
		req.Slots = append(req.Slots, model.ApprovalSlot{
			Level:     level,
			Approver:  strings.TrimSpace(approver),
			SubStatus: model.SlotPending,
		})
	}

	if err := mgr.db.WithContext(c).Create(&req).Error; err != nil {
		klog.Errorf("failed to create request for %s: %v", token.Email, err)
		resputil.Error(c, "failed to create request", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToRequestResp(&req))
}

// swagger
//
//	@Summary		Update a training request
//	@Description	Only the creator may edit, and only while the document is Pending or Revise
//	@Tags			requests
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[TrainingRequestResp]
//	@Router			/v1/requests/{id} [put]
func (mgr *TrainingRequestMgr) UpdateRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)
	var payload UpdateRequestReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
		return
	}

	var req model.TrainingRequest
	err := mgr.db.WithContext(c).Preload("Slots").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "document not found", resputil.DocumentNotFound)
		return
	}
	if err != nil {
		klog.Errorf("failed to query request %d: %v", id, err)
		resputil.Error(c, "failed to update request", resputil.NotSpecified)
		return
	}
	if !strings.EqualFold(req.CreatedBy, token.Email) {
		resputil.HTTPError(c, 403, "only the creator may edit this document", resputil.UserNotAllowed)
		return
	}
	if req.Status != model.StatusPending && req.Status != model.StatusRevise {
		resputil.BadRequest(c, "document can only be edited while Pending or Revise", resputil.InvalidRequest)
		return
	}

	approvers := payload.Approvers.byLevel()
	err = mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"title":   payload.Title,
			"detail":  datatypes.NewJSONType(payload.Detail),
			"cc_list": datatypes.NewJSONType(payload.CCList),
		}
		if err := tx.Model(&req).Updates(updates).Error; err != nil {
			return err
		}
		for level, approver := range approvers {
			err := tx.Model(&model.ApprovalSlot{}).
				Where("request_id = ? AND level = ?", id, level).
				Update("approver", strings.TrimSpace(approver)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		klog.Errorf("failed to update request %d: %v", id, err)
		resputil.Error(c, "failed to update request", resputil.NotSpecified)
		return
	}

	if err := mgr.db.WithContext(c).Preload("Slots").First(&req, id).Error; err != nil {
		klog.Errorf("failed to reload request %d: %v", id, err)
		resputil.Error(c, "failed to update request", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToRequestResp(&req))
}

// swagger
//
//	@Summary		Delete a training request
//	@Description	Only the creator may delete, and only while the document is Pending
//	@Tags			requests
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[string]
//	@Router			/v1/requests/{id} [delete]
func (mgr *TrainingRequestMgr) DeleteRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)

	var req model.TrainingRequest
	err := mgr.db.WithContext(c).First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "document not found", resputil.DocumentNotFound)
		return
	}
	if err != nil {
		klog.Errorf("failed to query request %d: %v", id, err)
		resputil.Error(c, "failed to delete request", resputil.NotSpecified)
		return
	}
	if !strings.EqualFold(req.CreatedBy, token.Email) {
		resputil.HTTPError(c, 403, "only the creator may delete this document", resputil.UserNotAllowed)
		return
	}
	if req.Status != model.StatusPending {
		resputil.BadRequest(c, "document can only be deleted while Pending", resputil.InvalidRequest)
		return
	}

	if err := mgr.db.WithContext(c).Select("Slots").Delete(&req).Error; err != nil {
		klog.Errorf("failed to delete request %d: %v", id, err)
		resputil.Error(c, "failed to delete request", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "deleted")
}

// swagger
//
//	@Summary		Audit trail of one request
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]model.ApprovalHistory]
//	@Router			/v1/requests/{id}/history [get]
func (mgr *TrainingRequestMgr) GetHistory(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	if _, ok := mgr.loadVisible(c, id); !ok {
		return
	}
	mgr.respondHistory(c, id)
}

// swagger
//
//	@Summary		Audit trail of any request (admin)
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]model.ApprovalHistory]
//	@Router			/v1/admin/requests/{id}/history [get]
func (mgr *TrainingRequestMgr) GetHistoryAdmin(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	mgr.respondHistory(c, id)
}

func (mgr *TrainingRequestMgr) respondHistory(c *gin.Context, id uint) {
	var entries []model.ApprovalHistory
	err := mgr.db.WithContext(c).
		Where("request_id = ?", id).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		klog.Errorf("failed to query history of request %d: %v", id, err)
		resputil.Error(c, "failed to get history", resputil.NotSpecified)
		return
	}
	resputil.Success(c, entries)
}

// swagger
//
//	@Summary		List all training requests (admin)
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]TrainingRequestResp]
//	@Router			/v1/admin/requests [get]
func (mgr *TrainingRequestMgr) ListAllRequests(c *gin.Context) {
	var reqs []model.TrainingRequest
	if err := mgr.db.WithContext(c).Preload("Slots").Find(&reqs).Error; err != nil {
		klog.Errorf("failed to list requests: %v", err)
		resputil.Error(c, "failed to list requests", resputil.NotSpecified)
		return
	}
	result := make([]TrainingRequestResp, 0, len(reqs))
	for i := range reqs {
		result = append(result, convertToRequestResp(&reqs[i]))
	}
	resputil.Success(c, result)
}

// swagger
//
//	@Summary		Get any training request (admin)
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[TrainingRequestResp]
//	@Router			/v1/admin/requests/{id} [get]
func (mgr *TrainingRequestMgr) GetRequestAdmin(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req model.TrainingRequest
	err := mgr.db.WithContext(c).Preload("Slots").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "document not found", resputil.DocumentNotFound)
		return
	}
	if err != nil {
		klog.Errorf("failed to query request %d: %v", id, err)
		resputil.Error(c, "failed to get request", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToRequestResp(&req))
}

// swagger
//
//	@Summary		Notification log of one request (admin)
//	@Description	Troubleshooting view of dispatched mail; write-only for the engine
//	@Tags			requests
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]model.NotificationRecord]
//	@Router			/v1/admin/requests/{id}/notifications [get]
func (mgr *TrainingRequestMgr) GetNotificationLog(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var rows []model.NotificationRecord
	err := mgr.db.WithContext(c).
		Where("request_id = ?", id).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		klog.Errorf("failed to query notification log of request %d: %v", id, err)
		resputil.Error(c, "failed to get notification log", resputil.NotSpecified)
		return
	}
	resputil.Success(c, rows)
}
