package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/internal/resputil"
	"github.com/hris-lab/trainflow/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name string
	db   *gorm.DB
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name: "users",
		db:   conf.DB,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/me", mgr.Me)
}

func (mgr *UserMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListUsers)
	g.POST("", mgr.CreateUser)
}

type (
	UserResp struct {
		ID       uint       `json:"id"`
		Name     string     `json:"name"`
		Nickname string     `json:"nickname"`
		Email    string     `json:"email"`
		Role     model.Role `json:"role"`
		Section  string     `json:"section"`
	}

	CreateUserReq struct {
		Name     string     `json:"name" binding:"required"`
		Nickname string     `json:"nickname"`
		Email    string     `json:"email" binding:"required,email"`
		Password string     `json:"password" binding:"required"`
		Role     model.Role `json:"role" binding:"required"`
		Section  string     `json:"section"`
	}
)

func convertToUserResp(u *model.User) UserResp {
	resp := UserResp{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Section: u.Section,
	}
	if u.Nickname != nil {
		resp.Nickname = *u.Nickname
	}
	return resp
}

// swagger
//
//	@Summary		Current user profile
//	@Tags			users
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[UserResp]
//	@Router			/v1/users/me [get]
func (mgr *UserMgr) Me(c *gin.Context) {
	token := util.GetToken(c)
	var user model.User
	if err := mgr.db.WithContext(c).First(&user, token.UserID).Error; err != nil {
		klog.Errorf("failed to query user %d: %v", token.UserID, err)
		resputil.Error(c, "failed to get user", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToUserResp(&user))
}

// swagger
//
//	@Summary		List users (admin)
//	@Tags			users
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]UserResp]
//	@Router			/v1/admin/users [get]
func (mgr *UserMgr) ListUsers(c *gin.Context) {
	var users []model.User
	if err := mgr.db.WithContext(c).Find(&users).Error; err != nil {
		klog.Errorf("failed to list users: %v", err)
		resputil.Error(c, "failed to list users", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(users, func(u model.User, _ int) UserResp {
		return convertToUserResp(&u)
	}))
}

// swagger
//
//	@Summary		Create a user (admin)
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[UserResp]
//	@Router			/v1/admin/users [post]
func (mgr *UserMgr) CreateUser(c *gin.Context) {
	var req CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		klog.Errorf("failed to hash password: %v", err)
		resputil.Error(c, "failed to create user", resputil.NotSpecified)
		return
	}
	password := string(hashed)
	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: &password,
		Role:     req.Role,
		Section:  req.Section,
	}
	if req.Nickname != "" {
		user.Nickname = &req.Nickname
	}
	if err := mgr.db.WithContext(c).Create(&user).Error; err != nil {
		klog.Errorf("failed to create user %s: %v", req.Name, err)
		resputil.Error(c, "failed to create user", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToUserResp(&user))
}
