package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	ldap "github.com/go-ldap/ldap/v3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/internal/resputil"
	"github.com/hris-lab/trainflow/internal/util"
	"github.com/hris-lab/trainflow/pkg/config"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name     string
	db       *gorm.DB
	tokenMgr *util.TokenManager
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:     "auth",
		db:       conf.DB,
		tokenMgr: util.GetTokenMgr(),
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/login", mgr.Login)
	g.POST("/refresh", mgr.RefreshToken)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	LoginReq struct {
		Username   string `json:"username" binding:"required"`
		Password   string `json:"password" binding:"required"`
		AuthMethod string `json:"auth" binding:"required"` // [normal, ldap]
	}

	LoginResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		Context      UserContext
	}

	UserContext struct {
		Username string     `json:"username"`
		Email    string     `json:"email"`
		Role     model.Role `json:"role"`
	}

	RefreshReq struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
)

const (
	AuthMethodNormal = "normal"
	AuthMethodLDAP   = "ldap"
)

// swagger
//
//	@Summary		Login
//	@Description	Checks the credentials and issues a JWT token pair
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	resputil.Response[LoginResp]
//	@Router			/v1/login [post]
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
		return
	}

	switch req.AuthMethod {
	case AuthMethodNormal:
		if err := mgr.normalAuth(c, req.Username, req.Password); err != nil {
			resputil.HTTPError(c, 401, "invalid credentials", resputil.InvalidCredentials)
			return
		}
	case AuthMethodLDAP:
		if err := mgr.ldapAuth(req.Username, req.Password); err != nil {
			klog.Infof("ldap auth failed for %s: %v", req.Username, err)
			resputil.HTTPError(c, 401, "invalid credentials", resputil.InvalidCredentials)
			return
		}
	default:
		resputil.BadRequest(c, "unknown auth method", resputil.InvalidRequest)
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).Where("name = ?", req.Username).First(&user).Error; err != nil {
		resputil.HTTPError(c, 401, "invalid credentials", resputil.InvalidCredentials)
		return
	}

	msg := util.JWTMessage{
		UserID:   user.ID,
		Username: user.Name,
		Email:    user.Email,
		Role:     user.Role,
	}
	accessToken, refreshToken, err := mgr.tokenMgr.CreateTokens(&msg)
	if err != nil {
		klog.Errorf("failed to create tokens for %s: %v", user.Name, err)
		resputil.Error(c, "failed to create tokens", resputil.NotSpecified)
		return
	}
	resputil.Success(c, LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Context: UserContext{
			Username: user.Name,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}

func (mgr *AuthMgr) normalAuth(c *gin.Context, username, password string) error {
	var user model.User
	if err := mgr.db.WithContext(c).Where("name = ?", username).First(&user).Error; err != nil {
		return err
	}
	if user.Password == nil {
		return errors.New("user has no local password")
	}
	return bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(password))
}

func (mgr *AuthMgr) ldapAuth(username, password string) error {
	authConfig := config.GetConfig().LDAP
	if !authConfig.Enable {
		return errors.New("ldap auth is disabled")
	}
	l, err := ldap.DialURL(authConfig.Address)
	if err != nil {
		return err
	}
	defer l.Close()
	if err = l.Bind(authConfig.UserName, authConfig.Password); err != nil {
		return err
	}

	searchRequest := ldap.NewSearchRequest(
		authConfig.SearchDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		[]string{"dn"},
		nil,
	)
	sr, err := l.Search(searchRequest)
	if err != nil {
		return err
	}
	if len(sr.Entries) != 1 {
		return errors.New("user does not exist or too many entries returned")
	}
	return l.Bind(sr.Entries[0].DN, password)
}

// swagger
//
//	@Summary		Refresh the token pair
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	resputil.Response[LoginResp]
//	@Router			/v1/refresh [post]
func (mgr *AuthMgr) RefreshToken(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
		return
	}
	msg, err := mgr.tokenMgr.CheckToken(req.RefreshToken)
	if err != nil {
		resputil.HTTPError(c, 401, "invalid refresh token", resputil.TokenInvalid)
		return
	}
	accessToken, refreshToken, err := mgr.tokenMgr.CreateTokens(&msg)
	if err != nil {
		klog.Errorf("failed to refresh tokens for %s: %v", msg.Username, err)
		resputil.Error(c, "failed to create tokens", resputil.NotSpecified)
		return
	}
	resputil.Success(c, LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Context: UserContext{
			Username: msg.Username,
			Email:    msg.Email,
			Role:     msg.Role,
		},
	})
}
