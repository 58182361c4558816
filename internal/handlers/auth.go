package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/services/admin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService admin.AuthService
}

func NewAuthHandler(authService admin.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Email    string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // 用户名或邮箱
	Password   string `json:"password" binding:"required"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 使用用户名、密码和邮箱注册新账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} xerr.Response "注册成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 409 {object} xerr.Response "用户名或邮箱已存在"
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	user, err := h.authService.RegisterUser(req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, xerr.ErrUserAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.UserAlreadyExistsCode, err.Error())
		} else if errors.Is(err, xerr.ErrEmailAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.EmailAlreadyExistsCode, err.Error())
		} else {
			logger.Error("Register: 注册用户失败", zap.String("username", req.Username), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "注册失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "注册成功", gin.H{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用用户名或邮箱登录，返回 JWT Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} xerr.Response "登录成功"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	token, err := h.authService.LoginUser(req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) || errors.Is(err, xerr.ErrInvalidCredentials) {
			// 不区分用户不存在和密码错误,避免账号枚举
			xerr.Error(c, http.StatusUnauthorized, xerr.InvalidCredentialsCode, "用户名或密码不正确")
		} else {
			logger.Error("Login: 登录失败", zap.String("identifier", req.Identifier), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "登录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "登录成功", gin.H{
		"token": token,
	})
}
