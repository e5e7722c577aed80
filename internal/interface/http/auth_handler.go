package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/config"
	"github.com/sharecycle/accounts/internal/application"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/internal/interface/middleware"
	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/response"
	"github.com/sharecycle/accounts/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cfg     *config.Config
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		Svc:     svc,
		Logger:  logger,
		Cfg:     cfg,
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}
}

func requestMeta(c *gin.Context) application.RequestMeta {
	return application.RequestMeta{
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		At:        time.Now(),
	}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,pwd"`
	DisplayName string `json:"display_name" binding:"required,max=80"`
	Language    string `json:"language" binding:"omitempty,lang"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Language:    req.Language,
	})
	if err != nil {
		if errors.Is(err, application.ErrEmailRequired) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.Logger.WithError(err).Error("registration failed")
		response.Error(c, http.StatusConflict, "could not create account", nil)
		return
	}
	response.Success(c, http.StatusCreated, profileJSON(h.Svc, a), "account created, verification email sent", nil)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, profileJSON(h.Svc, a), "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if id := c.GetString(middleware.CtxAccountIDKey); id != "" {
		h.Svc.Logout(c.Request.Context(), id)
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyMail consumes an emailed verification code. Public: the code is
// the credential.
func (h *AuthHandler) VerifyMail(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, err := h.Svc.ConfirmEmail(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(c, http.StatusBadRequest, "invalid or already used code", nil)
			return
		}
		h.Logger.WithError(err).Error("email verification failed")
		response.Error(c, http.StatusInternalServerError, "verification failed", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"email": a.Email, "mail_verified": true}, "email verified", nil)
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	if err := h.Svc.ResendMailVerification(c.Request.Context(), uid); err != nil {
		h.Logger.WithError(err).Error("resend verification failed")
		response.Error(c, http.StatusInternalServerError, "could not resend verification", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"sent": true}, "verification email sent", nil)
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset always answers 200 so the endpoint cannot be
// used to probe which addresses have accounts.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email, requestMeta(c)); err != nil && !errors.Is(err, application.ErrAccountNotFound) {
		h.Logger.WithError(err).Error("password reset request failed")
	}
	response.Success(c, http.StatusOK, map[string]any{"sent": true}, "if the address has an account, a reset email was sent", nil)
}

type passwordResetConfirmRequest struct {
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req passwordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ConfirmPasswordReset(c.Request.Context(), req.Code, req.NewPassword, requestMeta(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(c, http.StatusBadRequest, "invalid or already used code", nil)
			return
		}
		h.Logger.WithError(err).Error("password reset confirm failed")
		response.Error(c, http.StatusInternalServerError, "password reset failed", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"changed": true}, "password updated", nil)
}
