package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharecycle/accounts/internal/container"
	handlers "github.com/sharecycle/accounts/internal/interface/http"
	"github.com/sharecycle/accounts/internal/interface/middleware"
	"github.com/sharecycle/accounts/pkg/helpers"
)

// AuthModule registers the public account lifecycle routes:
// registration, login/refresh, email verification, password reset.
// The email-sending endpoints carry tight per-IP limits since each hit
// can trigger an outbound message.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	mailLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)
	codeLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", mailLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	rg.POST("/auth/verify-mail", codeLimiter, m.Handler.VerifyMail)
	rg.POST("/auth/password/reset", mailLimiter, m.Handler.RequestPasswordReset)
	rg.POST("/auth/password/reset/confirm", codeLimiter, m.Handler.ConfirmPasswordReset)

	authed := rg.Group("/")
	authed.Use(middleware.Auth(rdb, m.JWT))
	{
		authed.POST("/auth/logout", m.Handler.Logout)
		authed.POST("/auth/verify-mail/resend", mailLimiter, m.Handler.ResendVerification)
	}
}
