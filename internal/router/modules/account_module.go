package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharecycle/accounts/internal/container"
	handlers "github.com/sharecycle/accounts/internal/interface/http"
	"github.com/sharecycle/accounts/internal/interface/middleware"
	"github.com/sharecycle/accounts/pkg/helpers"
)

// AccountModule registers the authenticated profile routes plus the
// public deletion confirm, whose credential is the emailed code rather
// than a session.
type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	codeLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.POST("/account/delete/confirm", codeLimiter, m.Handler.ConfirmDeletion)

	authed := rg.Group("/")
	authed.Use(middleware.Auth(rdb, m.JWT))
	authed.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByAccount(), nil),
	)
	{
		authed.GET("/account", m.Handler.GetProfile)
		authed.PATCH("/account", m.Handler.UpdateProfile)
		authed.PUT("/account/email", m.Handler.UpdateEmail)
		authed.POST("/account/email/restore", m.Handler.RestoreEmail)
		authed.PUT("/account/language", m.Handler.UpdateLanguage)
		authed.PUT("/account/password", m.Handler.ChangePassword)
		authed.POST("/account/delete", m.Handler.RequestDeletion)
		authed.PUT("/account/photo", m.Handler.UploadPhoto)
		authed.DELETE("/account/photo", m.Handler.DeletePhoto)
		authed.GET("/accounts/search", m.Handler.SearchProfiles)
	}
}
