package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/internal/application"
	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/internal/interface/middleware"
	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/response"
	"github.com/sharecycle/accounts/pkg/validation"
)

const maxPhotoBytes = 5 << 20

// ProfileSearcher is the read side of the search index.
type ProfileSearcher interface {
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type AccountHandler struct {
	Svc      *application.Service
	Searcher ProfileSearcher
	Logger   *logrus.Logger
}

func NewAccountHandler(svc *application.Service, searcher ProfileSearcher, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Searcher: searcher, Logger: logger}
}

func profileJSON(svc *application.Service, a *entity.Account) gin.H {
	photoURL := ""
	if a.PhotoPath != "" && svc.Photos != nil {
		photoURL = svc.Photos.PublicURL(a.PhotoPath)
	}
	return gin.H{
		"id":               a.ID,
		"email":            a.Email,
		"unverified_email": a.UnverifiedEmail,
		"mail_verified":    a.MailVerified,
		"display_name":     a.DisplayName,
		"description":      a.Description,
		"language":         a.Language,
		"mobile_number":    a.MobileNumber,
		"address":          a.Address,
		"latitude":         a.Latitude,
		"longitude":        a.Longitude,
		"current_group_id": a.CurrentGroupID,
		"photo_url":        photoURL,
		"created_at":       a.CreatedAt,
		"updated_at":       a.UpdatedAt,
	}
}

// requireOwnPassword re-checks the caller's password before sensitive
// changes. Accounts without a usable password cannot pass this and must
// go through the emailed reset flow instead.
func (h *AccountHandler) requireOwnPassword(c *gin.Context, accountID, password string) bool {
	a, err := h.Svc.GetProfile(c.Request.Context(), accountID)
	if err != nil || !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		response.Error(c, http.StatusForbidden, "wrong password", nil)
		return false
	}
	return true
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	a, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, http.StatusNotFound, "account not found", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(h.Svc, a), "profile", nil)
}

type updateProfileRequest struct {
	DisplayName    string   `json:"display_name" binding:"omitempty,max=80"`
	Description    *string  `json:"description"`
	MobileNumber   *string  `json:"mobile_number" binding:"omitempty,phone"`
	Address        *string  `json:"address"`
	Latitude       *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" binding:"omitempty,longitude"`
	CurrentGroupID *string  `json:"current_group_id"`
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		MobileNumber:   req.MobileNumber,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		CurrentGroupID: req.CurrentGroupID,
	})
	if err != nil {
		h.Logger.WithError(err).Error("profile update failed")
		response.Error(c, http.StatusBadRequest, "failed to update profile", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(h.Svc, a), "profile updated", nil)
}

type updateEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateEmail stages an address change. The new address only becomes
// canonical once its verification code is confirmed.
func (h *AccountHandler) UpdateEmail(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if !h.requireOwnPassword(c, uid, req.Password) {
		return
	}
	a, err := h.Svc.UpdateEmail(c.Request.Context(), uid, req.NewEmail)
	if err != nil {
		if errors.Is(err, application.ErrEmailRequired) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.Logger.WithError(err).Error("email change failed")
		response.Error(c, http.StatusInternalServerError, "email change failed", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(h.Svc, a), "verification email sent to new address", nil)
}

// RestoreEmail cancels a pending email change.
func (h *AccountHandler) RestoreEmail(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	a, err := h.Svc.RestoreEmail(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("email restore failed")
		response.Error(c, http.StatusInternalServerError, "email restore failed", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(h.Svc, a), "email change cancelled", nil)
}

type updateLanguageRequest struct {
	Language string `json:"language" binding:"required,lang"`
}

func (h *AccountHandler) UpdateLanguage(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	var req updateLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, err := h.Svc.UpdateLanguage(c.Request.Context(), uid, req.Language)
	if err != nil {
		h.Logger.WithError(err).Error("language update failed")
		response.Error(c, http.StatusInternalServerError, "language update failed", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(h.Svc, a), "language updated", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if !h.requireOwnPassword(c, uid, req.OldPassword) {
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.NewPassword, requestMeta(c)); err != nil {
		h.Logger.WithError(err).Error("password change failed")
		response.Error(c, http.StatusInternalServerError, "password change failed", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"changed": true}, "password updated", nil)
}

// RequestDeletion emails the caller a confirmation code. Nothing is
// deleted until the code comes back.
func (h *AccountHandler) RequestDeletion(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	if err := h.Svc.SendAccountDeletionCode(c.Request.Context(), uid); err != nil {
		h.Logger.WithError(err).Error("deletion request failed")
		response.Error(c, http.StatusInternalServerError, "could not send deletion code", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"sent": true}, "deletion confirmation email sent", nil)
}

// ConfirmDeletion is public: the emailed code is the credential, and the
// account may no longer have a live session.
func (h *AccountHandler) ConfirmDeletion(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ConfirmDeletion(c.Request.Context(), req.Code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(c, http.StatusBadRequest, "invalid or already used code", nil)
			return
		}
		h.Logger.WithError(err).Error("account deletion failed")
		response.Error(c, http.StatusInternalServerError, "account deletion failed", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"deleted": true}, "account deleted", nil)
}

func (h *AccountHandler) UploadPhoto(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)

	file, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "photo file required", nil)
		return
	}
	if file.Size > maxPhotoBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, "photo too large", nil)
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "could not read photo", nil)
		return
	}
	defer f.Close()

	url, err := h.Svc.UploadPhoto(c.Request.Context(), uid, f, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.WithError(err).Error("photo upload failed")
		response.Error(c, http.StatusInternalServerError, "photo upload failed", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"photo_url": url}, "photo updated", nil)
}

// SearchProfiles queries the Elasticsearch mirror of active profiles.
func (h *AccountHandler) SearchProfiles(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size := 20
	if s, err := strconv.Atoi(c.Query("size")); err == nil && s > 0 && s <= 100 {
		size = s
	}
	hits, err := h.Searcher.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("profile search failed")
		response.Error(c, http.StatusBadGateway, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

func (h *AccountHandler) DeletePhoto(c *gin.Context) {
	uid := c.GetString(middleware.CtxAccountIDKey)
	if err := h.Svc.DeletePhoto(c.Request.Context(), uid); err != nil {
		h.Logger.WithError(err).Error("photo delete failed")
		response.Error(c, http.StatusInternalServerError, "photo delete failed", nil)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"deleted": true}, "photo removed", nil)
}
