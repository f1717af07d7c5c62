package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/http/middleware"
	"github.com/yungbote/graph-api/internal/http/response"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

type tokenInfo struct {
	TokenID     string     `json:"token_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Scopes      []string   `json:"scopes"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

type userInfo struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Validate always answers 200; validity is in the body, not the status.
func (h *AuthHandler) Validate(c *gin.Context) {
	raw := c.Query("token")
	record, err := h.authService.ValidateToken(c.Request.Context(), raw)
	if err != nil {
		response.RespondOK(c, gin.H{"valid": false, "token_info": nil, "user_info": nil})
		return
	}
	response.RespondOK(c, gin.H{
		"valid": true,
		"token_info": tokenInfo{
			TokenID:     record.TokenID,
			Name:        record.Name,
			Description: record.Description,
			Scopes:      record.ScopeList(),
			CreatedAt:   record.CreatedAt,
			ExpiresAt:   record.ExpiresAt,
			IsActive:    record.IsActive,
		},
		"user_info": userInfo{
			Username: record.Username,
			FullName: record.FullName,
			Email:    record.Email,
		},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	authz := middleware.AuthorizationFrom(c)
	if authz == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errors.New("missing authorization"))
		return
	}
	response.RespondOK(c, gin.H{
		"username":      authz.Username,
		"full_name":     authz.FullName,
		"email":         authz.Email,
		"token_id":      authz.TokenID,
		"token_name":    authz.TokenName,
		"scopes":        authz.Scopes,
		"authenticated": true,
	})
}

func (h *AuthHandler) TestAuth(c *gin.Context) {
	authz := middleware.AuthorizationFrom(c)
	if authz == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errors.New("missing authorization"))
		return
	}
	response.RespondOK(c, gin.H{
		"message":       "authentication successful",
		"username":      authz.Username,
		"scopes":        authz.Scopes,
		"authenticated": true,
	})
}

// ListTokens is admin-only (enforced at the route). Secrets appear only as a
// fixed-length preview.
func (h *AuthHandler) ListTokens(c *gin.Context) {
	tokens, err := h.authService.ListTokens(c.Request.Context())
	if err != nil {
		h.log.Error("listing tokens failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to list tokens"))
		return
	}
	list := make([]gin.H, 0, len(tokens))
	for _, t := range tokens {
		list = append(list, gin.H{
			"token_id":      t.TokenID,
			"name":          t.Name,
			"description":   t.Description,
			"scopes":        t.ScopeList(),
			"created_at":    t.CreatedAt,
			"expires_at":    t.ExpiresAt,
			"is_active":     t.IsActive,
			"username":      t.Username,
			"full_name":     t.FullName,
			"email":         t.Email,
			"use_count":     t.UseCount,
			"last_used":     t.LastUsed,
			"created_by":    t.CreatedBy,
			"token_preview": t.TokenPreview(),
		})
	}
	response.RespondOK(c, gin.H{"tokens": list, "count": len(list)})
}

type generateTokenRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays int      `json:"expires_in_days"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name"`
	Email         string   `json:"email"`
}

// Generate creates a token and returns the secret this one time.
func (h *AuthHandler) Generate(c *gin.Context) {
	var req generateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	createdBy := ""
	if authz := middleware.AuthorizationFrom(c); authz != nil {
		createdBy = authz.Username
	}
	created, err := h.authService.GenerateToken(c.Request.Context(), services.GenerateTokenInput{
		Name:          req.Name,
		Description:   req.Description,
		Scopes:        req.Scopes,
		ExpiresInDays: req.ExpiresInDays,
		Username:      req.Username,
		FullName:      req.FullName,
		Email:         req.Email,
		CreatedBy:     createdBy,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      created.Token,
		"token_id":   created.TokenID,
		"name":       created.Name,
		"scopes":     created.ScopeList(),
		"expires_at": created.ExpiresAt,
	})
}
