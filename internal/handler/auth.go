package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"evaladmin/internal/admin"
	"evaladmin/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("email and password are required"))
		return
	}
	if err := h.admin.Verify(req.Email, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	tokens, err := auth.Issue(req.Email, auth.RoleAdmin, h.tokens.Issuer, h.tokens.SigningKey, h.tokens.AccessTTL, h.tokens.RefreshTTL)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", tokens)
}

func (h *Handler) updatePassword(c *gin.Context) {
	var req admin.PasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	if err := h.svc.UpdatePassword(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password updated successfully", nil)
}
