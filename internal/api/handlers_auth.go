package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/auth"
)

// handleLogin authenticates an operator and returns an access token
func (s *Server) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "email and password are required")
		return
	}

	resp, err := s.authService.Login(c.Request.Context(), req)
	if err != nil {
		if authErr, ok := err.(auth.AuthError); ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}
		errorResponse(c, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleMe returns the authenticated operator's profile
func (s *Server) handleMe(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := s.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, http.StatusNotFound, "operator not found")
		return
	}

	successResponse(c, user)
}

// handleChangePassword changes the authenticated operator's password
func (s *Server) handleChangePassword(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "current and new password are required")
		return
	}

	if err := s.authService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		if authErr, ok := err.(auth.AuthError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to change password")
		return
	}

	successResponse(c, gin.H{"changed": true})
}
