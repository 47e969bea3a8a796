package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/database"
)

type clientRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Name      string `json:"name" binding:"required,min=2"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// handleListClients returns clients, optionally filtered by company
func (s *Server) handleListClients(c *gin.Context) {
	limit, offset := getPagination(c)

	clients, total, err := s.repo.ListClients(c.Request.Context(), c.Query("company_id"), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list clients")
		return
	}

	pagedResponse(c, clients, total, limit, offset)
}

// handleCreateClient creates a new client under a company
func (s *Server) handleCreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "company_id and name are required")
		return
	}

	company, err := s.repo.GetCompanyByID(c.Request.Context(), req.CompanyID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to check company")
		return
	}
	if company == nil {
		errorResponse(c, http.StatusBadRequest, "company does not exist")
		return
	}

	client := &database.Client{
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}

	if err := s.repo.CreateClient(c.Request.Context(), client); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create client")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": client})
}

// handleGetClient returns a single client
func (s *Server) handleGetClient(c *gin.Context) {
	client, err := s.repo.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load client")
		return
	}
	if client == nil {
		errorResponse(c, http.StatusNotFound, "client not found")
		return
	}

	successResponse(c, client)
}

// handleUpdateClient updates a client
func (s *Server) handleUpdateClient(c *gin.Context) {
	client, err := s.repo.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load client")
		return
	}
	if client == nil {
		errorResponse(c, http.StatusNotFound, "client not found")
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "company_id and name are required")
		return
	}

	client.CompanyID = req.CompanyID
	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.Notes = req.Notes

	if err := s.repo.UpdateClient(c.Request.Context(), client); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update client")
		return
	}

	successResponse(c, client)
}

// handleDeleteClient deletes a client
func (s *Server) handleDeleteClient(c *gin.Context) {
	if err := s.repo.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete client")
		return
	}
	successResponse(c, gin.H{"deleted": true})
}
