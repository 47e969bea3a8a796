package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/database"
)

type companyRequest struct {
	Name      string `json:"name" binding:"required,min=2"`
	VATNumber string `json:"vat_number"`
	Email     string `json:"email"`
}

// handleListCompanies returns companies with pagination
func (s *Server) handleListCompanies(c *gin.Context) {
	limit, offset := getPagination(c)

	companies, total, err := s.repo.ListCompanies(c.Request.Context(), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list companies")
		return
	}

	pagedResponse(c, companies, total, limit, offset)
}

// handleCreateCompany creates a new company
func (s *Server) handleCreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "company name is required")
		return
	}

	company := &database.Company{
		Name:      req.Name,
		VATNumber: req.VATNumber,
		Email:     req.Email,
	}

	if err := s.repo.CreateCompany(c.Request.Context(), company); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create company")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": company})
}

// handleGetCompany returns a single company
func (s *Server) handleGetCompany(c *gin.Context) {
	company, err := s.repo.GetCompanyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load company")
		return
	}
	if company == nil {
		errorResponse(c, http.StatusNotFound, "company not found")
		return
	}

	successResponse(c, company)
}

// handleUpdateCompany updates a company
func (s *Server) handleUpdateCompany(c *gin.Context) {
	company, err := s.repo.GetCompanyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load company")
		return
	}
	if company == nil {
		errorResponse(c, http.StatusNotFound, "company not found")
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "company name is required")
		return
	}

	company.Name = req.Name
	company.VATNumber = req.VATNumber
	company.Email = req.Email

	if err := s.repo.UpdateCompany(c.Request.Context(), company); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update company")
		return
	}

	successResponse(c, company)
}

// handleDeleteCompany deletes a company
func (s *Server) handleDeleteCompany(c *gin.Context) {
	if err := s.repo.DeleteCompany(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete company")
		return
	}
	successResponse(c, gin.H{"deleted": true})
}

// handleCreditWallet credits (or, with a negative amount, debits) a company
// wallet. The balance is never allowed to go below zero.
func (s *Server) handleCreditWallet(c *gin.Context) {
	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "amount is required")
		return
	}
	if _, err := strconv.ParseFloat(req.Amount, 64); err != nil {
		errorResponse(c, http.StatusBadRequest, "amount must be a decimal number")
		return
	}

	companyID := c.Param("id")
	balance, err := s.repo.CreditCompanyWallet(c.Request.Context(), companyID, req.Amount)
	if err != nil {
		errorResponse(c, http.StatusConflict, "wallet credit rejected")
		return
	}

	s.eventBus.PublishWalletCredited(companyID, req.Amount, balance)

	successResponse(c, gin.H{"wallet_balance": balance})
}
