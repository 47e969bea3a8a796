package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/events"
	"license-backoffice/internal/license"
)

// handleListTransactions returns transactions with optional filters
func (s *Server) handleListTransactions(c *gin.Context) {
	limit, offset := getPagination(c)

	transactions, total, err := s.repo.ListTransactions(c.Request.Context(),
		c.Query("license_id"), c.Query("client_id"), c.Query("status"), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	pagedResponse(c, transactions, total, limit, offset)
}

// handleGetTransaction returns a single transaction
func (s *Server) handleGetTransaction(c *gin.Context) {
	tx, err := s.repo.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	if tx == nil {
		errorResponse(c, http.StatusNotFound, "transaction not found")
		return
	}

	successResponse(c, tx)
}

// handleUpdateTransactionStatus settles or cancels a transaction
func (s *Server) handleUpdateTransactionStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "status is required")
		return
	}

	switch license.TransactionStatus(req.Status) {
	case license.TransactionInAttesa, license.TransactionPagata, license.TransactionAnnullata:
	default:
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown transaction status %q", req.Status))
		return
	}

	id := c.Param("id")
	if err := s.repo.UpdateTransactionStatus(c.Request.Context(), id, req.Status); err != nil {
		errorResponse(c, http.StatusNotFound, "transaction not found")
		return
	}

	s.eventBus.Publish(events.Event{
		Type: events.EventTransactionSettled,
		Data: map[string]interface{}{
			"transaction_id": id,
			"status":         req.Status,
		},
	})

	successResponse(c, gin.H{"id": id, "status": req.Status})
}
