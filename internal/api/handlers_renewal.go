package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/database"
	"license-backoffice/internal/license"
)

// handleRunRenewals triggers a renewal batch immediately. The run lock
// turns concurrent triggers into a 409.
func (s *Server) handleRunRenewals(c *gin.Context) {
	if s.scheduler == nil {
		errorResponse(c, http.StatusServiceUnavailable, "renewal scheduler is not configured")
		return
	}

	summary, err := s.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		if err == database.ErrRunInProgress {
			errorResponse(c, http.StatusConflict, "a renewal run is already in progress")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "renewal run failed")
		return
	}

	successResponse(c, summary)
}

// handleRenewalStatus returns the scheduler state and last run summary
func (s *Server) handleRenewalStatus(c *gin.Context) {
	if s.scheduler == nil {
		errorResponse(c, http.StatusServiceUnavailable, "renewal scheduler is not configured")
		return
	}

	successResponse(c, s.scheduler.Status())
}

// handlePreviewExpiry computes the expiry date a license type would get
// if renewed or activated on a given anchor date. Used by the console to
// show the outcome before committing.
func (s *Server) handlePreviewExpiry(c *gin.Context) {
	licenseType := c.Query("license_type")
	if !license.IsValidType(licenseType) {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown license type %q", licenseType))
		return
	}

	trialDays := 0
	if v := c.Query("trial_days"); v != "" {
		trialDays, _ = strconv.Atoi(v)
	}

	anchor := time.Now()
	if v := c.Query("anchor"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "anchor must be a yyyy-mm-dd date")
			return
		}
		anchor = parsed
	}

	expiry := license.ComputeExpiry(licenseType, trialDays, anchor)

	resp := gin.H{
		"license_type": licenseType,
		"anchor":       anchor.Format("2006-01-02"),
	}
	if expiry != nil {
		resp["expiry_date"] = expiry.Format("2006-01-02")
	} else {
		resp["expiry_date"] = nil
	}

	successResponse(c, resp)
}
