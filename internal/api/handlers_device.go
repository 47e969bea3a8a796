package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/database"
	"license-backoffice/internal/license"
)

type registerDeviceRequest struct {
	LicenseKey  string `json:"license_key" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
	Name        string `json:"name"`
}

type validateLicenseRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
}

// handleValidateLicense lets client software check a license key. The
// response never leaks client or billing data, only what the software
// needs to gate features.
func (s *Server) handleValidateLicense(c *gin.Context) {
	var req validateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "license_key is required")
		return
	}

	key := license.NormalizeKey(req.LicenseKey)
	if !license.IsValidKeyFormat(key) {
		errorResponse(c, http.StatusBadRequest, "malformed license key")
		return
	}

	lic, err := s.repo.GetLicenseByKey(c.Request.Context(), key)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	valid := lic.Status == string(license.StatusAttiva) || lic.Status == string(license.StatusDemo)
	if valid && lic.ExpiryDate != nil && lic.ExpiryDate.Before(time.Now()) {
		valid = false
	}

	resp := gin.H{
		"valid":        valid,
		"status":       lic.Status,
		"license_type": lic.LicenseType,
	}
	if lic.ExpiryDate != nil {
		resp["expiry_date"] = lic.ExpiryDate.Format("2006-01-02")
	}
	c.JSON(http.StatusOK, resp)
}

// handleRegisterDevice registers the calling device against a license key.
// Re-registering the same fingerprint refreshes the last-seen data.
func (s *Server) handleRegisterDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "license_key and fingerprint are required")
		return
	}

	key := license.NormalizeKey(req.LicenseKey)
	lic, err := s.repo.GetLicenseByKey(c.Request.Context(), key)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		errorResponse(c, http.StatusNotFound, "license not found")
		return
	}
	if lic.Status != string(license.StatusAttiva) && lic.Status != string(license.StatusDemo) {
		errorResponse(c, http.StatusForbidden, "license is not active")
		return
	}

	device := &database.Device{
		LicenseID:   lic.ID,
		Name:        req.Name,
		Fingerprint: req.Fingerprint,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}

	if err := s.repo.RegisterDevice(c.Request.Context(), device); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to register device")
		return
	}

	s.eventBus.PublishDeviceRegistered(device.ID, lic.ID, device.Fingerprint)

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": device})
}

// handleListLicenseDevices returns the devices registered against a license
func (s *Server) handleListLicenseDevices(c *gin.Context) {
	devices, err := s.repo.ListDevicesByLicense(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list devices")
		return
	}

	successResponse(c, devices)
}

// handleDeleteDevice removes a device registration from a license
func (s *Server) handleDeleteDevice(c *gin.Context) {
	if err := s.repo.DeleteDevice(c.Request.Context(), c.Param("deviceId")); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete device")
		return
	}
	successResponse(c, gin.H{"deleted": true})
}
