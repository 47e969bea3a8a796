package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/database"
	"license-backoffice/internal/events"
	"license-backoffice/internal/license"
)

type createLicenseRequest struct {
	ClientID       string `json:"client_id" binding:"required"`
	ProductID      string `json:"product_id"`
	LicenseType    string `json:"license_type" binding:"required"`
	Key            string `json:"key"`
	Price          string `json:"price"`
	Discount       string `json:"discount"`
	TrialDays      int    `json:"trial_days"`
	RenewalEnabled bool   `json:"renewal_enabled"`
	Notes          string `json:"notes"`
}

type updateLicenseRequest struct {
	Status         *string `json:"status"`
	Price          *string `json:"price"`
	Discount       *string `json:"discount"`
	TrialDays      *int    `json:"trial_days"`
	RenewalEnabled *bool   `json:"renewal_enabled"`
	Notes          *string `json:"notes"`
}

// handleListLicenses returns licenses with optional type/status/client filters
func (s *Server) handleListLicenses(c *gin.Context) {
	limit, offset := getPagination(c)

	licenses, total, err := s.repo.ListLicensesFiltered(c.Request.Context(),
		c.Query("license_type"), c.Query("status"), c.Query("client_id"), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list licenses")
		return
	}

	pagedResponse(c, licenses, total, limit, offset)
}

// handleListLicenseTypes returns the accepted license types, flagging the
// legacy aliases so the console can hide them on new licenses.
func (s *Server) handleListLicenseTypes(c *gin.Context) {
	types := make([]gin.H, 0, len(license.ValidTypes()))
	for _, t := range license.ValidTypes() {
		types = append(types, gin.H{
			"type":         string(t),
			"legacy":       license.IsLegacyType(string(t)),
			"subscription": license.IsSubscription(string(t)),
		})
	}
	successResponse(c, types)
}

// handleCreateLicense creates a new license in the awaiting-validation state
func (s *Server) handleCreateLicense(c *gin.Context) {
	var req createLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "client_id and license_type are required")
		return
	}

	if !license.IsValidType(req.LicenseType) {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown license type %q", req.LicenseType))
		return
	}
	if license.IsLegacyType(req.LicenseType) {
		errorResponse(c, http.StatusBadRequest, "legacy license types cannot be assigned to new licenses")
		return
	}

	client, err := s.repo.GetClientByID(c.Request.Context(), req.ClientID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to check client")
		return
	}
	if client == nil {
		errorResponse(c, http.StatusBadRequest, "client does not exist")
		return
	}

	price := req.Price
	if price == "" && req.ProductID != "" {
		product, err := s.repo.GetProductByID(c.Request.Context(), req.ProductID)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "failed to check product")
			return
		}
		if product == nil {
			errorResponse(c, http.StatusBadRequest, "product does not exist")
			return
		}
		price = product.Price
	}
	if price == "" {
		price = "0.00"
	}
	if v, err := strconv.ParseFloat(price, 64); err != nil || v < 0 {
		errorResponse(c, http.StatusBadRequest, "price must be a non-negative decimal number")
		return
	}
	discount := req.Discount
	if discount == "" {
		discount = "0.00"
	}
	if v, err := strconv.ParseFloat(discount, 64); err != nil || v < 0 {
		errorResponse(c, http.StatusBadRequest, "discount must be a non-negative decimal number")
		return
	}

	key := license.NormalizeKey(req.Key)
	if key == "" {
		key = license.GenerateKey(license.Type(req.LicenseType))
	} else if !license.IsValidKeyFormat(key) {
		errorResponse(c, http.StatusBadRequest, "license key must match XXX-XXXX-XXXX-XXXX")
		return
	}

	trialDays := req.TrialDays
	if license.Type(req.LicenseType) == license.TypeTrial && trialDays <= 0 {
		trialDays = license.DefaultTrialDays
	}

	lic := &database.License{
		Key:            key,
		LicenseType:    req.LicenseType,
		Status:         string(license.StatusInAttesaConvalida),
		ClientID:       req.ClientID,
		ProductID:      req.ProductID,
		RenewalEnabled: req.RenewalEnabled,
		TrialDays:      trialDays,
		Price:          price,
		Discount:       discount,
		Notes:          req.Notes,
	}

	if err := s.repo.CreateLicense(c.Request.Context(), lic); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create license")
		return
	}

	s.eventBus.PublishLicenseCreated(lic.ID, lic.Key, lic.LicenseType, lic.Status)

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": lic})
}

// handleGetLicense returns a single license
func (s *Server) handleGetLicense(c *gin.Context) {
	lic, err := s.repo.GetLicenseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		errorResponse(c, http.StatusNotFound, "license not found")
		return
	}

	successResponse(c, lic)
}

// handleGetLicenseByKey looks up a license by its key
func (s *Server) handleGetLicenseByKey(c *gin.Context) {
	key := license.NormalizeKey(c.Param("key"))

	lic, err := s.repo.GetLicenseByKey(c.Request.Context(), key)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		errorResponse(c, http.StatusNotFound, "license not found")
		return
	}

	successResponse(c, lic)
}

// handleUpdateLicense updates the editable fields of a license. The key,
// type and client binding are immutable after creation.
func (s *Server) handleUpdateLicense(c *gin.Context) {
	lic, err := s.repo.GetLicenseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		errorResponse(c, http.StatusNotFound, "license not found")
		return
	}

	var req updateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status != nil {
		if !license.IsValidStatus(*req.Status) {
			errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", *req.Status))
			return
		}
		lic.Status = *req.Status
	}
	if req.Price != nil {
		if v, err := strconv.ParseFloat(*req.Price, 64); err != nil || v < 0 {
			errorResponse(c, http.StatusBadRequest, "price must be a non-negative decimal number")
			return
		}
		lic.Price = *req.Price
	}
	if req.Discount != nil {
		if v, err := strconv.ParseFloat(*req.Discount, 64); err != nil || v < 0 {
			errorResponse(c, http.StatusBadRequest, "discount must be a non-negative decimal number")
			return
		}
		lic.Discount = *req.Discount
	}
	if req.TrialDays != nil {
		lic.TrialDays = *req.TrialDays
	}
	if req.RenewalEnabled != nil {
		lic.RenewalEnabled = *req.RenewalEnabled
	}
	if req.Notes != nil {
		lic.Notes = *req.Notes
	}

	if err := s.repo.UpdateLicense(c.Request.Context(), lic); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update license")
		return
	}

	s.eventBus.Publish(events.Event{
		Type: events.EventLicenseUpdated,
		Data: map[string]interface{}{
			"license_id": lic.ID,
			"status":     lic.Status,
		},
	})

	successResponse(c, lic)
}

// handleDeleteLicense deletes a license
func (s *Server) handleDeleteLicense(c *gin.Context) {
	if err := s.repo.DeleteLicense(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete license")
		return
	}
	successResponse(c, gin.H{"deleted": true})
}

// handleActivateLicense validates a pending license: computes the first
// expiry date anchored to today, bills the activation transaction and
// flips the status to active.
func (s *Server) handleActivateLicense(c *gin.Context) {
	ctx := c.Request.Context()

	lic, err := s.repo.GetLicenseByID(ctx, c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		errorResponse(c, http.StatusNotFound, "license not found")
		return
	}
	if lic.Status == string(license.StatusAttiva) {
		errorResponse(c, http.StatusConflict, "license is already active")
		return
	}

	client, err := s.repo.GetClientByID(ctx, lic.ClientID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load client")
		return
	}
	if client == nil {
		errorResponse(c, http.StatusConflict, "license has no valid client")
		return
	}

	amount := license.ParseAmount(lic.Price)
	discount := license.ParseAmount(lic.Discount)
	final := amount - discount
	if final < 0 {
		final = 0
	}

	tx := &database.Transaction{
		LicenseID:   lic.ID,
		ClientID:    client.ID,
		CompanyID:   client.CompanyID,
		Type:        string(license.TransactionAttivazione),
		Amount:      license.FormatAmount(amount),
		Discount:    license.FormatAmount(discount),
		FinalAmount: license.FormatAmount(final),
		Status:      string(license.TransactionInAttesa),
		Notes:       fmt.Sprintf("Attivazione licenza %s", lic.Key),
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create activation transaction")
		return
	}

	now := time.Now()
	expiry := license.ComputeExpiry(lic.LicenseType, lic.TrialDays, now)

	if err := s.repo.ActivateLicense(ctx, lic.ID, expiry, string(license.StatusAttiva)); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to activate license")
		return
	}

	s.eventBus.PublishLicenseActivated(lic.ID, lic.Key, expiry)
	s.eventBus.PublishTransactionCreated(tx.ID, lic.ID, tx.Type, tx.FinalAmount, tx.Status)

	lic, err = s.repo.GetLicenseByID(ctx, lic.ID)
	if err != nil || lic == nil {
		errorResponse(c, http.StatusInternalServerError, "failed to reload license")
		return
	}

	successResponse(c, gin.H{"license": lic, "transaction": tx})
}
