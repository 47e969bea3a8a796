package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"license-backoffice/internal/database"
)

type productRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required,min=2"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
}

// handleListProducts returns the product catalog
func (s *Server) handleListProducts(c *gin.Context) {
	products, err := s.repo.ListProducts(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list products")
		return
	}

	successResponse(c, products)
}

// handleCreateProduct creates a new product
func (s *Server) handleCreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "code, name and price are required")
		return
	}
	if v, err := strconv.ParseFloat(req.Price, 64); err != nil || v < 0 {
		errorResponse(c, http.StatusBadRequest, "price must be a non-negative decimal number")
		return
	}

	product := &database.Product{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}

	if err := s.repo.CreateProduct(c.Request.Context(), product); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": product})
}

// handleGetProduct returns a single product
func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := s.repo.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product == nil {
		errorResponse(c, http.StatusNotFound, "product not found")
		return
	}

	successResponse(c, product)
}

// handleUpdateProduct updates a product
func (s *Server) handleUpdateProduct(c *gin.Context) {
	product, err := s.repo.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product == nil {
		errorResponse(c, http.StatusNotFound, "product not found")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "code, name and price are required")
		return
	}
	if v, err := strconv.ParseFloat(req.Price, 64); err != nil || v < 0 {
		errorResponse(c, http.StatusBadRequest, "price must be a non-negative decimal number")
		return
	}

	product.Code = req.Code
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price

	if err := s.repo.UpdateProduct(c.Request.Context(), product); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update product")
		return
	}

	successResponse(c, product)
}

// handleDeleteProduct deletes a product
func (s *Server) handleDeleteProduct(c *gin.Context) {
	if err := s.repo.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete product")
		return
	}
	successResponse(c, gin.H{"deleted": true})
}
