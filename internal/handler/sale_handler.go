package handler

import (
	"net/http"

	"depot-backend/internal/middleware"
	"depot-backend/internal/service"
	"depot-backend/pkg/pagination"
	"depot-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	inventoryService service.InventoryService
	auth             *middleware.Auth
}

func NewSaleHandler(inventoryService service.InventoryService, auth *middleware.Auth) *SaleHandler {
	return &SaleHandler{inventoryService: inventoryService, auth: auth}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/sales", h.auth.RequireAuth())
	{
		sales.GET("", h.ListSales)
		sales.POST("", h.CreateSale)
		sales.GET("/:id", h.GetSale)
		sales.PATCH("/:id", h.UpdateSale)
		sales.DELETE("/:id", h.DeleteSale)
		sales.POST("/:id/validate", h.ConfirmSale)
	}
}

// ListSales handles GET /sales
// @Summary      List sales, newest first
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	params := pagination.Parse(c)

	sales, total, err := h.inventoryService.ListSales(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve sales: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"sales": sales,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CreateSale handles POST /sales
// @Summary      Record a sale
// @Description  Total price is computed as quantity times the product's current sale price
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSaleRequest  true  "Sale Payload"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      404      {object}  response.Response
// @Router       /sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.inventoryService.CreateSale(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// GetSale handles GET /sales/:id
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      404  {object}  response.Response
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.inventoryService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// UpdateSale handles PATCH /sales/:id
// @Summary      Update a sale
// @Description  Recomputes the total when quantity or product changes; omitted fields are untouched
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Sale ID"
// @Param        payload  body      service.UpdateSaleRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=model.Sale}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /sales/{id} [patch]
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	var req service.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.inventoryService.UpdateSale(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// ConfirmSale handles POST /sales/:id/validate
// @Summary      Confirm a sale's payment
// @Description  Flips payment status from unpaid to paid exactly once
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /sales/{id}/validate [post]
func (h *SaleHandler) ConfirmSale(c *gin.Context) {
	sale, err := h.inventoryService.ConfirmSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// DeleteSale handles DELETE /sales/:id
// @Summary      Delete a sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /sales/{id} [delete]
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	if err := h.inventoryService.DeleteSale(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{"message": "sale deleted"}))
}
