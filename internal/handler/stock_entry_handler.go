package handler

import (
	"net/http"

	"depot-backend/internal/middleware"
	"depot-backend/internal/service"
	"depot-backend/pkg/pagination"
	"depot-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockEntryHandler struct {
	inventoryService service.InventoryService
	auth             *middleware.Auth
}

func NewStockEntryHandler(inventoryService service.InventoryService, auth *middleware.Auth) *StockEntryHandler {
	return &StockEntryHandler{inventoryService: inventoryService, auth: auth}
}

func (h *StockEntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	entries := router.Group("/stock-entries", h.auth.RequireAuth())
	{
		entries.GET("", h.ListStockEntries)
		entries.POST("", h.CreateStockEntry)
		entries.GET("/:id", h.GetStockEntry)
		entries.PATCH("/:id", h.UpdateStockEntry)
		entries.DELETE("/:id", h.DeleteStockEntry)
	}
}

// ListStockEntries handles GET /stock-entries
// @Summary      List stock entries
// @Tags         stock-entries
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /stock-entries [get]
func (h *StockEntryHandler) ListStockEntries(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.inventoryService.ListStockEntries(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve stock entries: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stock_entries": entries,
		"total":         total,
		"page":          params.Page,
		"limit":         params.Limit,
	}))
}

// CreateStockEntry handles POST /stock-entries
// @Summary      Record incoming stock
// @Description  Inserts the entry and increments the product's stock in one transaction
// @Tags         stock-entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStockEntryRequest  true  "Stock Entry Payload"
// @Success      201      {object}  response.Response{data=model.StockEntry}
// @Failure      404      {object}  response.Response
// @Router       /stock-entries [post]
func (h *StockEntryHandler) CreateStockEntry(c *gin.Context) {
	var req service.CreateStockEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.inventoryService.CreateStockEntry(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// GetStockEntry handles GET /stock-entries/:id
// @Summary      Get a stock entry
// @Tags         stock-entries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Stock Entry ID"
// @Success      200  {object}  response.Response{data=model.StockEntry}
// @Failure      404  {object}  response.Response
// @Router       /stock-entries/{id} [get]
func (h *StockEntryHandler) GetStockEntry(c *gin.Context) {
	entry, err := h.inventoryService.GetStockEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// UpdateStockEntry handles PATCH /stock-entries/:id
// @Summary      Correct a stock entry
// @Description  Administrative correction; the product's stock counter is not re-adjusted
// @Tags         stock-entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Stock Entry ID"
// @Param        payload  body      service.UpdateStockEntryRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=model.StockEntry}
// @Failure      404      {object}  response.Response
// @Router       /stock-entries/{id} [patch]
func (h *StockEntryHandler) UpdateStockEntry(c *gin.Context) {
	var req service.UpdateStockEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.inventoryService.UpdateStockEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// DeleteStockEntry handles DELETE /stock-entries/:id
// @Summary      Delete a stock entry
// @Description  The stock increment it previously applied is not reversed
// @Tags         stock-entries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Stock Entry ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /stock-entries/{id} [delete]
func (h *StockEntryHandler) DeleteStockEntry(c *gin.Context) {
	if err := h.inventoryService.DeleteStockEntry(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{"message": "stock entry deleted"}))
}
