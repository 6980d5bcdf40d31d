package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

// PantryHandler serves the caller's inventory
type PantryHandler struct {
	pantryService service.IPantryService
}

func NewPantryHandler(pantryService service.IPantryService) *PantryHandler {
	return &PantryHandler{pantryService: pantryService}
}

func (h *PantryHandler) RegisterRoutes(router *gin.RouterGroup) {
	pantry := router.Group("/pantry")
	{
		pantry.GET("", h.ListItems)
		pantry.POST("", h.CreateItem)
		pantry.GET("/stats", h.Stats)
		pantry.PUT("/:id", h.UpdateItem)
		pantry.DELETE("/:id", h.DeleteItem)
	}
}

func (h *PantryHandler) ListItems(c *gin.Context) {
	items, err := h.pantryService.ListItems(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := types.PantryListResponse{Items: make([]types.PantryItemResponse, len(items))}
	for i := range items {
		resp.Items[i] = pantryItemResponse(&items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PantryHandler) CreateItem(c *gin.Context) {
	var req types.PantryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.pantryService.CreateItem(c.Request.Context(), middleware.UserID(c), req.Name, req.Category, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pantryItemResponse(item))
}

func (h *PantryHandler) UpdateItem(c *gin.Context) {
	itemID, ok := pathID(c)
	if !ok {
		respondError(c, apperr.ErrNotFound)
		return
	}

	var req types.PantryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.pantryService.UpdateItem(c.Request.Context(), middleware.UserID(c), itemID, req.Name, req.Category, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pantryItemResponse(item))
}

func (h *PantryHandler) DeleteItem(c *gin.Context) {
	itemID, ok := pathID(c)
	if !ok {
		respondError(c, apperr.ErrNotFound)
		return
	}

	if err := h.pantryService.DeleteItem(c.Request.Context(), middleware.UserID(c), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats reports the item count overall and per category
func (h *PantryHandler) Stats(c *gin.Context) {
	total, byCategory, err := h.pantryService.CountByCategory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.PantryStatsResponse{Total: total, ByCategory: byCategory})
}

func pantryItemResponse(item *models.PantryItem) types.PantryItemResponse {
	return types.PantryItemResponse{
		ID:       item.ID,
		Name:     item.Name,
		Category: item.Category,
		Notes:    item.Notes,
		AddedAt:  item.AddedAt,
	}
}
