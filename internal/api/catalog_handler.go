package api

import (
	"errors"
	"net/http"
	"time"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler serves the teacher's reference lists: equipment, series,
// repetitions and training types.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

type CatalogItemRequest struct {
	Name string `json:"name" binding:"required"`
}

type CatalogItemResponse struct {
	ID        string             `json:"id"`
	Kind      domain.CatalogKind `json:"kind"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// MapCatalogItemToResponse converts a domain CatalogItem to its DTO.
func MapCatalogItemToResponse(item *domain.CatalogItem) CatalogItemResponse {
	if item == nil {
		return CatalogItemResponse{}
	}
	return CatalogItemResponse{
		ID:        item.ID.Hex(),
		Kind:      item.Kind,
		Name:      item.Name,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// kindFromPath resolves the :kind path parameter. The URL uses plural
// segment names; the domain uses singular kind values.
func kindFromPath(c *gin.Context) (domain.CatalogKind, bool) {
	switch c.Param("kind") {
	case "equipment":
		return domain.KindEquipment, true
	case "series":
		return domain.KindSeries, true
	case "repetitions":
		return domain.KindRepetition, true
	case "training-types":
		return domain.KindTrainingType, true
	default:
		return "", false
	}
}

// --- Handler Methods ---

// CreateItem godoc
// @Summary Create a catalog item
// @Description Adds a named entry to one of the teacher's reference lists.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "List kind" Enums(equipment, series, repetitions, training-types)
// @Param item body CatalogItemRequest true "Item name"
// @Success 201 {object} CatalogItemResponse "Item created"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/catalog/{kind} [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	kind, ok := kindFromPath(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Unknown catalog kind in URL.")
		return
	}

	var req CatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), teacherID, kind, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrInvalidCatalogKind) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create catalog item.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapCatalogItemToResponse(item))
}

// GetItems godoc
// @Summary List catalog items of one kind
// @Description Retrieves one of the teacher's reference lists.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param kind path string true "List kind" Enums(equipment, series, repetitions, training-types)
// @Success 200 {array} CatalogItemResponse "Items"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/catalog/{kind} [get]
func (h *CatalogHandler) GetItems(c *gin.Context) {
	kind, ok := kindFromPath(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Unknown catalog kind in URL.")
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	items, err := h.catalogService.GetItems(c.Request.Context(), teacherID, kind)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve catalog items.")
		return
	}

	resp := make([]CatalogItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, MapCatalogItemToResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary Rename a catalog item
// @Description Updates the name of a catalog item owned by the teacher.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "List kind" Enums(equipment, series, repetitions, training-types)
// @Param itemId path string true "Item ID"
// @Param item body CatalogItemRequest true "New name"
// @Success 200 {object} CatalogItemResponse "Item updated"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (owned by another teacher)"
// @Failure 404 {object} gin.H "Item not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/catalog/{kind}/{itemId} [put]
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	var req CatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format in URL.")
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	item, err := h.catalogService.UpdateItem(c.Request.Context(), teacherID, itemID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrCatalogItemNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrCatalogAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update catalog item.")
		}
		return
	}

	c.JSON(http.StatusOK, MapCatalogItemToResponse(item))
}

// DeleteItem godoc
// @Summary Delete a catalog item
// @Description Removes a catalog item, unless a workout still references it.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param kind path string true "List kind" Enums(equipment, series, repetitions, training-types)
// @Param itemId path string true "Item ID"
// @Success 204 "Item deleted"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Item not found"
// @Failure 409 {object} gin.H "Conflict (item referenced by a workout)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/catalog/{kind}/{itemId} [delete]
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format in URL.")
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	err = h.catalogService.DeleteItem(c.Request.Context(), teacherID, itemID)
	if err != nil {
		if errors.Is(err, service.ErrCatalogItemNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrCatalogItemInUse) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete catalog item.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// userObjectIDFromContext resolves the authenticated user's ObjectID. On
// failure it writes the error response and returns ok=false.
func userObjectIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}
