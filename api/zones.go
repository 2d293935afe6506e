package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/service/zones"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ZoneHandler struct {
	service zones.ZoneUseCase
}

type zoneResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CategoryID   string `json:"category_id"`
	MinOccupants int    `json:"min_occupants"`
	MaxOccupants int    `json:"max_occupants"`
	Available    bool   `json:"available"`
	ProductRef   string `json:"product_ref"`
	ListPrice    string `json:"list_price"`
}

type categoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Path     string `json:"path"`
}

type updateCategoryRequest struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parent_id"`
}

type amenityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TypeID    string `json:"type_id"`
	Capacity  int    `json:"capacity"`
	State     string `json:"state"`
	ListPrice string `json:"list_price"`
}

type serviceResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProductRef string `json:"product_ref"`
	ListPrice  string `json:"list_price"`
}

func NewZoneHandler(service zones.ZoneUseCase) *ZoneHandler {
	return &ZoneHandler{service: service}
}

func (h *ZoneHandler) Register(router *gin.RouterGroup) {
	router.GET("/categories", h.listCategories)
	router.POST("/categories", h.createCategory)
	router.GET("/categories/lookup", h.findCategory)
	router.PATCH("/categories/:id", h.updateCategory)
	router.GET("/categories/:id/free-zones", h.candidates)

	router.GET("/zones", h.listZones)
	router.POST("/zones", h.createZone)
	router.GET("/zones/:id", h.getZone)
	router.DELETE("/zones/:id", h.deleteZone)

	router.GET("/amenity-types", h.listAmenityTypes)
	router.POST("/amenity-types", h.createAmenityType)
	router.GET("/amenities", h.listAmenities)
	router.POST("/amenities", h.createAmenity)
	router.PUT("/amenities/:id/state", h.setAmenityState)

	router.GET("/services", h.listServices)
	router.POST("/services", h.createService)
}

func price(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toZoneResponse(z domain.Zone) zoneResponse {
	return zoneResponse{
		ID:           z.ID,
		Name:         z.Name,
		CategoryID:   z.CategoryID,
		MinOccupants: z.MinOccupants,
		MaxOccupants: z.MaxOccupants,
		Available:    z.Available,
		ProductRef:   z.Catalog.ProductRef,
		ListPrice:    price(z.Catalog.ListPrice),
	}
}

func toZoneResponses(list []domain.Zone) []zoneResponse {
	out := make([]zoneResponse, 0, len(list))
	for _, z := range list {
		out = append(out, toZoneResponse(z))
	}
	return out
}

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, ParentID: c.ParentID, Path: c.Path}
}

func (h *ZoneHandler) listCategories(c *gin.Context) {
	list, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, cat := range list {
		out = append(out, toCategoryResponse(cat))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ZoneHandler) createCategory(c *gin.Context) {
	var req zones.CreateCategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(cat))
}

func (h *ZoneHandler) findCategory(c *gin.Context) {
	cat, err := h.service.FindCategoryByPath(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(cat))
}

func (h *ZoneHandler) updateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	var (
		cat domain.Category
		err error
	)
	if req.Name != nil {
		if cat, err = h.service.RenameCategory(c.Request.Context(), id, *req.Name); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.ParentID != nil {
		if cat, err = h.service.MoveCategory(c.Request.Context(), id, *req.ParentID); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Name == nil && req.ParentID == nil {
		badRequest(c, domain.NewValidationError("nothing to update"))
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(cat))
}

func (h *ZoneHandler) candidates(c *gin.Context) {
	from, to, err := queryRange(c, "check_in", "check_out")
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := h.service.CandidateZones(c.Request.Context(), c.Param("id"), interval.Interval{Start: from, End: to})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toZoneResponses(list))
}

func (h *ZoneHandler) listZones(c *gin.Context) {
	list, err := h.service.ListZones(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toZoneResponses(list))
}

func (h *ZoneHandler) createZone(c *gin.Context) {
	var req zones.CreateZoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	zone, err := h.service.CreateZone(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toZoneResponse(*zone))
}

func (h *ZoneHandler) getZone(c *gin.Context) {
	zone, err := h.service.GetZone(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toZoneResponse(*zone))
}

func (h *ZoneHandler) deleteZone(c *gin.Context) {
	if err := h.service.DeleteZone(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ZoneHandler) listAmenityTypes(c *gin.Context) {
	list, err := h.service.ListAmenityTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, t := range list {
		out = append(out, gin.H{"id": t.ID, "name": t.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ZoneHandler) createAmenityType(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.service.CreateAmenityType(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": t.ID, "name": t.Name})
}

func toAmenityResponse(a domain.Amenity) amenityResponse {
	return amenityResponse{
		ID:        a.ID,
		Name:      a.Name,
		TypeID:    a.TypeID,
		Capacity:  a.Capacity,
		State:     string(a.State),
		ListPrice: price(a.Catalog.ListPrice),
	}
}

func (h *ZoneHandler) listAmenities(c *gin.Context) {
	list, err := h.service.ListAmenities(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]amenityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAmenityResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ZoneHandler) createAmenity(c *gin.Context) {
	var req zones.CreateAmenityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.service.CreateAmenity(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAmenityResponse(*a))
}

func (h *ZoneHandler) setAmenityState(c *gin.Context) {
	var req struct {
		State string `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.SetAmenityState(c.Request.Context(), c.Param("id"), domain.AmenityState(req.State)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toServiceResponse(s domain.ServiceOffering) serviceResponse {
	return serviceResponse{ID: s.ID, Name: s.Name, ProductRef: s.Catalog.ProductRef, ListPrice: price(s.Catalog.ListPrice)}
}

func (h *ZoneHandler) listServices(c *gin.Context) {
	list, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]serviceResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toServiceResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ZoneHandler) createService(c *gin.Context) {
	var req zones.CreateServiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.service.CreateService(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toServiceResponse(*s))
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
