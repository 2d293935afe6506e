package api

import (
	"net/http"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/service/folio"
	"github.com/gin-gonic/gin"
)

type FolioHandler struct {
	service folio.FolioUseCase
}

type folioLineResponse struct {
	ID         string `json:"id"`
	ZoneID     string `json:"zone_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Amount     string `json:"amount"`
	IsReserved bool   `json:"is_reserved"`
}

type serviceLineResponse struct {
	ID        string `json:"id"`
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

type folioResponse struct {
	ID            string                `json:"id"`
	Number        string                `json:"number"`
	GuestID       string                `json:"guest_id"`
	ReservationID string                `json:"reservation_id,omitempty"`
	CheckIn       string                `json:"check_in"`
	CheckOut      string                `json:"check_out"`
	Duration      int                   `json:"duration"`
	Lines         []folioLineResponse   `json:"lines"`
	ServiceLines  []serviceLineResponse `json:"service_lines"`
	Total         string                `json:"total"`
	InvoiceRef    string                `json:"invoice_ref,omitempty"`
}

type addServiceRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

func NewFolioHandler(service folio.FolioUseCase) *FolioHandler {
	return &FolioHandler{service: service}
}

func (h *FolioHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id/lines/:line_id", h.removeLine)
	router.POST("/:id/services", h.addService)
	router.POST("/:id/invoice", h.invoice)
}

func toFolioResponse(f domain.Folio) folioResponse {
	resp := folioResponse{
		ID:            f.ID,
		Number:        f.Number,
		GuestID:       f.GuestID,
		ReservationID: f.ReservationID,
		CheckIn:       formatTime(f.CheckIn),
		CheckOut:      formatTime(f.CheckOut),
		Duration:      f.Duration,
		Lines:         make([]folioLineResponse, 0, len(f.Lines)),
		ServiceLines:  make([]serviceLineResponse, 0, len(f.ServiceLines)),
		Total:         price(f.Total()),
		InvoiceRef:    f.Order.InvoiceRef,
	}
	for _, l := range f.Lines {
		resp.Lines = append(resp.Lines, folioLineResponse{
			ID: l.ID, ZoneID: l.ZoneID, Quantity: l.Quantity,
			UnitPrice: price(l.UnitPrice), Amount: price(l.Amount()), IsReserved: l.IsReserved,
		})
	}
	for _, l := range f.ServiceLines {
		resp.ServiceLines = append(resp.ServiceLines, serviceLineResponse{
			ID: l.ID, ServiceID: l.ServiceID, Name: l.Name, Quantity: l.Quantity,
			UnitPrice: price(l.UnitPrice), Amount: price(l.Amount()),
		})
	}
	return resp
}

func (h *FolioHandler) create(c *gin.Context) {
	var req folio.DirectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.service.CreateDirect(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFolioResponse(*f))
}

func (h *FolioHandler) get(c *gin.Context) {
	f, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolioResponse(*f))
}

func (h *FolioHandler) removeLine(c *gin.Context) {
	if err := h.service.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("line_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FolioHandler) addService(c *gin.Context) {
	var req addServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.service.AddServiceLine(c.Request.Context(), c.Param("id"), req.ServiceID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolioResponse(*f))
}

func (h *FolioHandler) invoice(c *gin.Context) {
	f, err := h.service.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolioResponse(*f))
}
