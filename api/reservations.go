package api

import (
	"net/http"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/service/folio"
	"github.com/Domenick1991/paintballpark/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service reservation.ReservationUseCase
	folios  folio.FolioUseCase
}

type reservationLineResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CategoryID string   `json:"category_id"`
	ZoneIDs    []string `json:"zone_ids"`
}

type reservationResponse struct {
	ID         string                    `json:"id"`
	Number     string                    `json:"number"`
	GuestID    string                    `json:"guest_id"`
	GuestEmail string                    `json:"guest_email,omitempty"`
	CheckIn    string                    `json:"check_in"`
	CheckOut   string                    `json:"check_out"`
	Adults     int                       `json:"adults"`
	Children   int                       `json:"children"`
	State      string                    `json:"state"`
	Lines      []reservationLineResponse `json:"lines"`
	FolioIDs   []string                  `json:"folio_ids"`
}

func NewReservationHandler(service reservation.ReservationUseCase, folios folio.FolioUseCase) *ReservationHandler {
	return &ReservationHandler{service: service, folios: folios}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/quick", h.quick)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.delete)
	router.POST("/:id/confirm", h.confirm)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/folio", h.materialize)
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	lines := make([]reservationLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, reservationLineResponse{ID: l.ID, Name: l.Name, CategoryID: l.CategoryID, ZoneIDs: l.ZoneIDs})
	}
	folioIDs := r.FolioIDs
	if folioIDs == nil {
		folioIDs = []string{}
	}
	return reservationResponse{
		ID:         r.ID,
		Number:     r.Number,
		GuestID:    r.GuestID,
		GuestEmail: r.GuestEmail,
		CheckIn:    formatTime(r.CheckIn),
		CheckOut:   formatTime(r.CheckOut),
		Adults:     r.Adults,
		Children:   r.Children,
		State:      string(r.State),
		Lines:      lines,
		FolioIDs:   folioIDs,
	}
}

func toReservationResponses(list []domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return out
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req reservation.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(*res))
}

func (h *ReservationHandler) quick(c *gin.Context) {
	var req reservation.QuickReserveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.service.QuickReserve(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(*res))
}

func (h *ReservationHandler) get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(*res))
}

func (h *ReservationHandler) update(c *gin.Context) {
	var req reservation.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.service.UpdateDraft(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(*res))
}

func (h *ReservationHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) confirm(c *gin.Context) {
	res, err := h.service.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(*res))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	res, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(*res))
}

func (h *ReservationHandler) materialize(c *gin.Context) {
	f, err := h.folios.Materialize(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFolioResponse(*f))
}
