package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/service/report"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service report.ReportUseCase
}

func NewReportHandler(service report.ReportUseCase) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Register(router *gin.RouterGroup) {
	router.GET("/zone-summary", h.zoneSummary)
	router.GET("/usage", h.usage)
	router.GET("/check-ins", h.checkIns)
	router.GET("/check-outs", h.checkOuts)
	router.GET("/stays", h.stays)
}

func (h *ReportHandler) zoneSummary(c *gin.Context) {
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.service.ZoneSummary(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(summary))
	for _, z := range summary {
		days := make([]gin.H, 0, len(z.Days))
		for _, d := range z.Days {
			days = append(days, gin.H{"date": d.Date.Format(dateLayout), "status": d.Status})
		}
		out = append(out, gin.H{"zone_id": z.ZoneID, "zone_name": z.ZoneName, "days": days})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) usage(c *gin.Context) {
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		writeError(c, err)
		return
	}
	usage, err := h.service.Usage(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *ReportHandler) checkIns(c *gin.Context) {
	h.reservations(c, h.service.CheckIns)
}

func (h *ReportHandler) checkOuts(c *gin.Context) {
	h.reservations(c, h.service.CheckOuts)
}

func (h *ReportHandler) stays(c *gin.Context) {
	h.reservations(c, h.service.Stays)
}

func (h *ReportHandler) reservations(c *gin.Context, query func(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)) {
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := query(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponses(list))
}
