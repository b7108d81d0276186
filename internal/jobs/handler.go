package jobs

import (
	"net/http"

	"hotelbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes the sweeps to external schedulers.
type Handler struct {
	sweeper *Sweeper
}

func NewHandler(sweeper *Sweeper) *Handler {
	return &Handler{sweeper: sweeper}
}

func (h *Handler) RegisterRoutes(internal *gin.RouterGroup) {
	internal.POST("/sweeps/no-shows", h.SweepNoShows)
	internal.POST("/sweeps/stale-payments", h.SweepStalePayments)
	internal.POST("/sweeps/run", h.RunAll)
}

func (h *Handler) SweepNoShows(c *gin.Context) {
	n, err := h.sweeper.SweepNoShows(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"no_shows": n})
}

func (h *Handler) SweepStalePayments(c *gin.Context) {
	n, err := h.sweeper.SweepStalePayments(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stale_payments": n})
}

func (h *Handler) RunAll(c *gin.Context) {
	noShows, stale, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"no_shows": noShows, "stale_payments": stale})
}
