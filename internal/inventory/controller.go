package inventory

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cinebook/internal/catalog"
	"cinebook/internal/shared/utils/response"
)

type Controller struct {
	service Service
	catalog catalog.Repository
}

func NewController(service Service, catalogRepo catalog.Repository) *Controller {
	return &Controller{service: service, catalog: catalogRepo}
}

// GetSeatAvailability returns every seat of a showtime's screen with
// its effective availability.
func (ctrl *Controller) GetSeatAvailability(c *gin.Context) {
	showtimeID, err := uuid.Parse(c.Param("showtime_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid showtime id", nil, err.Error())
		return
	}

	showtime, err := ctrl.catalog.GetShowtimeByID(c.Request.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, catalog.ErrShowtimeNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Something went wrong", nil, err.Error())
		return
	}

	seats, err := ctrl.service.AvailabilityForShowtime(c.Request.Context(), showtime)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Something went wrong", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Seat availability fetched", gin.H{
		"showtime_id": showtime.ID,
		"movie_title": showtime.MovieTitle,
		"starts_at":   showtime.StartsAt,
		"seats":       seats,
	}, nil)
}

// RegisterRoutes wires the public availability endpoint
func RegisterRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	rg.GET("/showtimes/:showtime_id/seats", ctrl.GetSeatAvailability)
}
