package bookings

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the booking lifecycle endpoints. All routes here
// require an authenticated user; middleware is applied by the caller.
func RegisterRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	rg.POST("/showtimes/:showtime_id/bookings", ctrl.CreateBooking)

	bookings := rg.Group("/bookings")
	{
		bookings.GET("", ctrl.ListBookings)
		bookings.GET("/:booking_id", ctrl.GetBooking)
		bookings.GET("/:booking_id/history", ctrl.GetHistory)
		bookings.POST("/:booking_id/extend", ctrl.ExtendTimer)
		bookings.POST("/:booking_id/cancel", ctrl.CancelBooking)
	}
}
