// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/handler"
)

// RegisterRoutes registers the health check on the provided Echo instance.
// Load balancers and monitoring systems use it to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterFrontDesk registers the reservation-side endpoints: ingestion,
// search, arrivals, room assignment and check-in.
func RegisterFrontDesk(e *echo.Echo, h *handler.FrontDeskHandler) {
	g := e.Group("/v1")
	g.POST("/reservations", h.ImportReservations)
	g.GET("/reservations/search", h.SearchReservations)
	g.GET("/arrivals", h.Arrivals)
	g.POST("/reservations/:id/room", h.AssignRoom)
	g.POST("/reservations/:id/check-in", h.CheckIn)
}

// RegisterStays registers the occupancy endpoints: checkout with its
// reservation-id fallback, the two reversal operations, the date-scoped
// views and the parking register.
func RegisterStays(e *echo.Echo, h *handler.StayHandler) {
	g := e.Group("/v1")
	g.POST("/check-out/:id", h.CheckOut)
	g.POST("/stays/:id/cancel-check-in", h.CancelCheckIn)
	g.POST("/stays/:id/cancel-check-out", h.CancelCheckOut)
	g.GET("/in-house", h.InHouse)
	g.GET("/departures", h.Departures)
	g.GET("/checked-out", h.CheckedOut)
	g.POST("/stays/:id/parking", h.SetParking)
	g.GET("/parking", h.Parking)
}

// RegisterRooms registers the inventory endpoints: the status board, the
// manual resync and the room-number validator.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler) {
	g := e.Group("/v1")
	g.GET("/rooms", h.List)
	g.POST("/rooms/resync", h.Resync)
	g.GET("/rooms/validate", h.Validate)
}

// RegisterDesk registers the shift bookkeeping endpoints: tasks, no-shows
// and the spare-room list.
func RegisterDesk(e *echo.Echo, h *handler.DeskHandler) {
	g := e.Group("/v1")
	g.GET("/tasks", h.ListTasks)
	g.POST("/tasks", h.AddTask)
	g.GET("/no-shows", h.ListNoShows)
	g.POST("/no-shows", h.AddNoShow)
	g.GET("/spare-rooms", h.ListSpareRooms)
	g.PUT("/spare-rooms", h.SetSpareRooms)
}
