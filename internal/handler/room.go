package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/engine"
	"github.com/iliyamo/hotel-front-office/internal/repository"
)

// RoomHandler exposes the room inventory: the status board, the manual
// resync and the number validator the desk UI calls while typing.
type RoomHandler struct {
	Engine *engine.Engine
	Rooms  *repository.RoomRepo
}

// NewRoomHandler constructs a RoomHandler.  Both dependencies must be
// non-nil.
func NewRoomHandler(eng *engine.Engine, rooms *repository.RoomRepo) *RoomHandler {
	if eng == nil || rooms == nil {
		panic("nil dependency passed to NewRoomHandler")
	}
	return &RoomHandler{Engine: eng, Rooms: rooms}
}

// List handles GET /v1/rooms: every room with its derived status, in
// numeric order.
func (h *RoomHandler) List(c echo.Context) error {
	out, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list rooms: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// Resync handles POST /v1/rooms/resync.  Every room status is recomputed
// from the CHECKED_IN stays; the repair path after manual data fixes.
func (h *RoomHandler) Resync(c echo.Context) error {
	occupied, err := h.Engine.Resync(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"occupied": occupied})
}

// Validate handles GET /v1/rooms/validate?number=.  It returns the
// canonical form of a valid number, or 400 with the desk-facing reason.
func (h *RoomHandler) Validate(c echo.Context) error {
	room, err := h.Engine.ValidateRoomNumber(c.QueryParam("number"))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_number": room})
}
