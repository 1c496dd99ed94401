package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/engine"
	"github.com/iliyamo/hotel-front-office/internal/repository"
)

// StayHandler covers the occupancy side of the desk: checkouts and their
// reversals, the date-scoped occupancy views and the parking register.
type StayHandler struct {
	Engine *engine.Engine
	Stays  *repository.StayRepo
}

// NewStayHandler constructs a StayHandler.  Both dependencies must be
// non-nil.
func NewStayHandler(eng *engine.Engine, stays *repository.StayRepo) *StayHandler {
	if eng == nil || stays == nil {
		panic("nil dependency passed to NewStayHandler")
	}
	return &StayHandler{Engine: eng, Stays: stays}
}

// CheckOut handles POST /v1/check-out/:id.  The id is resolved as a stay id
// first; when no stay exists it falls back to a reservation id so the desk
// can check out a guest whose check-in was never recorded.  In the fallback
// case a terminal CHECKED_OUT stay is synthesized.
func (h *StayHandler) CheckOut(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	stay, err := h.Engine.CheckOut(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stay": stay})
}

// CancelCheckIn handles POST /v1/stays/:id/cancel-check-in.  The stay row
// is removed and the reservation returns to the arrivals list.
func (h *StayHandler) CancelCheckIn(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Engine.CancelCheckIn(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": id})
}

// CancelCheckOut handles POST /v1/stays/:id/cancel-check-out.  The stay
// returns to CHECKED_IN and the room to OCCUPIED, unless someone else has
// taken the room since the checkout.
func (h *StayHandler) CancelCheckOut(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	stay, err := h.Engine.CancelCheckOut(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stay": stay})
}

// InHouse handles GET /v1/in-house?date=.  A guest counts as in house from
// checkin_planned up to but excluding checkout_planned.
func (h *StayHandler) InHouse(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Stays.InHouseForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list in-house: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "in_house": out})
}

// Departures handles GET /v1/departures?date=: the stays due to leave on
// the date that are still checked in.
func (h *StayHandler) Departures(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Stays.DeparturesForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list departures: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "departures": out})
}

// CheckedOut handles GET /v1/checked-out?date=: the stays whose actual
// checkout happened on the date.
func (h *StayHandler) CheckedOut(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Stays.CheckedOutForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list checked-out: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "checked_out": out})
}

// SetParking handles POST /v1/stays/:id/parking.  Blank fields clear the
// stored values.
func (h *StayHandler) SetParking(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body struct {
		Space string `json:"parking_space"`
		Plate string `json:"parking_plate"`
		Notes string `json:"parking_notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Engine.SetParking(c.Request().Context(), id, body.Space, body.Plate, body.Notes); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stay_id": id})
}

// Parking handles GET /v1/parking?date=: the stays covering the date that
// have parking details recorded.
func (h *StayHandler) Parking(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Stays.ParkingForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list parking: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "parking": out})
}
