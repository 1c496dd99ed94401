package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/engine"
	"github.com/iliyamo/hotel-front-office/internal/model"
	"github.com/iliyamo/hotel-front-office/internal/repository"
)

// FrontDeskHandler covers the reservation side of the desk: ingesting
// reservation batches, searching, listing pending arrivals, assigning rooms
// and checking guests in.  Mutations go through the engine; list views read
// the repositories directly.
type FrontDeskHandler struct {
	Engine       *engine.Engine
	Reservations *repository.ReservationRepo
}

// NewFrontDeskHandler constructs a FrontDeskHandler.  Both dependencies
// must be non-nil.
func NewFrontDeskHandler(eng *engine.Engine, reservations *repository.ReservationRepo) *FrontDeskHandler {
	if eng == nil || reservations == nil {
		panic("nil dependency passed to NewFrontDeskHandler")
	}
	return &FrontDeskHandler{Engine: eng, Reservations: reservations}
}

// reservationInput is one record of an ingestion batch.  Field names match
// the JSON export of the reservation system feeding this service.
type reservationInput struct {
	ArrivalDate   string `json:"arrival_date"`
	DepartDate    string `json:"depart_date"`
	RoomNumber    string `json:"room_number"`
	RoomTypeCode  string `json:"room_type_code"`
	ReservationNo string `json:"reservation_no"`
	GuestName     string `json:"guest_name"`
	MainClient    string `json:"main_client"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	TotalGuests   int    `json:"total_guests"`
	Nights        int    `json:"nights"`
	MealPlan      string `json:"meal_plan"`
	RateCode      string `json:"rate_code"`
	Channel       string `json:"channel"`
	MainRemark    string `json:"main_remark"`
	TotalRemarks  string `json:"total_remarks"`
	ContactName   string `json:"contact_name"`
	ContactPhone  string `json:"contact_phone"`
	ContactEmail  string `json:"contact_email"`
	Status        string `json:"reservation_status"`
}

// ImportReservations handles POST /v1/reservations.  The body is a JSON
// object with a "reservations" array.  Every record must carry valid ISO
// arrival and departure dates with arrival strictly before departure; the
// whole batch is rejected on the first bad record so a partial import never
// happens.  Room numbers are stored as given and validated later by the
// allocation path.
func (h *FrontDeskHandler) ImportReservations(c echo.Context) error {
	var body struct {
		Reservations []reservationInput `json:"reservations"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Reservations) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservations is required"})
	}

	rows := make([]model.Reservation, 0, len(body.Reservations))
	for i, in := range body.Reservations {
		if _, err := time.Parse(model.DateLayout, in.ArrivalDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "record " + strconv.Itoa(i) + ": arrival_date must be YYYY-MM-DD"})
		}
		if _, err := time.Parse(model.DateLayout, in.DepartDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "record " + strconv.Itoa(i) + ": depart_date must be YYYY-MM-DD"})
		}
		if in.ArrivalDate >= in.DepartDate {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "record " + strconv.Itoa(i) + ": arrival_date must be before depart_date"})
		}
		res := model.Reservation{
			ArrivalDate:   in.ArrivalDate,
			DepartDate:    in.DepartDate,
			RoomTypeCode:  in.RoomTypeCode,
			ReservationNo: in.ReservationNo,
			GuestName:     in.GuestName,
			MainClient:    in.MainClient,
			Adults:        in.Adults,
			Children:      in.Children,
			TotalGuests:   in.TotalGuests,
			Nights:        in.Nights,
			MealPlan:      in.MealPlan,
			RateCode:      in.RateCode,
			Channel:       in.Channel,
			MainRemark:    in.MainRemark,
			TotalRemarks:  in.TotalRemarks,
			ContactName:   in.ContactName,
			ContactPhone:  in.ContactPhone,
			ContactEmail:  in.ContactEmail,
			Status:        in.Status,
		}
		if rn := strings.TrimSpace(in.RoomNumber); rn != "" {
			res.RoomNumber = &rn
		}
		rows = append(rows, res)
	}

	n, err := h.Reservations.InsertBulk(c.Request().Context(), rows)
	if err != nil {
		c.Logger().Errorf("import reservations: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"imported": n})
}

// SearchReservations handles GET /v1/reservations/search?q=.  Free-text
// search over guest name, room, reservation number, client and channel.
func (h *FrontDeskHandler) SearchReservations(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
	}
	out, err := h.Reservations.Search(c.Request().Context(), q)
	if err != nil {
		c.Logger().Errorf("search reservations: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Arrivals handles GET /v1/arrivals?date=.  It lists reservations arriving
// on the date that have not been checked in (and have no historical stay),
// i.e. the desk's pending arrivals list.
func (h *FrontDeskHandler) Arrivals(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Reservations.ArrivalsForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list arrivals: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "arrivals": out})
}

// AssignRoom handles POST /v1/reservations/:id/room.  The body carries a
// "room_number"; an empty value clears the assignment.  The engine
// validates the number against the inventory blocks and rejects half-open
// interval conflicts with 409.
func (h *FrontDeskHandler) AssignRoom(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body struct {
		RoomNumber string `json:"room_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Engine.AssignRoom(c.Request().Context(), id, body.RoomNumber)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// CheckIn handles POST /v1/reservations/:id/check-in.  On success the stay
// record is returned with 201 and the room is now OCCUPIED.
func (h *FrontDeskHandler) CheckIn(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	stay, err := h.Engine.CheckIn(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"stay": stay})
}
