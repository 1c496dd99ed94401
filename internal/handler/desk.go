package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/inventory"
	"github.com/iliyamo/hotel-front-office/internal/model"
	"github.com/iliyamo/hotel-front-office/internal/repository"
)

// DeskHandler covers the shift bookkeeping endpoints: handover tasks,
// no-show records and the per-date spare-room list.
type DeskHandler struct {
	Desk   *repository.DeskRepo
	Blocks inventory.Blocks
}

// NewDeskHandler constructs a DeskHandler.
func NewDeskHandler(desk *repository.DeskRepo, blocks inventory.Blocks) *DeskHandler {
	if desk == nil {
		panic("nil repository passed to NewDeskHandler")
	}
	return &DeskHandler{Desk: desk, Blocks: blocks}
}

// ListTasks handles GET /v1/tasks?date=.
func (h *DeskHandler) ListTasks(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Desk.TasksForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list tasks: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "tasks": out})
}

// AddTask handles POST /v1/tasks.  task_date defaults to today and title is
// required.
func (h *DeskHandler) AddTask(c echo.Context) error {
	var t model.Task
	if err := c.Bind(&t); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if t.TaskDate == "" {
		t.TaskDate = time.Now().UTC().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, t.TaskDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task_date must be YYYY-MM-DD"})
	}
	if err := h.Desk.AddTask(c.Request().Context(), &t); err != nil {
		c.Logger().Errorf("add task: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"task": t})
}

// ListNoShows handles GET /v1/no-shows?date=.
func (h *DeskHandler) ListNoShows(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Desk.NoShowsForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list no-shows: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "no_shows": out})
}

// AddNoShow handles POST /v1/no-shows.  guest_name is required; the
// arrival_date defaults to today.
func (h *DeskHandler) AddNoShow(c echo.Context) error {
	var n model.NoShow
	if err := c.Bind(&n); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	n.GuestName = strings.TrimSpace(n.GuestName)
	if n.GuestName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name is required"})
	}
	if n.ArrivalDate == "" {
		n.ArrivalDate = time.Now().UTC().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, n.ArrivalDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_date must be YYYY-MM-DD"})
	}
	if err := h.Desk.AddNoShow(c.Request().Context(), &n); err != nil {
		c.Logger().Errorf("add no-show: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"no_show": n})
}

// ListSpareRooms handles GET /v1/spare-rooms?date=.
func (h *DeskHandler) ListSpareRooms(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	out, err := h.Desk.SpareRoomsForDate(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("list spare rooms: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "spare_rooms": out})
}

// SetSpareRooms handles PUT /v1/spare-rooms?date=.  The body carries a
// "room_numbers" array that replaces the stored list for the date; every
// number must be a valid inventory room.
func (h *DeskHandler) SetSpareRooms(c echo.Context) error {
	d, err := dateParam(c)
	if err != nil {
		return err
	}
	var body struct {
		RoomNumbers []string `json:"room_numbers"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	normalized := make([]string, 0, len(body.RoomNumbers))
	for _, raw := range body.RoomNumbers {
		room, err := h.Blocks.Normalize(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		normalized = append(normalized, room)
	}
	if err := h.Desk.SetSpareRooms(c.Request().Context(), d, normalized); err != nil {
		c.Logger().Errorf("set spare rooms: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": d, "spare_rooms": normalized})
}
