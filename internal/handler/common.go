// Package handler contains the HTTP handlers of the front-office API.  The
// handlers validate and decode requests, delegate to the lifecycle engine
// for mutations and to the repositories for list views, and translate
// engine error kinds into HTTP status codes.  Business failures surface as
// {"error": "..."} JSON bodies with the engine's desk-facing message.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/engine"
	"github.com/iliyamo/hotel-front-office/internal/model"
)

// engineError maps an engine failure onto a JSON error response.  Storage
// failures deliberately hide the driver error behind a generic message.
func engineError(c echo.Context, err error) error {
	switch engine.KindOf(err) {
	case engine.KindInvalidRoomNumber, engine.KindPreconditionFailed:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case engine.KindRoomConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case engine.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("storage failure: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// errSent is returned by the param helpers after they have written the 400
// response themselves.  Echo skips committed responses in its error handler,
// so callers return it unchanged.
var errSent = errors.New("error response already sent")

// dateParam reads the ?date= query parameter.  Missing means today (UTC);
// anything that is not a valid ISO date is reported back to the caller.
func dateParam(c echo.Context) (string, error) {
	d := c.QueryParam("date")
	if d == "" {
		return time.Now().UTC().Format(model.DateLayout), nil
	}
	if _, err := time.Parse(model.DateLayout, d); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		return "", errSent
	}
	return d, nil
}

// idParam parses a positive numeric :id path parameter.
func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		return 0, errSent
	}
	return id, nil
}
