package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-front-office/internal/database"
	"github.com/iliyamo/hotel-front-office/internal/engine"
	"github.com/iliyamo/hotel-front-office/internal/handler"
	"github.com/iliyamo/hotel-front-office/internal/inventory"
	"github.com/iliyamo/hotel-front-office/internal/repository"
	"github.com/iliyamo/hotel-front-office/internal/router"
)

// newTestServer builds the full HTTP surface over an in-memory sqlite
// database, mirroring the wiring in cmd/server.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db, "sqlite"))

	reservations := repository.NewReservationRepo(db)
	stays := repository.NewStayRepo(db)
	rooms := repository.NewRoomRepo(db)
	desk := repository.NewDeskRepo(db)
	blocks := inventory.Default()
	require.NoError(t, rooms.Seed(ctx, blocks.Numbers()))

	eng := engine.New(db, reservations, stays, rooms, blocks, nil)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterFrontDesk(e, handler.NewFrontDeskHandler(eng, reservations))
	router.RegisterStays(e, handler.NewStayHandler(eng, stays))
	router.RegisterRooms(e, handler.NewRoomHandler(eng, rooms))
	router.RegisterDesk(e, handler.NewDeskHandler(desk, blocks))
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestImportAssignCheckInFlow(t *testing.T) {
	e := newTestServer(t)

	// Two reservations arrive via ingestion, one with a pre-assigned room.
	rec := doJSON(t, e, http.MethodPost, "/v1/reservations", `{
		"reservations": [
			{"arrival_date": "2099-06-01", "depart_date": "2099-06-05",
			 "guest_name": "Guest A", "reservation_no": "4711", "room_number": "105"},
			{"arrival_date": "2099-06-03", "depart_date": "2099-06-07",
			 "guest_name": "Guest B", "reservation_no": "4712"}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"imported": 2}`, rec.Body.String())

	// Both show up as pending arrivals on their dates.
	rec = doJSON(t, e, http.MethodGet, "/v1/arrivals?date=2099-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var arrivals struct {
		Arrivals []struct {
			ID        int64  `json:"id"`
			GuestName string `json:"guest_name"`
		} `json:"arrivals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &arrivals))
	require.Len(t, arrivals.Arrivals, 1)
	idA := arrivals.Arrivals[0].ID

	// Check guest A in.
	rec = doJSON(t, e, http.MethodPost, "/v1/reservations/"+itoa64(idA)+"/check-in", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Guest B cannot take room 105 over the overlapping window: 409 with
	// the blocking guest named.
	rec = doJSON(t, e, http.MethodGet, "/v1/reservations/search?q=4712", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var search struct {
		Reservations []struct {
			ID int64 `json:"id"`
		} `json:"reservations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &search))
	require.Len(t, search.Reservations, 1)
	idB := search.Reservations[0].ID

	rec = doJSON(t, e, http.MethodPost, "/v1/reservations/"+itoa64(idB)+"/room", `{"room_number": "105"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "room 105 is occupied by Guest A (res 4711) until 2099-06-05")

	// A different room is fine.
	rec = doJSON(t, e, http.MethodPost, "/v1/reservations/"+itoa64(idB)+"/room", `{"room_number": "300"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/rooms/validate?number=0105", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"room_number": "105"}`, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/v1/rooms/validate?number=105.0", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "decimals")

	rec = doJSON(t, e, http.MethodGet, "/v1/rooms/validate?number=200", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "not in valid ranges")
}

func TestImportRejectsBadDates(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/reservations", `{
		"reservations": [
			{"arrival_date": "2099-06-05", "depart_date": "2099-06-01", "guest_name": "X"}
		]
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "arrival_date must be before depart_date")
}

func TestBadParamsGetErrorBody(t *testing.T) {
	e := newTestServer(t)

	// Malformed dates and ids come back with the same {"error": ...} body
	// every other failure uses.
	rec := doJSON(t, e, http.MethodGet, "/v1/arrivals?date=june-1st", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error": "date must be YYYY-MM-DD"}`, rec.Body.String())

	rec = doJSON(t, e, http.MethodPost, "/v1/reservations/abc/check-in", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error": "invalid id"}`, rec.Body.String())
}

func TestSpareRoomsEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodPut, "/v1/spare-rooms?date=2099-06-01",
		`{"room_numbers": ["0105", "300"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/spare-rooms?date=2099-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"105"`)

	// Invalid numbers are rejected before anything is stored.
	rec = doJSON(t, e, http.MethodPut, "/v1/spare-rooms?date=2099-06-02",
		`{"room_numbers": ["200"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa64(id int64) string { return strconv.FormatInt(id, 10) }
