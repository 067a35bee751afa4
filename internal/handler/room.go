package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/model"
	"github.com/controllab/clinic-ops/internal/repository"
)

// RoomHandler manages the treatment room inventory and the occupancy
// status board.
type RoomHandler struct {
	RoomRepo *repository.RoomRepo
	RegRepo  *repository.RegistrationRepo
	Logger   zerolog.Logger
}

func NewRoomHandler(rooms *repository.RoomRepo, regs *repository.RegistrationRepo, logger zerolog.Logger) *RoomHandler {
	if rooms == nil || regs == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{RoomRepo: rooms, RegRepo: regs, Logger: logger}
}

type roomBody struct {
	Name             string `json:"name"`
	Capacity         int    `json:"capacity"`
	Floor            string `json:"floor"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
}

func (b *roomBody) validate() string {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return "name is required"
	}
	if b.Capacity <= 0 {
		return "capacity must be positive"
	}
	if b.PricePerDayCents < 0 {
		return "price_per_day_cents must not be negative"
	}
	return ""
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	room := &model.TreatmentRoom{
		Name:             body.Name,
		Capacity:         body.Capacity,
		Floor:            body.Floor,
		PricePerDayCents: body.PricePerDayCents,
	}
	if err := h.RoomRepo.Create(c.Request().Context(), room); err != nil {
		h.Logger.Error().Err(err).Msg("create room failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, roomView(*room))
}

// Update handles PUT /v1/rooms/:id.  Capacity may be lowered below the
// current occupancy; existing stays are never evicted, the room just
// accepts no new patients until occupancy drops.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	room := &model.TreatmentRoom{
		ID:               id,
		Name:             body.Name,
		Capacity:         body.Capacity,
		Floor:            body.Floor,
		PricePerDayCents: body.PricePerDayCents,
	}
	if err := h.RoomRepo.Update(c.Request().Context(), room); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		h.Logger.Error().Err(err).Uint64("room_id", id).Msg("update room failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, roomView(*room))
}

// Delete handles DELETE /v1/rooms/:id.  Registration history outlives
// the room.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.RoomRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		h.Logger.Error().Err(err).Uint64("room_id", id).Msg("delete room failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.RoomRepo.List(c.Request().Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list rooms failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	views := make([]echo.Map, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, roomView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": views})
}

// Status handles GET /v1/rooms/status, the occupancy board: every room
// with its capacity, current occupants and free beds.
func (h *RoomHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()
	rooms, err := h.RoomRepo.List(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list rooms failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]echo.Map, 0, len(rooms))
	for _, room := range rooms {
		occupants, err := h.RegRepo.ActiveOccupants(ctx, room.ID)
		if err != nil {
			h.Logger.Error().Err(err).Uint64("room_id", room.ID).Msg("list occupants failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		free := room.Capacity - len(occupants)
		if free < 0 {
			free = 0
		}
		out = append(out, echo.Map{
			"room":      roomView(room),
			"occupants": occupants,
			"occupied":  len(occupants),
			"free":      free,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

func roomView(r model.TreatmentRoom) echo.Map {
	return echo.Map{
		"id":                  r.ID,
		"name":                r.Name,
		"floor":               r.Floor,
		"capacity":            r.Capacity,
		"price_per_day_cents": r.PricePerDayCents,
	}
}
