package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/service/availability"
)

type AvailabilityHandler struct {
	svc availability.Service
}

func NewAvailabilityHandler(svc availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// GET /doctors/:id/availability?date=YYYY-MM-DD
func (h *AvailabilityHandler) DaySlots(c fiber.Ctx) error {
	doctorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid doctor id")
	}

	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date query parameter is required")
	}

	grid, err := h.svc.DaySlots(c.Context(), doctorID, date)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidDate):
			return badRequest(c, err.Error())
		case errors.Is(err, availability.ErrDoctorNotFound):
			return notFound(c, err.Error())
		}
		return internalError(c)
	}

	return ok(c, grid)
}
