package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/service/appointment"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// State and window violations are conflicts; only malformed input is a
// bad request.
func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, booking.ErrPastDate):
		return badRequest(c, err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrNotScheduled):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrAlreadyPast):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrTooLate):
		return conflict(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	var body struct {
		PatientID   string `json:"patient_id"`
		DoctorID    string `json:"doctor_id"`
		ScheduledAt string `json:"scheduled_at"`
		Notes       string `json:"notes"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	patientID, err := uuid.Parse(body.PatientID)
	if err != nil {
		return badRequest(c, "invalid patient_id")
	}
	doctorID, err := uuid.Parse(body.DoctorID)
	if err != nil {
		return badRequest(c, "invalid doctor_id")
	}
	scheduledAt, err := time.ParseInLocation("2006-01-02T15:04:05", body.ScheduledAt, time.Local)
	if err != nil {
		// Also accept an explicit offset.
		scheduledAt, err = time.Parse(time.RFC3339, body.ScheduledAt)
		if err != nil {
			return badRequest(c, "invalid scheduled_at, want YYYY-MM-DDTHH:MM:SS")
		}
	}

	appt, err := h.svc.Book(c.Context(), appointment.BookRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: scheduledAt,
		Notes:       body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return created(c, appt)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// PATCH /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	if err := h.svc.Cancel(c.Context(), id); err != nil {
		return mapAppointmentError(c, err)
	}

	return noContent(c)
}

// GET /patients/:id/appointments
func (h *AppointmentHandler) ListForPatient(c fiber.Ctx) error {
	patientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid patient id")
	}

	appts, err := h.svc.ListForPatient(c.Context(), patientID)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appts)
}
