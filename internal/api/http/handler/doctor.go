package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/service/doctor"
)

type DoctorHandler struct {
	svc doctor.Service
}

func NewDoctorHandler(svc doctor.Service) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

func mapDoctorError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, doctor.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, doctor.ErrEmailTaken):
		return conflict(c, err.Error())
	case errors.Is(err, doctor.ErrInvalid):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /doctors
func (h *DoctorHandler) List(c fiber.Ctx) error {
	docs, err := h.svc.List(c.Context())
	if err != nil {
		return mapDoctorError(c, err)
	}
	return ok(c, docs)
}

// GET /doctors/:id
func (h *DoctorHandler) GetByID(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid doctor id")
	}

	doc, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapDoctorError(c, err)
	}
	return ok(c, doc)
}

// POST /doctors
func (h *DoctorHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name           string `json:"name"`
		Specialization string `json:"specialization"`
		Email          string `json:"email"`
		Phone          string `json:"phone"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	doc, err := h.svc.Create(c.Context(), doctor.CreateRequest{
		Name:           body.Name,
		Specialization: body.Specialization,
		Email:          body.Email,
		Phone:          body.Phone,
	})
	if err != nil {
		return mapDoctorError(c, err)
	}
	return created(c, doc)
}
