package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/clinicbook/backend/internal/api/http/handler"
)

func (r *Router) registerAppointmentRoutes(api fiber.Router, ah *handler.AppointmentHandler) {
	appts := api.Group("/appointments")

	appts.Post("/", ah.Book)

	a := appts.Group("/:id")
	a.Get("/", ah.GetByID)
	a.Patch("/cancel", ah.Cancel)

	api.Get("/patients/:id/appointments", ah.ListForPatient)
}
