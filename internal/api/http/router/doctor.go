package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/clinicbook/backend/internal/api/http/handler"
)

func (r *Router) registerDoctorRoutes(api fiber.Router, dh *handler.DoctorHandler, avh *handler.AvailabilityHandler) {
	doctors := api.Group("/doctors")

	doctors.Get("/", dh.List)
	doctors.Post("/", dh.Create)

	d := doctors.Group("/:id")
	d.Get("/", dh.GetByID)
	d.Get("/availability", avh.DaySlots)
}
