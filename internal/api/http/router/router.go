package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/clinicbook/backend/config"
	"github.com/clinicbook/backend/internal/api/http/handler"
	"github.com/clinicbook/backend/internal/service/appointment"
	"github.com/clinicbook/backend/internal/service/availability"
	"github.com/clinicbook/backend/internal/service/doctor"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	AppointmentSvc  appointment.Service
	AvailabilitySvc availability.Service
	DoctorSvc       doctor.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	availabilityH := handler.NewAvailabilityHandler(r.p.AvailabilitySvc)
	doctorH := handler.NewDoctorHandler(r.p.DoctorSvc)

	api := app.Group("/api/v1")

	r.registerAppointmentRoutes(api, appointmentH)
	r.registerDoctorRoutes(api, doctorH, availabilityH)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
