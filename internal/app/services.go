package app

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/clinicbook/backend/config"
	"github.com/clinicbook/backend/internal/service/appointment"
	"github.com/clinicbook/backend/internal/service/availability"
	"github.com/clinicbook/backend/internal/service/doctor"
	"github.com/clinicbook/backend/internal/service/notification"
	"github.com/clinicbook/backend/internal/store"
	"github.com/clinicbook/backend/pkg/clock"
	"github.com/clinicbook/backend/pkg/email"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAvailabilityService,
		ProvideAppointmentService,
		ProvideDoctorService,
		ProvideNotificationService,
	),
)

func ProvideAvailabilityService(st *store.Postgres, rdb *redis.Client, cfg *config.Config) availability.Service {
	ttl := time.Duration(cfg.Booking.AvailabilityCacheTTLSeconds) * time.Second
	return availability.New(st, st, rdb, ttl)
}

func ProvideAppointmentService(
	st *store.Postgres,
	clk clock.Clock,
	nc *nats.Conn,
	avail availability.Service,
) appointment.Service {
	return appointment.New(st, st, st, clk, nc, avail)
}

func ProvideDoctorService(st *store.Postgres) doctor.Service {
	return doctor.New(st)
}

func ProvideNotificationService(st *store.Postgres, mail *email.Client) notification.Service {
	return notification.New(st, st, mail)
}
