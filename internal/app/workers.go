package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/clinicbook/backend/config"
	"github.com/clinicbook/backend/internal/service/notification"
	"github.com/clinicbook/backend/internal/store"
	"github.com/clinicbook/backend/pkg/clock"
)

// WorkerModule registers the NATS email worker and the background jobs
// that keep appointment state and reminders moving without requests.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	NC       *nats.Conn
	Store    *store.Postgres
	NotifSvc notification.Service
	Clk      clock.Clock
	Cfg      *config.Config
}

func RegisterWorkers(p WorkerParams) {
	ctx, cancel := context.WithCancel(context.Background())

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			startEmailWorker(p.NC, p.Store, p.NotifSvc, workTimeout(p.Cfg))
			go runCompletionSweep(ctx, p.Store, p.Clk, p.Cfg.Booking)
			go runReminderJob(ctx, p.Store, p.NotifSvc, p.Clk, p.Cfg.Booking)
			return nil
		},
		OnStop: func(context.Context) error {
			// NATS drain is handled by ProvideNatsClient.
			cancel()
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// email_worker
// ---------------------------------------------------------------------------

// workTimeout bounds one unit of background work (a store read plus an
// email send). Derived from the server timeout like the request path.
func workTimeout(cfg *config.Config) time.Duration {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return timeout
}

// startEmailWorker sends confirmation and cancellation emails off the
// request path. Event payloads carry only the appointment id; the worker
// re-reads state so a stale or replayed event cannot send a wrong email.
func startEmailWorker(nc *nats.Conn, st *store.Postgres, notifSvc notification.Service, timeout time.Duration) {
	handle := func(send func(context.Context, uuid.UUID) error) func(*nats.Msg) {
		return func(msg *nats.Msg) {
			idStr := strings.TrimSpace(string(msg.Data))
			id, err := uuid.Parse(idStr)
			if err != nil {
				slog.Warn("email_worker: bad event payload", "subject", msg.Subject, "payload", idStr)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := send(ctx, id); err != nil {
				slog.Warn("email_worker: send failed", "subject", msg.Subject, "appointment_id", id, "err", err)
			}
		}
	}

	_, err := nc.Subscribe("clinicbook.appointment.created.*", handle(func(ctx context.Context, id uuid.UUID) error {
		appt, err := st.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		return notifSvc.AppointmentBooked(ctx, appt)
	}))
	if err != nil {
		slog.Error("email_worker: subscribe appointment.created failed", "err", err)
	}

	_, err = nc.Subscribe("clinicbook.appointment.cancelled.*", handle(func(ctx context.Context, id uuid.UUID) error {
		appt, err := st.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		return notifSvc.AppointmentCancelled(ctx, appt)
	}))
	if err != nil {
		slog.Error("email_worker: subscribe appointment.cancelled failed", "err", err)
	}

	slog.Info("email_worker: started")
}

// ---------------------------------------------------------------------------
// completion_sweep
// ---------------------------------------------------------------------------

// runCompletionSweep periodically moves overdue scheduled appointments to
// completed. Reads already apply this transition lazily; the sweep covers
// rows nobody reads.
func runCompletionSweep(ctx context.Context, st *store.Postgres, clk clock.Clock, cfg config.BookingConfig) {
	if cfg.AutoCompleteSweepMinutes <= 0 {
		slog.Info("completion_sweep: disabled")
		return
	}
	interval := time.Duration(cfg.AutoCompleteSweepMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("completion_sweep: started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.CompleteOverdue(ctx, clk.Now())
			if err != nil {
				slog.Error("completion_sweep: sweep failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("completion_sweep: completed overdue appointments", "count", n)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// reminder_job
// ---------------------------------------------------------------------------

// runReminderJob fires once a day at the configured local hour and emails
// every patient with a scheduled appointment on the following day.
func runReminderJob(ctx context.Context, st *store.Postgres, notifSvc notification.Service, clk clock.Clock, cfg config.BookingConfig) {
	slog.Info("reminder_job: started", "hour", cfg.ReminderHour)
	for {
		now := clk.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), cfg.ReminderHour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		sendReminders(ctx, st, notifSvc, clk)
	}
}

// reminderWindow is the half-open interval covering the whole local day
// after now: [tomorrow 00:00, day-after 00:00).
func reminderWindow(now time.Time) (from, to time.Time) {
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return from, from.AddDate(0, 0, 1)
}

func sendReminders(ctx context.Context, st *store.Postgres, notifSvc notification.Service, clk clock.Clock) {
	from, to := reminderWindow(clk.Now())

	appts, err := st.ListScheduledBetween(ctx, from, to)
	if err != nil {
		slog.Error("reminder_job: list appointments failed", "err", err)
		return
	}

	var sent int
	for _, appt := range appts {
		if err := notifSvc.AppointmentReminder(ctx, appt); err != nil {
			slog.Warn("reminder_job: send failed", "appointment_id", appt.ID, "err", err)
			continue
		}
		sent++
	}
	slog.Info("reminder_job: reminders sent", "count", sent, "of", len(appts))
}
