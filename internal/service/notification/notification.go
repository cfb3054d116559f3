// Package notification turns appointment lifecycle events into patient
// emails. Senders are invoked from background workers; a failed send is
// logged there and never reaches the request path.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicbook/backend/internal/domain"
	"github.com/clinicbook/backend/internal/store"
	"github.com/clinicbook/backend/pkg/email"
)

type Service interface {
	AppointmentBooked(ctx context.Context, appt *domain.Appointment) error
	AppointmentCancelled(ctx context.Context, appt *domain.Appointment) error
	AppointmentReminder(ctx context.Context, appt *domain.Appointment) error
}

type notificationService struct {
	doctors  store.DoctorStore
	patients store.PatientStore
	mail     *email.Client
}

func New(doctors store.DoctorStore, patients store.PatientStore, mail *email.Client) Service {
	return &notificationService{doctors: doctors, patients: patients, mail: mail}
}

func (s *notificationService) AppointmentBooked(ctx context.Context, appt *domain.Appointment) error {
	to, data, err := s.emailData(ctx, appt)
	if err != nil {
		return err
	}
	return s.send(ctx, email.BuildConfirmationEmail(to, data))
}

func (s *notificationService) AppointmentCancelled(ctx context.Context, appt *domain.Appointment) error {
	to, data, err := s.emailData(ctx, appt)
	if err != nil {
		return err
	}
	return s.send(ctx, email.BuildCancellationEmail(to, data))
}

func (s *notificationService) AppointmentReminder(ctx context.Context, appt *domain.Appointment) error {
	to, data, err := s.emailData(ctx, appt)
	if err != nil {
		return err
	}
	return s.send(ctx, email.BuildReminderEmail(to, data))
}

func (s *notificationService) emailData(ctx context.Context, appt *domain.Appointment) (string, email.AppointmentEmailData, error) {
	patient, err := s.patients.GetPatient(ctx, appt.PatientID)
	if err != nil {
		return "", email.AppointmentEmailData{}, fmt.Errorf("load patient: %w", err)
	}
	doctor, err := s.doctors.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		return "", email.AppointmentEmailData{}, fmt.Errorf("load doctor: %w", err)
	}

	return patient.Email, email.AppointmentEmailData{
		PatientName: patient.FullName(),
		DoctorName:  doctor.Name,
		ScheduledAt: appt.ScheduledAt,
	}, nil
}

func (s *notificationService) send(ctx context.Context, m email.Message) error {
	err := s.mail.Send(ctx, m)
	if err != nil {
		var disabled email.ErrDisabled
		if errors.As(err, &disabled) {
			return nil
		}
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
