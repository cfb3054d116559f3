package email

import (
	"fmt"
	"time"
)

// AppointmentEmailData contains the data needed for appointment email templates.
type AppointmentEmailData struct {
	PatientName string
	DoctorName  string
	ScheduledAt time.Time
	AppName     string
}

const apptTimeLayout = "January 2, 2006 at 3:04 PM"

func (d AppointmentEmailData) appName() string {
	if d.AppName == "" {
		return "ClinicBook"
	}
	return d.AppName
}

func (d AppointmentEmailData) patientName() string {
	if d.PatientName == "" {
		return "there"
	}
	return d.PatientName
}

// BuildConfirmationEmail creates the booking confirmation message.
func BuildConfirmationEmail(to string, d AppointmentEmailData) Message {
	when := d.ScheduledAt.Format(apptTimeLayout)

	textBody := fmt.Sprintf(`Hi %s,

Your appointment with Dr. %s has been scheduled for %s.

If you need to cancel, you can do so up to one hour before the
appointment time.

Thanks,
The %s Team`,
		d.patientName(), d.DoctorName, when, d.appName())

	return Message{
		To:       []string{to},
		Subject:  "Appointment Confirmation",
		TextBody: textBody,
	}
}

// BuildCancellationEmail creates the cancellation notice message.
func BuildCancellationEmail(to string, d AppointmentEmailData) Message {
	when := d.ScheduledAt.Format(apptTimeLayout)

	textBody := fmt.Sprintf(`Hi %s,

Your appointment with Dr. %s on %s has been cancelled.

You can book a new slot at any time.

Thanks,
The %s Team`,
		d.patientName(), d.DoctorName, when, d.appName())

	return Message{
		To:       []string{to},
		Subject:  "Appointment Cancelled",
		TextBody: textBody,
	}
}

// BuildReminderEmail creates the next-day reminder message.
func BuildReminderEmail(to string, d AppointmentEmailData) Message {
	at := d.ScheduledAt.Format("3:04 PM")

	textBody := fmt.Sprintf(`Hi %s,

You have an appointment with Dr. %s tomorrow at %s.

Thanks,
The %s Team`,
		d.patientName(), d.DoctorName, at, d.appName())

	return Message{
		To:       []string{to},
		Subject:  "Appointment Reminder",
		TextBody: textBody,
	}
}
