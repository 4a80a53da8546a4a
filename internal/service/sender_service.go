package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rentals/internal/db"
	"rentals/internal/entities"
	"rentals/internal/utils"
)

//go:embed templates/booking_email.html
var bookingEmailTemplate string

const notificationTimeout = 30 * time.Second

// Notifier tells customers about booking state changes. Implementations must
// not block the caller on delivery.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking db.Booking)
	BookingCancelled(ctx context.Context, booking db.Booking)
}

// SenderService delivers notifications by email and SMS in the background.
// Either channel may be nil, in which case it is skipped.
type SenderService struct {
	email EmailSender
	sms   SMSSender
	tmpl  *template.Template
	log   *slog.Logger
	wg    sync.WaitGroup
}

func NewSenderService(email EmailSender, sms SMSSender, log *slog.Logger) *SenderService {
	return &SenderService{
		email: email,
		sms:   sms,
		tmpl:  template.Must(template.New("booking_email").Parse(bookingEmailTemplate)),
		log:   log,
	}
}

func (s *SenderService) BookingConfirmed(ctx context.Context, booking db.Booking) {
	s.dispatch(ctx, booking, "confirmed")
}

func (s *SenderService) BookingCancelled(ctx context.Context, booking db.Booking) {
	s.dispatch(ctx, booking, "cancelled")
}

// Wait blocks until in-flight notifications finish.
func (s *SenderService) Wait() {
	s.wg.Wait()
}

func (s *SenderService) dispatch(ctx context.Context, booking db.Booking, status string) {
	// Delivery outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)

	if s.email != nil && booking.Customer.Email != "" {
		subject, plain, html, err := s.renderEmail(booking, status)
		if err != nil {
			s.log.Error("Failed to render booking email", "booking_id", booking.ID, "error", err)
		} else {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				ctx, cancel := context.WithTimeout(ctx, notificationTimeout)
				defer cancel()
				if err := s.email.SendEmail(ctx, booking.Customer.Email, booking.Customer.Name, subject, plain, html); err != nil {
					s.log.Warn("Booking email failed", "booking_id", booking.ID, "status", status, "error", err)
				}
			}()
		}
	}

	if s.sms != nil && booking.Customer.Phone != "" {
		body := smsBody(booking, status)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(ctx, notificationTimeout)
			defer cancel()
			if err := s.sms.SendSMS(ctx, booking.Customer.Phone, body); err != nil {
				s.log.Warn("Booking SMS failed", "booking_id", booking.ID, "status", status, "error", err)
			}
		}()
	}
}

func (s *SenderService) renderEmail(booking db.Booking, status string) (subject, plain, html string, err error) {
	data := emailData(booking, status)

	subject = fmt.Sprintf("Your booking is %s - %s", status, data.Vehicle)
	plain = fmt.Sprintf(
		"Hello %s,\n\nYour booking is %s.\n\n"+
			"Booking: %s\n"+
			"Vehicle: %s (Plate: %s)\n"+
			"Pick-up: %s, %s\n"+
			"Drop-off: %s, %s\n"+
			"Total: %s\n\n"+
			"Thank you for renting with us.",
		data.CustomerName, status, data.BookingID, data.Vehicle, data.Plate,
		data.StartDateFormatted, data.PickupLocation, data.EndDateFormatted, data.DropoffLocation,
		data.TotalFormatted,
	)

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", "", "", err
	}
	return subject, plain, buf.String(), nil
}

func emailData(booking db.Booking, status string) entities.BookingEmailData {
	data := entities.BookingEmailData{
		CustomerName:       booking.Customer.Name,
		BookingID:          booking.ID,
		StartDateFormatted: booking.StartDate.Format("02 Jan 2006 15:04 MST"),
		EndDateFormatted:   booking.EndDate.Format("02 Jan 2006 15:04 MST"),
		TotalFormatted:     fmt.Sprintf("%s %s", utils.FormatAmount(booking.TotalAmount), strings.ToUpper(booking.Currency)),
		PickupLocation:     booking.PickupLocation,
		DropoffLocation:    booking.DropoffLocation,
		Status:             status,
		CurrentYear:        time.Now().Year(),
	}
	if booking.Vehicle != nil {
		data.Vehicle = fmt.Sprintf("%s %s %d", booking.Vehicle.Make, booking.Vehicle.Model, booking.Vehicle.Year)
		data.Plate = booking.Vehicle.Plate
	}
	return data
}

func smsBody(booking db.Booking, status string) string {
	return fmt.Sprintf("Rentals: booking %s has been %s.\nPick-up: %s.\nMore details in your email.",
		shortID(booking.ID), status, booking.StartDate.Format("01/02 15:04"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
