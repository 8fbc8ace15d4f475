package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "lodge/internal/bookings/errors"
	"lodge/internal/bookings/notifier"
	"lodge/internal/bookings/repository"
	"lodge/internal/bookings/validator"
	"lodge/internal/bookings/verifier"
	apperrors "lodge/pkg/errors"
	"lodge/pkg/logger"
	"lodge/pkg/middleware"
	"lodge/pkg/model"
)

const (
	MsgTokenMissing       = "reCAPTCHA token missing"
	MsgVerificationFailed = "reCAPTCHA verification failed"
	MsgLowScore           = "reCAPTCHA verification failed (low score)"
	MsgVerificationError  = "reCAPTCHA verification error"
)

type BookingService interface {
	// Submit runs one booking request through verification, validation,
	// persistence and notification. Only verification and validation can
	// reject it; storage and notification failures are logged and ignored.
	Submit(ctx context.Context, req *model.BookingRequest, clientIP string) (*model.BookingRecord, error)
}

type bookingService struct {
	verifier  verifier.Verifier
	validator *validator.BookingValidator
	repo      repository.BookingRepository
	notifier  notifier.Notifier
	log       *logger.Logger
	now       func() time.Time
}

func NewBookingService(
	v verifier.Verifier,
	validator *validator.BookingValidator,
	repo repository.BookingRepository,
	n notifier.Notifier,
	log *logger.Logger,
) BookingService {
	if v == nil {
		v = verifier.Nop{}
	}
	if n == nil {
		n = notifier.Nop{}
	}
	return &bookingService{
		verifier:  v,
		validator: validator,
		repo:      repo,
		notifier:  n,
		log:       log,
		now:       time.Now,
	}
}

func (s *bookingService) Submit(ctx context.Context, req *model.BookingRequest, clientIP string) (*model.BookingRecord, error) {
	requestID := middleware.GetRequestID(ctx)

	if err := s.verify(ctx, req.CaptchaToken, clientIP); err != nil {
		return nil, err
	}

	booking, err := s.validator.Validate(req)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.log.Info("Booking rejected by validation",
				"request_id", requestID,
				"client_ip", clientIP,
				"errors", verrs.Message(),
			)
			return nil, apperrors.InvalidInput(verrs.Message())
		}
		return nil, apperrors.Internal(apperrors.InternalMessage, err)
	}

	record := model.NewBookingRecord(booking, s.now(), clientIP)

	// The request is accepted from here on; a client disconnect must not
	// cancel the write or the notification.
	detached := context.WithoutCancel(ctx)

	// Hosts with an ephemeral filesystem lose the log anyway, so a failed
	// write is not worth rejecting the guest over.
	if err := s.repo.Append(detached, record); err != nil {
		s.log.Error("Failed to persist booking",
			"request_id", requestID,
			"email", record.Email,
			"client_ip", clientIP,
			"error", err,
		)
	}

	if err := s.notifier.Notify(detached, record); err != nil {
		s.log.Error("Failed to send booking notification",
			"request_id", requestID,
			"email", record.Email,
			"client_ip", clientIP,
			"error", err,
		)
	}

	s.log.Info("Booking request received",
		"request_id", requestID,
		"email", record.Email,
		"checkin", record.Checkin,
		"checkout", record.Checkout,
		"guests", record.Guests,
	)

	return &record, nil
}

func (s *bookingService) verify(ctx context.Context, token, clientIP string) error {
	err := s.verifier.Verify(ctx, token, clientIP)
	if err == nil {
		return nil
	}

	requestID := middleware.GetRequestID(ctx)

	switch {
	case errors.Is(err, bookingserrors.ErrTokenMissing):
		s.log.Info("Booking rejected: token missing", "request_id", requestID, "client_ip", clientIP)
		return apperrors.Forbidden(MsgTokenMissing)
	case errors.Is(err, bookingserrors.ErrLowScore):
		s.log.Warn("Booking rejected: low verification score", "request_id", requestID, "client_ip", clientIP, "error", err)
		return apperrors.Forbidden(MsgLowScore)
	case errors.Is(err, bookingserrors.ErrVerificationFailed):
		s.log.Warn("Booking rejected: verification failed", "request_id", requestID, "client_ip", clientIP, "error", err)
		return apperrors.Forbidden(MsgVerificationFailed)
	default:
		s.log.Error("Verification service error", "request_id", requestID, "client_ip", clientIP, "error", err)
		return apperrors.Dependency(MsgVerificationError, err)
	}
}
