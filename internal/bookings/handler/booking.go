package handler

import (
	"net/http"

	"lodge/internal/bookings/service"
	httputil "lodge/pkg/http"
	"lodge/pkg/logger"
	"lodge/pkg/middleware"
	"lodge/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	BookingPath = "/api/booking"

	BookingReceivedMessage = "Booking request received."
)

// tokenFields and tokenHeaders are checked in order; the first non-empty value wins.
var (
	tokenFields  = []string{"g-recaptcha-response", "g-recaptcha"}
	tokenHeaders = []string{"X-Recaptcha-Response", "X-G-Recaptcha-Response"}
)

type BookingHandler struct {
	service    service.BookingService
	log        *logger.Logger
	middleware []func(http.Handler) http.Handler
}

// NewBookingHandler wraps the booking route in routeMiddleware, outermost first.
func NewBookingHandler(service service.BookingService, log *logger.Logger, routeMiddleware ...func(http.Handler) http.Handler) *BookingHandler {
	return &BookingHandler{
		service:    service,
		log:        log,
		middleware: routeMiddleware,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	var handler http.Handler = http.HandlerFunc(h.Submit)
	for i := len(h.middleware) - 1; i >= 0; i-- {
		handler = h.middleware[i](handler)
	}
	router.Handler(http.MethodPost, BookingPath, handler)
}

func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	fields, err := httputil.DecodeFields(r)
	if err != nil {
		h.log.Warn("Rejected booking body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	req := bookingRequestFrom(fields, r)

	if _, err := h.service.Submit(r.Context(), req, middleware.ClientIPKeyExtractor(r)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteAck(w, BookingReceivedMessage); err != nil {
		h.log.Error("failed to write ack response", "handler", "Submit", "operation", "WriteAck", "error", err)
	}
}

func bookingRequestFrom(fields httputil.Fields, r *http.Request) *model.BookingRequest {
	return &model.BookingRequest{
		Name:         fields.String("name"),
		Email:        fields.String("email"),
		Checkin:      fields.String("checkin"),
		Checkout:     fields.String("checkout"),
		Guests:       fields.Text("guests"),
		Notes:        fields.String("notes"),
		CaptchaToken: captchaToken(fields, r),
	}
}

func captchaToken(fields httputil.Fields, r *http.Request) string {
	for _, key := range tokenFields {
		if token := fields.String(key); token != "" {
			return token
		}
	}
	for _, header := range tokenHeaders {
		if token := r.Header.Get(header); token != "" {
			return token
		}
	}
	return ""
}
