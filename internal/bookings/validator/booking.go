package validator

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"lodge/pkg/logger"
	"lodge/pkg/model"
	"lodge/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

var (
	emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

	dateLayouts = []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}

	fieldRank = map[string]int{
		"Name":     0,
		"Email":    1,
		"Checkin":  2,
		"Checkout": 3,
		"Guests":   4,
	}

	messages = map[string]string{
		"Name.required":      "Name is required",
		"Email.required":     "Email is required",
		"Email.simple_email": "Email appears invalid",
		"Checkin.required":   "Check-in date is required",
		"Checkout.required":  "Check-out date is required",
		"Guests.gte":         "Number of guests must be a positive integer",
		"Guests.lte":         "Number of guests too large",
	}
)

const (
	msgInvalidDates = "Dates must be valid ISO dates"
	msgDateOrder    = "Check-out must be after check-in"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Message is the client-facing summary: every message, in form order.
func (v ValidationErrors) Message() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("simple_email", validateSimpleEmail); err != nil {
		log.Fatal("Failed to register 'simple_email' validator", "error", err)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateSimpleEmail(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// ParseDate accepts a calendar date or an ISO-8601 date-time.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseGuests reads an integral guest count. Non-integers read as 0, which
// fails the positive-integer rule; out-of-range integers are clamped so they
// still fail the upper bound.
func ParseGuests(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return clampGuests(float64(n))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	if math.IsNaN(f) || (math.IsInf(f, 0) && err == nil) || f != math.Trunc(f) {
		return 0
	}
	return clampGuests(f)
}

func clampGuests(f float64) int {
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// Validate sanitizes req and checks every rule, returning all failures at
// once as ValidationErrors.
func (v *BookingValidator) Validate(req *model.BookingRequest) (model.Booking, error) {
	booking := model.Booking{
		Name:     sanitizer.SanitizeString(req.Name),
		Email:    sanitizer.SanitizeString(req.Email),
		Checkin:  sanitizer.SanitizeString(req.Checkin),
		Checkout: sanitizer.SanitizeString(req.Checkout),
		Guests:   ParseGuests(sanitizer.SanitizeString(req.Guests)),
		Notes:    sanitizer.SanitizeString(req.Notes),
	}

	var validationErrors ValidationErrors

	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return booking, err
		}
		validationErrors = v.translateValidationErrors(validationErrs)
	}

	// Date format and order are only checked once both dates are present.
	if booking.Checkin != "" && booking.Checkout != "" {
		checkin, okIn := ParseDate(booking.Checkin)
		checkout, okOut := ParseDate(booking.Checkout)
		switch {
		case !okIn || !okOut:
			validationErrors = append(validationErrors, ValidationError{
				Field:   "Checkout",
				Message: msgInvalidDates,
			})
		case !checkin.Before(checkout):
			validationErrors = append(validationErrors, ValidationError{
				Field:   "Checkout",
				Message: msgDateOrder,
			})
		}
	}

	if len(validationErrors) > 0 {
		return booking, orderAndDedupe(validationErrors)
	}
	return booking, nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message, ok := messages[err.Field()+"."+err.Tag()]
		if !ok {
			message = fmt.Sprintf("%s is invalid", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func orderAndDedupe(errs ValidationErrors) ValidationErrors {
	sort.SliceStable(errs, func(i, j int) bool {
		return fieldRank[errs[i].Field] < fieldRank[errs[j].Field]
	})

	seen := make(map[string]bool, len(errs))
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		if seen[err.Message] {
			continue
		}
		seen[err.Message] = true
		out = append(out, err)
	}
	return out
}
