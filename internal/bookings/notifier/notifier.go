package notifier

import (
	"context"
	"errors"
	"strings"

	"lodge/pkg/model"
)

// Notifier tells someone about an accepted booking. Failures are reported to
// the caller, which decides whether they matter.
type Notifier interface {
	Notify(ctx context.Context, record model.BookingRecord) error
}

type Nop struct{}

func (Nop) Notify(context.Context, model.BookingRecord) error { return nil }

// Multi fans a booking out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, record model.BookingRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine drops no-op notifiers and returns the smallest equivalent Notifier.
func Combine(notifiers ...Notifier) Notifier {
	var active Multi
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		if _, ok := n.(Nop); ok {
			continue
		}
		active = append(active, n)
	}

	switch len(active) {
	case 0:
		return Nop{}
	case 1:
		return active[0]
	default:
		return active
	}
}

// FormatText renders one "key: value" line per record field.
func FormatText(record model.BookingRecord) string {
	fields := record.Fields()
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Key+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}
