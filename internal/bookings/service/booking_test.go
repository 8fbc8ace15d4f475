package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	bookingserrors "lodge/internal/bookings/errors"
	"lodge/internal/bookings/validator"
	apperrors "lodge/pkg/errors"
	"lodge/pkg/logger"
	"lodge/pkg/model"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token, remoteIP string) error
	calls      int
}

func (m *mockVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	m.calls++
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, token, remoteIP)
	}
	return nil
}

type mockRepository struct {
	appendFunc func(ctx context.Context, record model.BookingRecord) error
	appended   []model.BookingRecord
}

func (m *mockRepository) Append(ctx context.Context, record model.BookingRecord) error {
	m.appended = append(m.appended, record)
	if m.appendFunc != nil {
		return m.appendFunc(ctx, record)
	}
	return nil
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }

type mockNotifier struct {
	notifyFunc func(ctx context.Context, record model.BookingRecord) error
	notified   []model.BookingRecord
}

func (m *mockNotifier) Notify(ctx context.Context, record model.BookingRecord) error {
	m.notified = append(m.notified, record)
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, record)
	}
	return nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 30, 45, 123_000_000, time.UTC)

func newTestService(v *mockVerifier, repo *mockRepository, n *mockNotifier) *bookingService {
	log := logger.Discard()
	svc := NewBookingService(v, validator.NewBookingValidator(log), repo, n, log).(*bookingService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		Name:         "  Ada Lovelace ",
		Email:        "ada@example.com",
		Checkin:      "2025-06-01",
		Checkout:     "2025-06-05",
		Guests:       "2",
		Notes:        "Late arrival",
		CaptchaToken: "token",
	}
}

func assertAppError(t *testing.T, err error, wantStatus int, wantMessage string) {
	t.Helper()

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.StatusCode() != wantStatus {
		t.Errorf("status = %d, want %d", appErr.StatusCode(), wantStatus)
	}
	if appErr.Message != wantMessage {
		t.Errorf("message = %q, want %q", appErr.Message, wantMessage)
	}
}

func TestSubmit_Success(t *testing.T) {
	v := &mockVerifier{}
	repo := &mockRepository{}
	n := &mockNotifier{}
	svc := newTestService(v, repo, n)

	var gotToken, gotIP string
	v.verifyFunc = func(ctx context.Context, token, remoteIP string) error {
		gotToken, gotIP = token, remoteIP
		return nil
	}

	record, err := svc.Submit(context.Background(), validRequest(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := model.BookingRecord{
		ReceivedAt: "2025-03-01T12:30:45.123Z",
		IP:         "203.0.113.7",
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Checkin:    "2025-06-01",
		Checkout:   "2025-06-05",
		Guests:     2,
		Notes:      "Late arrival",
	}
	if *record != want {
		t.Errorf("record = %+v, want %+v", *record, want)
	}
	if gotToken != "token" || gotIP != "203.0.113.7" {
		t.Errorf("verifier got token=%q ip=%q", gotToken, gotIP)
	}
	if len(repo.appended) != 1 || repo.appended[0] != want {
		t.Errorf("appended = %+v", repo.appended)
	}
	if len(n.notified) != 1 || n.notified[0] != want {
		t.Errorf("notified = %+v", n.notified)
	}
}

func TestSubmit_VerificationOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		verifyErr   error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "token missing",
			verifyErr:   bookingserrors.ErrTokenMissing,
			wantStatus:  http.StatusForbidden,
			wantMessage: MsgTokenMissing,
		},
		{
			name:        "verification failed",
			verifyErr:   fmt.Errorf("%w: invalid-input-response", bookingserrors.ErrVerificationFailed),
			wantStatus:  http.StatusForbidden,
			wantMessage: MsgVerificationFailed,
		},
		{
			name:        "low score",
			verifyErr:   fmt.Errorf("%w: 0.10 < 0.45", bookingserrors.ErrLowScore),
			wantStatus:  http.StatusForbidden,
			wantMessage: MsgLowScore,
		},
		{
			name:        "verifier unreachable",
			verifyErr:   errors.New("dial tcp: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgVerificationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &mockVerifier{verifyFunc: func(ctx context.Context, token, remoteIP string) error {
				return tt.verifyErr
			}}
			repo := &mockRepository{}
			n := &mockNotifier{}
			svc := newTestService(v, repo, n)

			_, err := svc.Submit(context.Background(), validRequest(), "203.0.113.7")

			assertAppError(t, err, tt.wantStatus, tt.wantMessage)
			if len(repo.appended) != 0 || len(n.notified) != 0 {
				t.Error("rejected booking must not be stored or notified")
			}
		})
	}
}

func TestSubmit_VerificationRunsBeforeValidation(t *testing.T) {
	v := &mockVerifier{verifyFunc: func(ctx context.Context, token, remoteIP string) error {
		return bookingserrors.ErrTokenMissing
	}}
	svc := newTestService(v, &mockRepository{}, &mockNotifier{})

	_, err := svc.Submit(context.Background(), &model.BookingRequest{}, "203.0.113.7")

	assertAppError(t, err, http.StatusForbidden, MsgTokenMissing)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	repo := &mockRepository{}
	n := &mockNotifier{}
	svc := newTestService(&mockVerifier{}, repo, n)

	req := validRequest()
	req.Name = ""
	req.Email = "not-an-email"
	req.Guests = "0"

	_, err := svc.Submit(context.Background(), req, "203.0.113.7")

	assertAppError(t, err, http.StatusBadRequest,
		"Name is required; Email appears invalid; Number of guests must be a positive integer")
	if len(repo.appended) != 0 || len(n.notified) != 0 {
		t.Error("invalid booking must not be stored or notified")
	}
}

func TestSubmit_PersistenceFailureStillAcknowledges(t *testing.T) {
	repo := &mockRepository{appendFunc: func(ctx context.Context, record model.BookingRecord) error {
		return errors.New("read-only file system")
	}}
	n := &mockNotifier{}
	svc := newTestService(&mockVerifier{}, repo, n)

	record, err := svc.Submit(context.Background(), validRequest(), "203.0.113.7")

	if err != nil {
		t.Fatalf("Submit() error = %v, want nil", err)
	}
	if record == nil {
		t.Fatal("expected record")
	}
	if len(n.notified) != 1 {
		t.Errorf("notification should still be attempted, got %d", len(n.notified))
	}
}

func TestSubmit_NotificationFailureStillAcknowledges(t *testing.T) {
	n := &mockNotifier{notifyFunc: func(ctx context.Context, record model.BookingRecord) error {
		return errors.New("smtp: connection refused")
	}}
	repo := &mockRepository{}
	svc := newTestService(&mockVerifier{}, repo, n)

	_, err := svc.Submit(context.Background(), validRequest(), "203.0.113.7")

	if err != nil {
		t.Fatalf("Submit() error = %v, want nil", err)
	}
	if len(repo.appended) != 1 {
		t.Errorf("expected booking stored, got %d", len(repo.appended))
	}
}

func TestSubmit_DetachesFromClientCancellation(t *testing.T) {
	var appendCtxErr, notifyCtxErr error
	repo := &mockRepository{appendFunc: func(ctx context.Context, record model.BookingRecord) error {
		appendCtxErr = ctx.Err()
		return nil
	}}
	n := &mockNotifier{notifyFunc: func(ctx context.Context, record model.BookingRecord) error {
		notifyCtxErr = ctx.Err()
		return nil
	}}
	v := &mockVerifier{}
	svc := newTestService(v, repo, n)

	ctx, cancel := context.WithCancel(context.Background())
	v.verifyFunc = func(context.Context, string, string) error {
		cancel()
		return nil
	}

	if _, err := svc.Submit(ctx, validRequest(), "203.0.113.7"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if appendCtxErr != nil || notifyCtxErr != nil {
		t.Errorf("persistence saw %v, notification saw %v", appendCtxErr, notifyCtxErr)
	}
}

func TestNewBookingService_DefaultsToNop(t *testing.T) {
	log := logger.Discard()
	repo := &mockRepository{}
	svc := NewBookingService(nil, validator.NewBookingValidator(log), repo, nil, log)

	req := validRequest()
	req.CaptchaToken = ""

	if _, err := svc.Submit(context.Background(), req, "203.0.113.7"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(repo.appended) != 1 {
		t.Errorf("expected booking stored, got %d", len(repo.appended))
	}
}
