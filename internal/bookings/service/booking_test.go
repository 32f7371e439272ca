package service

import (
	"context"
	"errors"
	"testing"

	bookingserrors "laundro/internal/bookings/errors"
	"laundro/internal/bookings/validator"
	"laundro/pkg/config"
	mongotx "laundro/pkg/db/mongo"
	apperrors "laundro/pkg/errors"
	"laundro/pkg/kafka"
	"laundro/pkg/logger"
	"laundro/pkg/model"
)

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findByDateFunc      func(ctx context.Context, date string, includeCancelled bool) ([]model.Booking, error)
	findByUserFunc      func(ctx context.Context, userID string) ([]model.Booking, error)
	findOverlappingFunc func(ctx context.Context, machine, date string, startMin, endMin int) ([]model.Booking, error)
	cancelFunc          func(ctx context.Context, id, cancelledBy, reason string) error
	deleteFunc          func(ctx context.Context, id string) error
	deleteManyFunc      func(ctx context.Context, ids []string) (int64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "66f000000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByDate(ctx context.Context, date string, includeCancelled bool) ([]model.Booking, error) {
	if m.findByDateFunc != nil {
		return m.findByDateFunc(ctx, date, includeCancelled)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, machine, date string, startMin, endMin int) ([]model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, machine, date, startMin, endMin)
	}
	return nil, nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, id, cancelledBy, reason string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, cancelledBy, reason)
	}
	return nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if m.deleteManyFunc != nil {
		return m.deleteManyFunc(ctx, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		WasherCount:   2,
		DryerMaxHours: 9,
		Log:           logger.Discard(),
	}
}

func newService(repo *mockBookingRepository, events EventPublisher) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, validator.NewBookingValidator(cfg.Log), events, cfg)
}

func validBooking() *model.Booking {
	return &model.Booking{
		Machine:   "washer-1",
		Date:      "2026-08-31",
		StartTime: "10:00",
		EndTime:   "10:30",
		User:      model.BookingUser{ID: "u1", Name: "  Alice  ", Room: "b101"},
	}
}

func TestCreateBooking(t *testing.T) {
	repo := &mockBookingRepository{}
	events := &mockPublisher{}
	svc := newService(repo, events)

	booking := validBooking()
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected the repository-assigned ID")
	}
	if booking.Status != model.BookingActive {
		t.Errorf("status = %s, want active default", booking.Status)
	}
	if booking.User.Name != "Alice" || booking.User.Room != "B101" {
		t.Errorf("user not sanitized: %+v", booking.User)
	}
	if len(events.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.published))
	}
	if got := events.published[0].EventType(); got != EventBookingCreated {
		t.Errorf("event type = %s, want %s", got, EventBookingCreated)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, machine, date string, startMin, endMin int) ([]model.Booking, error) {
			return []model.Booking{*validBooking()}, nil
		},
	}
	events := &mockPublisher{}
	svc := newService(repo, events)

	err := svc.Create(context.Background(), validBooking())
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(events.published) != 0 {
		t.Error("conflicting create must not publish an event")
	}
}

func TestCreateMultiSlotWasherBooking(t *testing.T) {
	var checkedStart, checkedEnd int
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, machine, date string, startMin, endMin int) ([]model.Booking, error) {
			checkedStart, checkedEnd = startMin, endMin
			return nil, nil
		},
	}
	svc := newService(repo, &mockPublisher{})

	booking := validBooking()
	booking.EndTime = "11:30"
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("a whole contiguous run must submit as one booking: %v", err)
	}
	if checkedStart != 600 || checkedEnd != 690 {
		t.Errorf("overlap check covered [%d,%d), want the full [600,690)", checkedStart, checkedEnd)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Booking)
	}{
		{"missing machine", func(b *model.Booking) { b.Machine = "" }},
		{"unknown machine", func(b *model.Booking) { b.Machine = "washer-9" }},
		{"bad date", func(b *model.Booking) { b.Date = "31-08-2026" }},
		{"bad clock", func(b *model.Booking) { b.StartTime = "10:65" }},
		{"inverted range", func(b *model.Booking) { b.StartTime, b.EndTime = "11:00", "10:30" }},
		{"before day start", func(b *model.Booking) { b.StartTime, b.EndTime = "07:30", "08:00" }},
		{"after day end", func(b *model.Booking) { b.StartTime, b.EndTime = "21:45", "22:15" }},
		{"ragged duration", func(b *model.Booking) { b.EndTime = "11:10" }},
		{"misaligned start", func(b *model.Booking) { b.StartTime, b.EndTime = "10:15", "10:45" }},
		{"missing user", func(b *model.Booking) { b.User = model.BookingUser{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&mockBookingRepository{}, nil)
			booking := validBooking()
			tt.mutate(booking)

			err := svc.Create(context.Background(), booking)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			appErr := apperrors.AsAppError(err)
			if appErr == nil {
				t.Fatalf("expected an app error, got %v", err)
			}
		})
	}
}

func TestCreateDryerBooking(t *testing.T) {
	repo := &mockBookingRepository{}
	svc := newService(repo, nil)

	booking := &model.Booking{
		Machine:         "dryer",
		Date:            "2026-08-31",
		StartTime:       "10:15",
		EndTime:         "11:45",
		DurationMinutes: 90,
		User:            model.BookingUser{ID: "u1", Name: "Alice", Room: "101"},
	}
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("duration mismatch", func(t *testing.T) {
		bad := *booking
		bad.ID = ""
		bad.DurationMinutes = 60
		if err := svc.Create(context.Background(), &bad); err == nil {
			t.Error("expected rejection of inconsistent duration")
		}
	})

	t.Run("over the hour cap", func(t *testing.T) {
		bad := *booking
		bad.ID = ""
		bad.StartTime, bad.EndTime = "08:00", "18:00"
		bad.DurationMinutes = 600
		if err := svc.Create(context.Background(), &bad); err == nil {
			t.Error("expected rejection above the dryer cap")
		}
	})
}

func TestCreatePublishFailureDoesNotFail(t *testing.T) {
	repo := &mockBookingRepository{}
	events := &mockPublisher{err: errors.New("broker down")}
	svc := newService(repo, events)

	if err := svc.Create(context.Background(), validBooking()); err != nil {
		t.Fatalf("a dead broker must not fail the write, got %v", err)
	}
}

func TestCancelBooking(t *testing.T) {
	stored := validBooking()
	stored.ID = "66f000000000000000000001"
	stored.Status = model.BookingActive

	var cancelled struct{ id, by, reason string }
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			b := *stored
			return &b, nil
		},
		cancelFunc: func(ctx context.Context, id, cancelledBy, reason string) error {
			cancelled.id, cancelled.by, cancelled.reason = id, cancelledBy, reason
			return nil
		},
	}
	events := &mockPublisher{}
	svc := newService(repo, events)

	err := svc.Cancel(context.Background(), stored.ID, "admin", "  machine broke  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.id != stored.ID || cancelled.by != "admin" {
		t.Errorf("cancel recorded %+v", cancelled)
	}
	if cancelled.reason != "machine broke" {
		t.Errorf("reason not normalized: %q", cancelled.reason)
	}
	if len(events.published) != 1 || events.published[0].EventType() != EventBookingCancelled {
		t.Errorf("expected one cancelled event, got %+v", events.published)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil)

	err := svc.Cancel(context.Background(), "66f000000000000000000001", "admin", "   ")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			b := *validBooking()
			b.ID = id
			b.Status = model.BookingCancelled
			return &b, nil
		},
	}
	svc := newService(repo, nil)

	err := svc.Cancel(context.Background(), "66f000000000000000000001", "admin", "reason")
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteBookingNotFound(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil)

	err := svc.Delete(context.Background(), "66f000000000000000000001")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeleteMany(t *testing.T) {
	events := &mockPublisher{}
	svc := newService(&mockBookingRepository{}, events)

	if err := svc.DeleteMany(context.Background(), []string{"a", "b"}); err != nil {
		// Mock accepts any ids; only the empty list is rejected here.
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.published) != 1 || events.published[0].EventType() != EventBookingDeleted {
		t.Errorf("expected one deleted event, got %d", len(events.published))
	}

	err := svc.DeleteMany(context.Background(), nil)
	if appErr := apperrors.AsAppError(err); appErr == nil {
		t.Fatalf("expected rejection of an empty id list, got %v", err)
	}
}

func TestGetGroups(t *testing.T) {
	repo := &mockBookingRepository{
		findByDateFunc: func(ctx context.Context, date string, includeCancelled bool) ([]model.Booking, error) {
			if includeCancelled {
				t.Error("groups must only consider active bookings")
			}
			a := *validBooking()
			a.ID = "a"
			b := *validBooking()
			b.ID = "b"
			b.StartTime, b.EndTime = "10:30", "11:00"
			return []model.Booking{a, b}, nil
		},
	}
	svc := newService(repo, nil)

	groups, err := svc.GetGroups(context.Background(), "2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 merged group, got %d", len(groups))
	}
	if groups[0].FinalEndTime != "11:00" || len(groups[0].OriginalIDs) != 2 {
		t.Errorf("group mismatch: %+v", groups[0])
	}
}

func TestGetByDateValidatesDate(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil)

	if _, err := svc.GetByDate(context.Background(), "yesterday", false); err == nil {
		t.Error("expected rejection of a malformed date")
	}
}
