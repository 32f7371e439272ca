package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "laundro/internal/bookings/errors"
	"laundro/internal/bookings/repository"
	"laundro/internal/bookings/validator"
	"laundro/internal/groups"
	"laundro/pkg/config"
	apperrors "laundro/pkg/errors"
	"laundro/pkg/kafka"
	"laundro/pkg/model"
	"laundro/pkg/sanitizer"
	"laundro/pkg/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
)

// Event types published to the event stream on every write.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingDeleted   = "booking.deleted"
)

// EventPublisher is the slice of the kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByDate(ctx context.Context, date string, includeCancelled bool) ([]model.Booking, error)
	GetByUser(ctx context.Context, userID string) ([]model.Booking, error)
	GetGroups(ctx context.Context, date string) ([]model.BookingGroup, error)
	Cancel(ctx context.Context, id, cancelledBy, reason string) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	events    EventPublisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	startMin, endMin, err := s.validateWindow(booking)
	if err != nil {
		return err
	}

	// The overlap check and the insert share a transaction so two
	// clients racing for the same slot cannot both win.
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := s.repo.FindOverlapping(sessCtx, booking.Machine, booking.Date, startMin, endMin)
		if err != nil {
			return apperrors.Internal("Failed to check slot availability", err)
		}
		if len(overlapping) > 0 {
			return apperrors.Conflict(bookingserrors.ErrSlotConflict.Error()).WithDetails(map[string]any{
				"machine":    booking.Machine,
				"date":       booking.Date,
				"start_time": booking.StartTime,
			})
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.publish(ctx, EventBookingCreated, booking)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"machine", booking.Machine,
		"date", booking.Date,
		"start_time", booking.StartTime,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetByDate(ctx context.Context, date string, includeCancelled bool) ([]model.Booking, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindByDate(ctx, date, includeCancelled)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) GetByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	bookings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list user bookings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) GetGroups(ctx context.Context, date string) ([]model.BookingGroup, error) {
	bookings, err := s.GetByDate(ctx, date, false)
	if err != nil {
		return nil, err
	}
	return groups.Group(bookings), nil
}

func (s *bookingService) Cancel(ctx context.Context, id, cancelledBy, reason string) error {
	reason = sanitizer.NormalizeReason(reason)
	if reason == "" {
		return apperrors.Validation(bookingserrors.ErrMissingReason.Error(), map[string]any{
			"field": "reason",
		})
	}
	if cancelledBy == "" {
		return apperrors.InvalidInput("cancelled_by cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}
	if !booking.Active() {
		return apperrors.Conflict(bookingserrors.ErrAlreadyCancelled.Error())
	}

	if err := s.repo.Cancel(ctx, id, cancelledBy, reason); err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return s.mapLookupError(err, id)
	}

	booking.Status = model.BookingCancelled
	booking.CancelledBy = cancelledBy
	booking.CancelReason = reason
	s.publish(ctx, EventBookingCancelled, booking)

	s.cfg.Log.Info("Booking cancelled",
		"id", id,
		"cancelled_by", cancelledBy,
	)
	return nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return s.mapLookupError(err, id)
	}

	s.publish(ctx, EventBookingDeleted, booking)
	s.cfg.Log.Info("Booking deleted permanently", "id", id)
	return nil
}

func (s *bookingService) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return apperrors.InvalidInput("No booking IDs provided")
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput(err.Error())
		}
		s.cfg.Log.Error("Failed to bulk delete bookings", "ids", ids, "error", err)
		return apperrors.Internal("Failed to delete bookings", err)
	}

	s.publish(ctx, EventBookingDeleted, map[string]any{"ids": ids, "deleted": deleted})
	s.cfg.Log.Info("Bookings deleted permanently", "requested", len(ids), "deleted", deleted)
	return nil
}

func (s *bookingService) applyDefaults(booking *model.Booking) {
	if booking.Status == "" {
		booking.Status = model.BookingActive
	}
}

func (s *bookingService) sanitize(booking *model.Booking) {
	booking.User.Name = sanitizer.NormalizeName(booking.User.Name)
	booking.User.Room = sanitizer.NormalizeRoom(booking.User.Room)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			details := make(map[string]any, len(invalid))
			for _, fe := range invalid {
				details[fe.Field] = fe.Message
			}
			return apperrors.Validation("Booking validation failed", details)
		}
		return apperrors.Validation(err.Error(), nil)
	}
	return nil
}

// validateWindow enforces the time-shape rules the struct tags cannot:
// the range must be forward, inside the bookable day, and either one
// exact slot (washers) or a consistent duration (dryer).
func (s *bookingService) validateWindow(booking *model.Booking) (int, int, error) {
	startMin, err := timeslot.ToMinutes(booking.StartTime)
	if err != nil {
		return 0, 0, apperrors.InvalidInput("Invalid start time")
	}
	endMin, err := timeslot.ToMinutes(booking.EndTime)
	if err != nil {
		return 0, 0, apperrors.InvalidInput("Invalid end time")
	}

	if endMin <= startMin {
		return 0, 0, apperrors.Validation("End time must be after start time", nil)
	}
	if startMin < timeslot.DayStartMinutes || endMin > timeslot.DayEndMinutes {
		return 0, 0, apperrors.Validation(bookingserrors.ErrOutsideDayWindow.Error(), map[string]any{
			"day_start": timeslot.ToClock(timeslot.DayStartMinutes),
			"day_end":   timeslot.ToClock(timeslot.DayEndMinutes),
		})
	}

	if !s.knownMachine(booking.Machine) {
		return 0, 0, apperrors.InvalidInput("Unknown machine " + booking.Machine)
	}

	if booking.Machine == config.DryerMachineID {
		if booking.DurationMinutes != endMin-startMin {
			return 0, 0, apperrors.Validation("Duration does not match the time range", nil)
		}
		if booking.DurationMinutes > s.cfg.DryerMaxHours*60 {
			return 0, 0, apperrors.Validation("Duration exceeds the dryer maximum", map[string]any{
				"max_hours": s.cfg.DryerMaxHours,
			})
		}
		return startMin, endMin, nil
	}

	// Washer ranges cover one or more whole slots: a contiguous draft
	// submits as a single booking spanning its min start and max end.
	if startMin%timeslot.SlotMinutes != 0 || (endMin-startMin)%timeslot.SlotMinutes != 0 {
		return 0, 0, apperrors.Validation(bookingserrors.ErrMisalignedSlot.Error(), nil)
	}
	return startMin, endMin, nil
}

func (s *bookingService) knownMachine(machineID string) bool {
	for _, m := range s.cfg.Machines() {
		if m.ID == machineID {
			return true
		}
	}
	return false
}

func validDate(date string) error {
	if _, err := time.Parse(timeslot.DateLayout, date); err != nil {
		return apperrors.InvalidInput("Invalid date, expected YYYY-MM-DD")
	}
	return nil
}

func (s *bookingService) mapLookupError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Booking lookup failed", err)
}

// publish emits a change event keyed by machine so per-machine ordering
// survives partitioning. Publishing is best-effort: a failed event never
// rolls back the write, clients fall back to their poll.
func (s *bookingService) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	key := "bookings"
	if b, ok := payload.(*model.Booking); ok {
		key = b.Machine
	}
	msg, err := kafka.NewMessage(eventType, key, payload)
	if err != nil {
		s.cfg.Log.Warn("failed to encode booking event", "event_type", eventType, "error", err)
		return
	}
	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("failed to publish booking event", "event_type", eventType, "error", err)
	}
}
