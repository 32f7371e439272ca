package service

import (
	"context"
	"errors"

	maintenanceerrors "laundro/internal/maintenance/errors"
	"laundro/internal/maintenance/repository"
	"laundro/pkg/config"
	apperrors "laundro/pkg/errors"
	"laundro/pkg/kafka"
	"laundro/pkg/model"
	"laundro/pkg/timeslot"

	validatorpkg "github.com/go-playground/validator/v10"
)

const (
	EventMaintenanceCreated = "maintenance.created"
	EventMaintenanceDeleted = "maintenance.deleted"
)

type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type MaintenanceService interface {
	Create(ctx context.Context, interval *model.MaintenanceInterval) error
	GetByDate(ctx context.Context, date string) ([]model.MaintenanceInterval, error)
	Delete(ctx context.Context, id string) error
}

type maintenanceService struct {
	repo     repository.MaintenanceRepository
	validate *validatorpkg.Validate
	events   EventPublisher
	cfg      *config.Config
}

func NewMaintenanceService(repo repository.MaintenanceRepository, events EventPublisher, cfg *config.Config) MaintenanceService {
	return &maintenanceService{
		repo:     repo,
		validate: newValidate(cfg),
		events:   events,
		cfg:      cfg,
	}
}

func newValidate(cfg *config.Config) *validatorpkg.Validate {
	v := validatorpkg.New()
	if err := v.RegisterValidation("clock", func(fl validatorpkg.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := timeslot.ToMinutes(s)
		return err == nil
	}); err != nil {
		cfg.Log.Fatal("Failed to register 'clock' validator", "error", err)
	}
	return v
}

// Create stores a blackout window. Overlap with existing bookings is
// intentionally allowed; maintenance wins in the grid and the affected
// users are expected to be cancelled out of band.
func (s *maintenanceService) Create(ctx context.Context, interval *model.MaintenanceInterval) error {
	if err := s.validate.Struct(interval); err != nil {
		return apperrors.Validation("Maintenance validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	start, err1 := timeslot.ToMinutes(interval.StartTime)
	end, err2 := timeslot.ToMinutes(interval.EndTime)
	if err1 != nil || err2 != nil || end <= start {
		return apperrors.Validation(maintenanceerrors.ErrInvalidTimeRange.Error(), nil)
	}
	if !s.knownMachine(interval.Machine) {
		return apperrors.InvalidInput("Unknown machine " + interval.Machine)
	}

	if err := s.repo.Create(ctx, interval); err != nil {
		s.cfg.Log.Error("Failed to create maintenance interval", "error", err)
		return apperrors.Internal("Failed to create maintenance interval", err)
	}

	s.publish(ctx, EventMaintenanceCreated, interval)
	s.cfg.Log.Info("Maintenance interval created",
		"id", interval.ID,
		"machine", interval.Machine,
		"date", interval.Date,
	)
	return nil
}

func (s *maintenanceService) GetByDate(ctx context.Context, date string) ([]model.MaintenanceInterval, error) {
	if date == "" {
		return nil, apperrors.InvalidInput("Date cannot be empty")
	}

	intervals, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		s.cfg.Log.Error("Failed to list maintenance intervals", "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve maintenance intervals", err)
	}
	return intervals, nil
}

func (s *maintenanceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, maintenanceerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Maintenance interval", id)
		}
		if errors.Is(err, maintenanceerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid maintenance interval ID format")
		}
		s.cfg.Log.Error("Failed to delete maintenance interval", "id", id, "error", err)
		return apperrors.Internal("Failed to delete maintenance interval", err)
	}

	s.publish(ctx, EventMaintenanceDeleted, map[string]string{"id": id})
	s.cfg.Log.Info("Maintenance interval deleted", "id", id)
	return nil
}

func (s *maintenanceService) knownMachine(machineID string) bool {
	for _, m := range s.cfg.Machines() {
		if m.ID == machineID {
			return true
		}
	}
	return false
}

func (s *maintenanceService) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	key := "maintenance"
	if m, ok := payload.(*model.MaintenanceInterval); ok {
		key = m.Machine
	}
	msg, err := kafka.NewMessage(eventType, key, payload)
	if err != nil {
		s.cfg.Log.Warn("failed to encode maintenance event", "event_type", eventType, "error", err)
		return
	}
	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("failed to publish maintenance event", "event_type", eventType, "error", err)
	}
}
