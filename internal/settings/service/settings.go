package service

import (
	"context"

	"laundro/internal/settings/repository"
	"laundro/pkg/config"
	apperrors "laundro/pkg/errors"
	"laundro/pkg/kafka"
	"laundro/pkg/model"
)

const (
	EventSettingsUpdated = "settings.updated"
)

type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type SettingsService interface {
	Get(ctx context.Context) (*model.Settings, error)
	SetMachineEnabled(ctx context.Context, machineID string, enabled bool) (*model.Settings, error)
	SetBlockPastSlots(ctx context.Context, block bool) (*model.Settings, error)
}

type settingsService struct {
	repo   repository.SettingsRepository
	events EventPublisher
	cfg    *config.Config
}

func NewSettingsService(repo repository.SettingsRepository, events EventPublisher, cfg *config.Config) SettingsService {
	return &settingsService{
		repo:   repo,
		events: events,
		cfg:    cfg,
	}
}

// Get returns the stored settings, or the defaults (every machine
// enabled, past slots blocked) before any have been saved.
func (s *settingsService) Get(ctx context.Context) (*model.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load settings", "error", err)
		return nil, apperrors.Internal("Failed to load settings", err)
	}
	if settings == nil {
		settings = s.defaults()
	}
	return settings, nil
}

func (s *settingsService) SetMachineEnabled(ctx context.Context, machineID string, enabled bool) (*model.Settings, error) {
	if !s.knownMachine(machineID) {
		return nil, apperrors.InvalidInput("Unknown machine " + machineID)
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Machines == nil {
		settings.Machines = make(map[string]bool)
	}
	settings.Machines[machineID] = enabled

	if err := s.save(ctx, settings); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Machine toggled", "machine", machineID, "enabled", enabled)
	return settings, nil
}

func (s *settingsService) SetBlockPastSlots(ctx context.Context, block bool) (*model.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	settings.BlockPastSlots = block

	if err := s.save(ctx, settings); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Past-slot blocking toggled", "block_past_slots", block)
	return settings, nil
}

func (s *settingsService) save(ctx context.Context, settings *model.Settings) error {
	if err := s.repo.Save(ctx, settings); err != nil {
		s.cfg.Log.Error("Failed to save settings", "error", err)
		return apperrors.Internal("Failed to save settings", err)
	}
	s.publish(ctx, settings)
	return nil
}

func (s *settingsService) defaults() *model.Settings {
	machines := make(map[string]bool)
	for _, m := range s.cfg.Machines() {
		machines[m.ID] = true
	}
	return &model.Settings{
		Machines:       machines,
		BlockPastSlots: true,
	}
}

func (s *settingsService) knownMachine(machineID string) bool {
	for _, m := range s.cfg.Machines() {
		if m.ID == machineID {
			return true
		}
	}
	return false
}

func (s *settingsService) publish(ctx context.Context, settings *model.Settings) {
	if s.events == nil {
		return
	}
	msg, err := kafka.NewMessage(EventSettingsUpdated, "settings", settings)
	if err != nil {
		s.cfg.Log.Warn("failed to encode settings event", "error", err)
		return
	}
	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("failed to publish settings event", "error", err)
	}
}
