package service

import (
	"context"
	"testing"

	"laundro/internal/settings/repository"
	"laundro/pkg/config"
	"laundro/pkg/kafka"
	"laundro/pkg/logger"
	"laundro/pkg/model"
)

type mockSettingsRepository struct {
	stored *model.Settings
	getErr error
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.stored, nil
}

func (m *mockSettingsRepository) Save(ctx context.Context, settings *model.Settings) error {
	m.stored = settings
	return nil
}

type mockPublisher struct {
	published []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
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

func newService(repo repository.SettingsRepository, events EventPublisher) SettingsService {
	return NewSettingsService(repo, events, testConfig())
}

func TestGetDefaults(t *testing.T) {
	svc := newService(&mockSettingsRepository{}, nil)

	settings, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.BlockPastSlots {
		t.Error("defaults must block past slots")
	}
	for _, id := range []string{"washer-1", "washer-2", "dryer"} {
		if !settings.Enabled(id) {
			t.Errorf("machine %s must default to enabled", id)
		}
	}
}

func TestSetMachineEnabled(t *testing.T) {
	repo := &mockSettingsRepository{}
	events := &mockPublisher{}
	svc := newService(repo, events)

	settings, err := svc.SetMachineEnabled(context.Background(), "washer-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Enabled("washer-1") {
		t.Error("washer-1 should be disabled")
	}
	if !settings.Enabled("washer-2") {
		t.Error("other machines must be untouched")
	}
	if repo.stored == nil || repo.stored.Enabled("washer-1") {
		t.Error("toggle must be persisted")
	}
	if len(events.published) != 1 || events.published[0].EventType() != EventSettingsUpdated {
		t.Errorf("expected one settings event, got %d", len(events.published))
	}
}

func TestSetMachineEnabledUnknown(t *testing.T) {
	svc := newService(&mockSettingsRepository{}, nil)

	if _, err := svc.SetMachineEnabled(context.Background(), "washer-9", false); err == nil {
		t.Error("expected rejection of an unknown machine")
	}
}

func TestSetBlockPastSlots(t *testing.T) {
	repo := &mockSettingsRepository{
		stored: &model.Settings{BlockPastSlots: true},
	}
	svc := newService(repo, nil)

	settings, err := svc.SetBlockPastSlots(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.BlockPastSlots {
		t.Error("expected blocking disabled")
	}
	if repo.stored.BlockPastSlots {
		t.Error("toggle must be persisted")
	}
}
