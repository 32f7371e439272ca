package client

import (
	"context"
	"net/url"

	apperrors "laundro/pkg/errors"
	"laundro/pkg/model"
)

type SettingsClient struct {
	httpClient *HttpClient
}

func NewSettingsClient(baseURL string) *SettingsClient {
	return &SettingsClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *SettingsClient) Get(ctx context.Context) (*model.Settings, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/settings")
	if err != nil {
		return nil, apperrors.Unavailable("settings backend")
	}
	return decodeData[*model.Settings](resp)
}

func (c *SettingsClient) SetMachineEnabled(ctx context.Context, machineID string, enabled bool) (*model.Settings, error) {
	body := map[string]bool{"enabled": enabled}
	resp, err := c.httpClient.PATCH(ctx, "/api/v1/settings/machines/"+url.PathEscape(machineID), body)
	if err != nil {
		return nil, apperrors.Unavailable("settings backend")
	}
	return decodeData[*model.Settings](resp)
}

func (c *SettingsClient) SetBlockPastSlots(ctx context.Context, block bool) (*model.Settings, error) {
	body := map[string]bool{"block_past_slots": block}
	resp, err := c.httpClient.PATCH(ctx, "/api/v1/settings/past-slots", body)
	if err != nil {
		return nil, apperrors.Unavailable("settings backend")
	}
	return decodeData[*model.Settings](resp)
}
