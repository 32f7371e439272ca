package client

import (
	"context"
	"net/http"
	"net/url"

	apperrors "laundro/pkg/errors"
	"laundro/pkg/model"
)

type MaintenanceClient struct {
	httpClient *HttpClient
}

func NewMaintenanceClient(baseURL string) *MaintenanceClient {
	return &MaintenanceClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *MaintenanceClient) Create(ctx context.Context, interval *model.MaintenanceInterval) (*model.MaintenanceInterval, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/maintenance", interval)
	if err != nil {
		return nil, apperrors.Unavailable("maintenance backend")
	}
	return decodeData[*model.MaintenanceInterval](resp)
}

func (c *MaintenanceClient) ListByDate(ctx context.Context, date string) ([]model.MaintenanceInterval, error) {
	q := url.Values{}
	q.Set("date", date)
	resp, err := c.httpClient.GET(ctx, "/api/v1/maintenance?"+q.Encode())
	if err != nil {
		return nil, apperrors.Unavailable("maintenance backend")
	}
	return decodeData[[]model.MaintenanceInterval](resp)
}

func (c *MaintenanceClient) Delete(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/maintenance/"+url.PathEscape(id))
	if err != nil {
		return apperrors.Unavailable("maintenance backend")
	}
	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}
