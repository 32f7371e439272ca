package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "laundro/pkg/errors"
	"laundro/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL),
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func decodeData[T any](resp *Response) (T, error) {
	var env envelope[T]
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var zero T
		return zero, decodeError(resp)
	}
	if err := resp.DecodeJSON(&env); err != nil {
		var zero T
		return zero, apperrors.StaleState(fmt.Sprintf("malformed response payload: %v", err))
	}
	return env.Data, nil
}

func decodeError(resp *Response) error {
	var errResp struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details,omitempty"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil || errResp.Error == "" {
		return apperrors.Unavailable("booking backend")
	}
	switch resp.StatusCode {
	case http.StatusConflict:
		return apperrors.Conflict(errResp.Error)
	case http.StatusUnprocessableEntity:
		return apperrors.Validation(errResp.Error, errResp.Details)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(errResp.Error)
	case http.StatusNotFound:
		return apperrors.NotFound(errResp.Error)
	case http.StatusForbidden:
		return apperrors.Forbidden(errResp.Error)
	default:
		return apperrors.Internal(errResp.Error, nil)
	}
}

func (c *BookingClient) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings", booking)
	if err != nil {
		return nil, apperrors.Unavailable("booking backend")
	}
	return decodeData[*model.Booking](resp)
}

func (c *BookingClient) ListByDate(ctx context.Context, date string, includeCancelled bool) ([]model.Booking, error) {
	q := url.Values{}
	q.Set("date", date)
	if includeCancelled {
		q.Set("include_cancelled", "true")
	}
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings?"+q.Encode())
	if err != nil {
		return nil, apperrors.Unavailable("booking backend")
	}
	return decodeData[[]model.Booking](resp)
}

func (c *BookingClient) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/users/"+url.PathEscape(userID)+"/bookings")
	if err != nil {
		return nil, apperrors.Unavailable("booking backend")
	}
	return decodeData[[]model.Booking](resp)
}

func (c *BookingClient) Cancel(ctx context.Context, id, cancelledBy, reason string) error {
	body := map[string]string{
		"cancelled_by": cancelledBy,
		"reason":       reason,
	}
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings/"+url.PathEscape(id)+"/cancel", body)
	if err != nil {
		return apperrors.Unavailable("booking backend")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

func (c *BookingClient) Delete(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/bookings/"+url.PathEscape(id))
	if err != nil {
		return apperrors.Unavailable("booking backend")
	}
	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

// DeleteMany permanently removes a whole contiguous block by its original ids.
func (c *BookingClient) DeleteMany(ctx context.Context, ids []string) error {
	body := map[string][]string{"ids": ids}
	resp, err := c.httpClient.DELETEBody(ctx, "/api/v1/bookings", body)
	if err != nil {
		return apperrors.Unavailable("booking backend")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

func (c *BookingClient) Groups(ctx context.Context, date string) ([]model.BookingGroup, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	path := "/api/v1/booking-groups"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, apperrors.Unavailable("booking backend")
	}
	return decodeData[[]model.BookingGroup](resp)
}
