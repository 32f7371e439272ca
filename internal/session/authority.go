package session

import (
	"context"

	"laundro/pkg/client"
	"laundro/pkg/model"
)

// apiAuthority backs a session with the HTTP API. Cancelled bookings are
// excluded: the availability view only ever renders active ones.
type apiAuthority struct {
	bookings    *client.BookingClient
	maintenance *client.MaintenanceClient
	settings    *client.SettingsClient
}

// NewAPIAuthority returns an Authority that reads and writes through the
// service at baseURL.
func NewAPIAuthority(baseURL string) Authority {
	return &apiAuthority{
		bookings:    client.NewBookingClient(baseURL),
		maintenance: client.NewMaintenanceClient(baseURL),
		settings:    client.NewSettingsClient(baseURL),
	}
}

func (a *apiAuthority) Bookings(ctx context.Context, date string) ([]model.Booking, error) {
	return a.bookings.ListByDate(ctx, date, false)
}

func (a *apiAuthority) Maintenance(ctx context.Context, date string) ([]model.MaintenanceInterval, error) {
	return a.maintenance.ListByDate(ctx, date)
}

func (a *apiAuthority) Settings(ctx context.Context) (*model.Settings, error) {
	return a.settings.Get(ctx)
}

func (a *apiAuthority) CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	return a.bookings.Create(ctx, booking)
}
