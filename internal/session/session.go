// Package session is the per-client coordination engine. One Session
// represents one connected user: it owns their washer draft, their
// dryer draft, the foreign-lock table and the rendered grid, and it
// serializes every mutation through a single event loop so the pieces
// never race each other.
//
// The session talks to two ports. Authority is the backend read/write
// path and is always right; Transport is the advisory broadcast channel
// peers share. Anything suspicious coming off the transport makes the
// session re-fetch from the authority rather than trust the payload.
package session

import (
	"context"
	"errors"
	"time"

	"laundro/internal/draft"
	"laundro/internal/dryer"
	"laundro/internal/grid"
	"laundro/internal/locks"
	apperrors "laundro/pkg/errors"
	"laundro/pkg/logger"
	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

// Authority is the backend the session reads grid inputs from and
// submits bookings to. pkg/client provides the HTTP implementation.
type Authority interface {
	Bookings(ctx context.Context, date string) ([]model.Booking, error)
	Maintenance(ctx context.Context, date string) ([]model.MaintenanceInterval, error)
	Settings(ctx context.Context) (*model.Settings, error)
	CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error)
}

// Transport sends broadcast events to peers. Incoming events are pushed
// into the session via Deliver.
type Transport interface {
	Send(ev locks.Event) error
}

var (
	ErrClosed       = errors.New("session is closed")
	ErrNotClickable = errors.New("slot is not selectable")
	ErrEmptyDraft   = errors.New("nothing selected to submit")
	ErrNotApproved  = errors.New("user is not approved to book")
)

type Config struct {
	User     model.BookingUser
	Machines []model.Machine
	Date     string

	DryerMachineID  string
	DryerMaxHours   int
	Debounce        time.Duration
	DryerActivePoll time.Duration
	DryerIdlePoll   time.Duration

	Authority Authority
	Transport Transport
	Logger    *logger.Logger
	Now       func() time.Time

	// OnGrid receives every grid rebuild. Called from the session
	// goroutine; keep it fast.
	OnGrid func(grid.Grid)
}

type Session struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	draft *draft.Draft
	table *locks.Table
	dryer *dryer.Scheduler

	date        string
	bookings    []model.Booking
	maintenance []model.MaintenanceInterval
	settings    model.Settings

	// publishTimer debounces washer draft-update broadcasts.
	publishTimer *time.Timer

	commands chan func(ctx context.Context)
	done     chan struct{}
}

func New(cfg Config) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Date == "" {
		cfg.Date = timeslot.Date(cfg.Now())
	}

	s := &Session{
		cfg:      cfg,
		log:      cfg.Logger,
		now:      cfg.Now,
		draft:    draft.New(),
		table:    locks.NewTable(cfg.User.ID),
		date:     cfg.Date,
		commands: make(chan func(ctx context.Context), 64),
		done:     make(chan struct{}),
	}
	s.dryer = dryer.NewScheduler(dryer.SchedulerConfig{
		MachineID:   cfg.DryerMachineID,
		MaxHours:    cfg.DryerMaxHours,
		Debounce:    cfg.Debounce,
		ActivePoll:  cfg.DryerActivePoll,
		IdlePoll:    cfg.DryerIdlePoll,
		Now:         cfg.Now,
		OnPublish:   func(res model.TempReservation) { s.post(func(context.Context) { s.broadcastUpdate(&res) }) },
		OnValidated: func(dryer.Window, error) { s.post(func(context.Context) { s.render() }) },
		OnTick:      func() { s.post(func(ctx context.Context) { s.refresh(ctx) }) },
	})
	return s
}

// Run drives the event loop until ctx is cancelled. On startup it loads
// authoritative state and requests a lock sync from peers; on shutdown
// it withdraws any in-flight draft so peers do not keep a dead hold.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	defer s.teardown()

	s.refresh(ctx)
	s.send(locks.NewSyncRequest(s.cfg.User.ID))
	s.render()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			cmd(ctx)
		}
	}
}

// teardown runs inside the loop goroutine after Run's context ends.
func (s *Session) teardown() {
	if s.publishTimer != nil {
		s.publishTimer.Stop()
	}
	holding := !s.draft.Empty() || s.dryer.Selected()
	s.dryer.Close()
	if holding {
		s.send(locks.NewDraftCancel(s.cfg.User.ID))
	}
}

// post enqueues work onto the loop without ever blocking: timer
// callbacks post from inside the loop goroutine itself, where waiting
// on a full queue would deadlock. Dropped work is recomputed on the
// next event, and events arriving after shutdown are dropped anyway;
// peers discover the absence through the next sync.
func (s *Session) post(cmd func(ctx context.Context)) {
	select {
	case s.commands <- cmd:
	case <-s.done:
	default:
		s.log.Warn("command queue full, dropping posted work")
	}
}

// ask posts a command and waits for it to run, so callers observe the
// loop's state synchronously.
func (s *Session) ask(cmd func(ctx context.Context) error) error {
	result := make(chan error, 1)
	select {
	case s.commands <- func(ctx context.Context) { result <- cmd(ctx) }:
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// Deliver feeds one broadcast event into the session. Safe to call from
// any goroutine.
func (s *Session) Deliver(ev locks.Event) {
	s.post(func(ctx context.Context) { s.handleEvent(ctx, ev) })
}

func (s *Session) handleEvent(ctx context.Context, ev locks.Event) {
	switch ev.Type {
	case locks.EventBookingChanged, locks.EventMaintenanceChanged, locks.EventSettingsChanged:
		s.refresh(ctx)
		s.render()
		return

	case locks.EventSyncRequest:
		if ev.UserID == s.cfg.User.ID {
			return
		}
		snapshot := s.table.Snapshot(s.ownReservation())
		s.send(locks.NewSyncResponse(s.cfg.User.ID, snapshot))
		return
	}

	changed, err := s.table.Apply(ev)
	if err != nil {
		// Malformed payloads mean our picture may be stale; the
		// authority is the only safe source to rebuild from.
		s.log.Warn("rejected broadcast event, refetching",
			"event_type", string(ev.Type), "error", err)
		s.refresh(ctx)
		s.render()
		return
	}
	if changed {
		s.render()
	}
}

// refresh reloads bookings, maintenance and settings from the authority
// for the current date. Partial failures keep the previous copy of the
// failed input.
func (s *Session) refresh(ctx context.Context) {
	if bookings, err := s.cfg.Authority.Bookings(ctx, s.date); err != nil {
		s.log.Error("refresh bookings failed", "date", s.date, "error", err)
	} else {
		s.bookings = bookings
	}

	if maintenance, err := s.cfg.Authority.Maintenance(ctx, s.date); err != nil {
		s.log.Error("refresh maintenance failed", "date", s.date, "error", err)
	} else {
		s.maintenance = maintenance
		s.dryer.SetMaintenance(s.dryerMaintenance(maintenance))
	}

	if settings, err := s.cfg.Authority.Settings(ctx); err != nil {
		s.log.Error("refresh settings failed", "error", err)
	} else if settings != nil {
		s.settings = *settings
	}

	// An active booking keeps the fast tick alive even after the draft
	// that created it has been withdrawn.
	activeBooking := dryer.ActiveBooking(s.bookings, s.cfg.DryerMachineID, s.now()) != nil
	s.dryer.SetPolling(s.dryer.Selected() || activeBooking, activeBooking)
}

// dryerMaintenance narrows the day's maintenance list to the dryer's
// own windows for clipping.
func (s *Session) dryerMaintenance(all []model.MaintenanceInterval) []model.MaintenanceInterval {
	var out []model.MaintenanceInterval
	for _, m := range all {
		if m.Machine == s.cfg.DryerMachineID {
			out = append(out, m)
		}
	}
	return out
}

func (s *Session) render() {
	if s.cfg.OnGrid == nil {
		return
	}
	s.cfg.OnGrid(grid.Build(grid.Input{
		Date:        s.date,
		Now:         s.now(),
		Machines:    s.cfg.Machines,
		Settings:    s.settings,
		Bookings:    s.bookings,
		Maintenance: s.maintenance,
		Foreign:     s.table.Foreign(),
		Draft:       s.ownReservation(),
	}))
}

// ownReservation is the user's current draft in wire shape, whichever
// machine kind it targets, or nil.
func (s *Session) ownReservation() *model.TempReservation {
	if res := s.draft.Reservation(s.cfg.User, s.now()); res != nil {
		return res
	}
	return s.dryer.Reservation()
}

func (s *Session) send(ev locks.Event) {
	if s.cfg.Transport == nil {
		return
	}
	if err := s.cfg.Transport.Send(ev); err != nil {
		s.log.Warn("broadcast send failed", "event_type", string(ev.Type), "error", err)
	}
}

func (s *Session) broadcastUpdate(res *model.TempReservation) {
	if res == nil {
		return
	}
	s.send(locks.NewDraftUpdate(*res))
}

// schedulePublish debounces the washer draft-update broadcast so rapid
// clicking produces one event, not one per click.
func (s *Session) schedulePublish() {
	if s.publishTimer != nil {
		s.publishTimer.Stop()
	}
	s.publishTimer = time.AfterFunc(s.cfg.Debounce, func() {
		s.post(func(context.Context) {
			s.broadcastUpdate(s.draft.Reservation(s.cfg.User, s.now()))
		})
	})
}

// SetDate switches the viewed day. Any in-flight washer draft is
// withdrawn first; a dryer draft survives since it is anchored to now.
func (s *Session) SetDate(date string) error {
	return s.ask(func(ctx context.Context) error {
		if _, err := time.Parse(timeslot.DateLayout, date); err != nil {
			return apperrors.InvalidInput("invalid date " + date)
		}
		if !s.draft.Empty() {
			s.cancelWasherDraft()
		}
		s.date = date
		s.refresh(ctx)
		s.render()
		return nil
	})
}

// Date returns the currently viewed day.
func (s *Session) Date() string {
	var date string
	_ = s.ask(func(context.Context) error {
		date = s.date
		return nil
	})
	return date
}

// ToggleSlot applies one washer grid click: start, extend, or truncate
// the draft per the contiguity rules. Selecting a washer slot while a
// dryer draft is open withdraws the dryer draft first.
func (s *Session) ToggleSlot(slotIndex int, machineID string) error {
	return s.ask(func(ctx context.Context) error {
		g := grid.Build(grid.Input{
			Date:        s.date,
			Now:         s.now(),
			Machines:    s.cfg.Machines,
			Settings:    s.settings,
			Bookings:    s.bookings,
			Maintenance: s.maintenance,
			Foreign:     s.table.Foreign(),
			Draft:       s.ownReservation(),
		})
		if !g.Clickable(slotIndex, machineID, s.draft.Machine()) {
			return ErrNotClickable
		}

		if s.dryer.Selected() {
			s.cancelDryerDraft()
		}

		span := timeslot.DaySpans()[slotIndex]
		if err := s.draft.Toggle(machineID, s.date, span, s.table); err != nil {
			return err
		}

		if s.draft.Empty() {
			// Truncated to nothing; withdraw immediately, not debounced.
			if s.publishTimer != nil {
				s.publishTimer.Stop()
			}
			s.send(locks.NewDraftCancel(s.cfg.User.ID))
		} else {
			s.schedulePublish()
		}
		s.render()
		return nil
	})
}

// SelectDryer opens a dryer draft after the selectability gate passes.
// An open washer draft is withdrawn first.
func (s *Session) SelectDryer() error {
	return s.ask(func(ctx context.Context) error {
		// Dryer runs start at "now", so the view must be on today
		// before the gate looks at bookings and maintenance.
		if today := timeslot.Date(s.now()); s.date != today {
			if !s.draft.Empty() {
				s.cancelWasherDraft()
			}
			s.date = today
			s.refresh(ctx)
		}

		err := dryer.Selectable(
			s.settings.Enabled(s.cfg.DryerMachineID),
			s.bookings,
			s.maintenance,
			s.table.Holder(s.cfg.DryerMachineID, s.date),
			s.cfg.DryerMachineID,
			s.now(),
		)
		if err != nil {
			return err
		}

		if !s.draft.Empty() {
			s.cancelWasherDraft()
		}
		s.dryer.Select(s.cfg.User)
		s.dryer.SetMaintenance(s.dryerMaintenance(s.maintenance))
		s.dryer.SetPolling(true,
			dryer.ActiveBooking(s.bookings, s.cfg.DryerMachineID, s.now()) != nil)
		s.render()
		return nil
	})
}

// SetDryerDuration records a duration keystroke; validation and the
// lock republish follow after the debounce.
func (s *Session) SetDryerDuration(hours, minutes int) {
	s.post(func(context.Context) {
		s.dryer.SetDuration(hours, minutes)
	})
}

// Cancel withdraws whatever draft is open and tells peers.
func (s *Session) Cancel() error {
	return s.ask(func(context.Context) error {
		if s.draft.Empty() && !s.dryer.Selected() {
			return nil
		}
		s.cancelWasherDraft()
		s.cancelDryerDraft()
		s.render()
		return nil
	})
}

func (s *Session) cancelWasherDraft() {
	if s.publishTimer != nil {
		s.publishTimer.Stop()
	}
	if s.draft.Empty() {
		return
	}
	s.draft.Clear()
	s.send(locks.NewDraftCancel(s.cfg.User.ID))
}

func (s *Session) cancelDryerDraft() {
	if !s.dryer.Selected() {
		return
	}
	s.dryer.Deselect()
	s.send(locks.NewDraftCancel(s.cfg.User.ID))
}

// Submit commits the open draft to the authority as a single booking:
// the washer run's min-start/max-end, or the dryer duration. On
// success the draft is withdrawn and authoritative state reloaded; a
// conflict also forces a reload so the user sees who won.
func (s *Session) Submit(ctx context.Context) error {
	return s.ask(func(loopCtx context.Context) error {
		_ = loopCtx
		if !s.cfg.User.Approved {
			return ErrNotApproved
		}
		switch {
		case !s.draft.Empty():
			return s.submitWasher(ctx)
		case s.dryer.Selected():
			return s.submitDryer(ctx)
		default:
			return ErrEmptyDraft
		}
	})
}

func (s *Session) submitWasher(ctx context.Context) error {
	machine := s.draft.Machine()
	date := s.draft.Date()
	span, _ := s.draft.Range()

	// The whole contiguous run goes out as one booking request; a
	// failure therefore commits nothing and the kept draft stays
	// consistent with the backend.
	booking := &model.Booking{
		Machine:   machine,
		Date:      date,
		StartTime: timeslot.ToClock(span.Start),
		EndTime:   timeslot.ToClock(span.End),
		User:      s.cfg.User,
		Status:    model.BookingActive,
	}
	saved, err := s.cfg.Authority.CreateBooking(ctx, booking)
	if err != nil {
		s.log.Warn("booking submit failed",
			"machine", machine, "start", booking.StartTime, "error", err)
		s.refresh(ctx)
		s.render()
		return err
	}

	s.log.Info("draft submitted",
		"machine", machine, "date", date,
		"start", booking.StartTime, "end", booking.EndTime, "id", saved.ID)
	s.cancelWasherDraft()
	s.refresh(ctx)
	s.render()
	return nil
}

func (s *Session) submitDryer(ctx context.Context) error {
	// The gate that admitted SelectDryer can have flipped since: a
	// peer's lock or a fresh booking arriving mid-draft blocks the
	// submit, not just the selection.
	if err := dryer.Selectable(
		s.settings.Enabled(s.cfg.DryerMachineID),
		s.bookings,
		s.maintenance,
		s.table.Holder(s.cfg.DryerMachineID, s.date),
		s.cfg.DryerMachineID,
		s.now(),
	); err != nil {
		return err
	}

	w, err := s.dryer.Validate()
	if err != nil {
		return err
	}

	booking := &model.Booking{
		Machine:         s.cfg.DryerMachineID,
		Date:            timeslot.Date(w.Start),
		StartTime:       clockOf(w.Start),
		EndTime:         clockOf(w.End),
		DurationMinutes: w.DurationMinutes(),
		User:            s.cfg.User,
		Status:          model.BookingActive,
	}
	if _, err := s.cfg.Authority.CreateBooking(ctx, booking); err != nil {
		s.refresh(ctx)
		s.render()
		return err
	}

	s.log.Info("dryer run booked",
		"start", booking.StartTime, "duration_minutes", booking.DurationMinutes)
	s.cancelDryerDraft()
	s.refresh(ctx)
	s.render()
	return nil
}

func clockOf(t time.Time) string {
	return timeslot.ToClock(timeslot.MinutesOfDay(t))
}

// DraftState is a read-only snapshot of the open draft for rendering
// the selection summary.
type DraftState struct {
	Machine   string
	Date      string
	Slots     []timeslot.Span
	DryerOpen bool
}

func (s *Session) Draft() DraftState {
	var state DraftState
	_ = s.ask(func(context.Context) error {
		state = DraftState{
			Machine:   s.draft.Machine(),
			Date:      s.draft.Date(),
			Slots:     s.draft.Slots(),
			DryerOpen: s.dryer.Selected(),
		}
		return nil
	})
	return state
}
