package dryer

import (
	"sync"
	"time"

	"laundro/pkg/model"
)

// Scheduler owns the dryer draft and its timers: a debounced validation
// pass and a debounced lock republish after each duration change, plus
// the liveness tick that refreshes remaining-time state. All timers are
// owned here and cancelled deterministically on Close, never left to a
// caller's lifecycle.
type Scheduler struct {
	mu sync.Mutex

	machineID string
	maxHours  int
	debounce  time.Duration
	activePoll time.Duration
	idlePoll   time.Duration
	now        func() time.Time

	selected bool
	user     model.BookingUser
	hours    int
	minutes  int
	window   Window
	err      error

	maintenance []model.MaintenanceInterval

	validateTimer *time.Timer
	publishTimer  *time.Timer
	ticker        *time.Ticker
	tickStop      chan struct{}

	// onValidated receives the debounced validation outcome.
	onValidated func(Window, error)
	// onPublish receives the debounced ephemeral-lock republish.
	onPublish func(model.TempReservation)
	// onTick fires on every liveness poll.
	onTick func()
}

type SchedulerConfig struct {
	MachineID  string
	MaxHours   int
	Debounce   time.Duration
	ActivePoll time.Duration
	IdlePoll   time.Duration
	Now        func() time.Time

	OnValidated func(Window, error)
	OnPublish   func(model.TempReservation)
	OnTick      func()
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		machineID:   cfg.MachineID,
		maxHours:    cfg.MaxHours,
		debounce:    cfg.Debounce,
		activePoll:  cfg.ActivePoll,
		idlePoll:    cfg.IdlePoll,
		now:         cfg.Now,
		onValidated: cfg.OnValidated,
		onPublish:   cfg.OnPublish,
		onTick:      cfg.OnTick,
	}
}

// Select arms the scheduler for the given user with a zero duration.
func (s *Scheduler) Select(user model.BookingUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = true
	s.user = user
	s.hours = 0
	s.minutes = 0
	s.window = Window{}
	s.err = ErrZeroDuration
}

func (s *Scheduler) Selected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetMaintenance refreshes the blackout windows the draft clips against
// and re-validates immediately (authoritative data is never debounced).
func (s *Scheduler) SetMaintenance(maintenance []model.MaintenanceInterval) {
	s.mu.Lock()
	s.maintenance = maintenance
	s.mu.Unlock()
	if s.Selected() {
		s.validateNow()
	}
}

// SetDuration records a keystroke. Validation and lock republish are
// debounced independently so typing does not flood the channel.
func (s *Scheduler) SetDuration(hours, minutes int) {
	s.mu.Lock()
	if !s.selected {
		s.mu.Unlock()
		return
	}
	s.hours = hours
	s.minutes = minutes

	if s.validateTimer != nil {
		s.validateTimer.Stop()
	}
	s.validateTimer = time.AfterFunc(s.debounce, s.validateNow)

	if s.publishTimer != nil {
		s.publishTimer.Stop()
	}
	s.publishTimer = time.AfterFunc(s.debounce, s.publishNow)
	s.mu.Unlock()
}

// Validate computes the current window synchronously, bypassing the
// debounce. Used by the submit gate.
func (s *Scheduler) Validate() (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compute()
}

func (s *Scheduler) compute() (Window, error) {
	w, err := Compute(s.hours, s.minutes, s.maxHours, s.machineID, s.now(), s.maintenance)
	s.window = w
	s.err = err
	return w, err
}

func (s *Scheduler) validateNow() {
	s.mu.Lock()
	if !s.selected {
		s.mu.Unlock()
		return
	}
	w, err := s.compute()
	cb := s.onValidated
	s.mu.Unlock()

	if cb != nil {
		cb(w, err)
	}
}

func (s *Scheduler) publishNow() {
	s.mu.Lock()
	if !s.selected {
		s.mu.Unlock()
		return
	}
	w, err := s.compute()
	cb := s.onPublish
	user := s.user
	now := s.now()
	s.mu.Unlock()

	if err != nil || cb == nil {
		return
	}
	cb(reservation(user, s.machineID, w, now))
}

// Reservation projects the current draft into its broadcast shape, or
// nil while the duration is invalid.
func (s *Scheduler) Reservation() *model.TempReservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selected || s.err != nil {
		return nil
	}
	res := reservation(s.user, s.machineID, s.window, s.now())
	return &res
}

func reservation(user model.BookingUser, machineID string, w Window, now time.Time) model.TempReservation {
	return model.TempReservation{
		UserID:          user.ID,
		UserName:        user.Name,
		Room:            user.Room,
		Machine:         machineID,
		Date:            w.Start.Format("2006-01-02"),
		DurationMinutes: w.DurationMinutes(),
		StartTimestamp:  w.Start,
		EndTimestamp:    w.End,
		UpdatedAt:       now,
	}
}

// SetPolling switches the liveness tick cadence: the faster poll while
// an active dryer booking exists, the slower one while merely selected.
// Passing started=false stops the tick entirely.
func (s *Scheduler) SetPolling(started, activeBooking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTickerLocked()
	if !started {
		return
	}

	interval := s.idlePoll
	if activeBooking {
		interval = s.activePoll
	}

	s.ticker = time.NewTicker(interval)
	s.tickStop = make(chan struct{})
	go func(ticker *time.Ticker, stop chan struct{}) {
		for {
			select {
			case <-ticker.C:
				if s.onTick != nil {
					s.onTick()
				}
			case <-stop:
				return
			}
		}
	}(s.ticker, s.tickStop)
}

func (s *Scheduler) stopTickerLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

// Deselect clears the draft and stops the debounce timers. The caller
// is responsible for broadcasting the matching draft-cancel.
func (s *Scheduler) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = false
	s.hours = 0
	s.minutes = 0
	s.window = Window{}
	s.err = nil
	s.stopTimersLocked()
}

// Close releases every timer. Safe to call more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = false
	s.stopTimersLocked()
	s.stopTickerLocked()
}

func (s *Scheduler) stopTimersLocked() {
	if s.validateTimer != nil {
		s.validateTimer.Stop()
		s.validateTimer = nil
	}
	if s.publishTimer != nil {
		s.publishTimer.Stop()
		s.publishTimer = nil
	}
}
