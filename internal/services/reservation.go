package services

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultReservationWindow is how long selected tickets are held
const DefaultReservationWindow = 10 * time.Minute

// Reservation is the hold on the selected tickets while the buyer fills in
// the checkout form. When enforced, an expired reservation blocks the
// purchase and releases the cart; otherwise it is only shown to the buyer.
type Reservation struct {
	mu        sync.Mutex
	startedAt time.Time
	window    time.Duration
	enforced  bool
	timer     *time.Timer
	released  bool
	cancelled bool
}

// NewReservation starts a reservation at startedAt
func NewReservation(startedAt time.Time, window time.Duration, enforced bool) *Reservation {
	if window <= 0 {
		window = DefaultReservationWindow
	}
	return &Reservation{startedAt: startedAt, window: window, enforced: enforced}
}

func (r *Reservation) StartedAt() time.Time { return r.startedAt }
func (r *Reservation) Window() time.Duration { return r.window }
func (r *Reservation) Enforced() bool { return r.enforced }
func (r *Reservation) ExpiresAt() time.Time { return r.startedAt.Add(r.window) }

// Remaining returns the time left at now, never negative
func (r *Reservation) Remaining(now time.Time) time.Duration {
	remaining := r.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the window has passed at now
func (r *Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt())
}

// Blocks reports whether the reservation prevents a purchase at now
func (r *Reservation) Blocks(now time.Time) bool {
	return r.enforced && r.Expired(now)
}

// Message is the countdown text shown beside the order summary
func (r *Reservation) Message(now time.Time) string {
	minutes := int(math.Ceil(r.window.Minutes()))
	if r.enforced {
		minutes = int(math.Ceil(r.Remaining(now).Minutes()))
	}
	return fmt.Sprintf("Você tem %d minutos para completar sua compra antes que os ingressos sejam liberados.", minutes)
}

// Watch calls onExpire once when the window elapses, unless Cancel is
// called first. It does nothing for advisory reservations.
func (r *Reservation) Watch(onExpire func()) {
	if !r.enforced {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelled || r.timer != nil {
		return
	}
	r.timer = time.AfterFunc(r.Remaining(time.Now()), func() {
		r.mu.Lock()
		if r.cancelled || r.released {
			r.mu.Unlock()
			return
		}
		r.released = true
		r.mu.Unlock()

		onExpire()
	})
}

// Cancel stops the expiry timer. It is safe to call more than once.
func (r *Reservation) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelled = true
	if r.timer != nil {
		r.timer.Stop()
	}
}

// Released reports whether the expiry callback has run
func (r *Reservation) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}
