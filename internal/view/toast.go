package view

import (
	"sync"
	"time"

	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/events"
)

// Forwarder receives every new toast, e.g. console output.
type Forwarder interface {
	Toast(kind events.ToastKind, message string)
}

// Toast is a transient notification.
type Toast struct {
	ID      int
	Kind    events.ToastKind
	Message string
	Created time.Time
}

// PhaseAt returns the lifecycle phase of the toast at now.
func (t Toast) PhaseAt(now time.Time) events.ToastPhase {
	age := now.Sub(t.Created)
	switch {
	case age < constants.ToastFadeInDelay:
		return events.ToastShown
	case age < constants.ToastVisibleDuration:
		return events.ToastVisible
	case age < constants.ToastVisibleDuration+constants.ToastFadeOutDuration:
		return events.ToastFading
	default:
		return events.ToastRemoved
	}
}

// ActiveToast is a toast together with its current phase.
type ActiveToast struct {
	Toast
	Phase events.ToastPhase
}

// Toaster owns the toast stack. Phases are derived from the clock, so
// callers only need to call Active periodically to drive the animation.
type Toaster struct {
	mu       sync.Mutex
	now      func() time.Time
	eventBus *events.EventBus
	forward  Forwarder
	nextID   int
	toasts   []Toast
	phases   map[int]events.ToastPhase
}

// NewToaster creates a toaster. eventBus and forward may be nil.
func NewToaster(eventBus *events.EventBus, forward Forwarder) *Toaster {
	return &Toaster{
		now:      time.Now,
		eventBus: eventBus,
		forward:  forward,
		phases:   make(map[int]events.ToastPhase),
	}
}

// SetClock replaces the time source. Used by tests.
func (t *Toaster) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Show adds a toast.
func (t *Toaster) Show(kind events.ToastKind, message string) Toast {
	t.mu.Lock()
	t.nextID++
	toast := Toast{ID: t.nextID, Kind: kind, Message: message, Created: t.now()}
	t.toasts = append(t.toasts, toast)
	t.phases[toast.ID] = events.ToastShown
	t.mu.Unlock()

	t.publish(toast, events.ToastShown)
	if t.forward != nil {
		t.forward.Toast(kind, message)
	}
	return toast
}

// Success shows a success toast.
func (t *Toaster) Success(message string) Toast {
	return t.Show(events.ToastSuccess, message)
}

// Error shows an error toast.
func (t *Toaster) Error(message string) Toast {
	return t.Show(events.ToastError, message)
}

// Active returns the toasts still on screen, oldest first. Removed toasts
// are dropped and every phase change since the last call is published.
func (t *Toaster) Active() []ActiveToast {
	t.mu.Lock()
	now := t.now()
	var (
		out     []ActiveToast
		kept    []Toast
		changed []ActiveToast
	)
	for _, toast := range t.toasts {
		phase := toast.PhaseAt(now)
		if t.phases[toast.ID] != phase {
			changed = append(changed, ActiveToast{Toast: toast, Phase: phase})
			t.phases[toast.ID] = phase
		}
		if phase == events.ToastRemoved {
			delete(t.phases, toast.ID)
			continue
		}
		kept = append(kept, toast)
		out = append(out, ActiveToast{Toast: toast, Phase: phase})
	}
	t.toasts = kept
	t.mu.Unlock()

	for _, c := range changed {
		t.publish(c.Toast, c.Phase)
	}
	return out
}

// Pending reports whether any toast is still animating or on screen.
func (t *Toaster) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.toasts) > 0
}

// Drain removes every toast and returns their messages in order.
func (t *Toaster) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.toasts
	t.toasts = nil
	t.phases = make(map[int]events.ToastPhase)
	return out
}

func (t *Toaster) publish(toast Toast, phase events.ToastPhase) {
	if t.eventBus != nil {
		t.eventBus.PublishToast(toast.ID, toast.Kind, toast.Message, phase)
	}
}
