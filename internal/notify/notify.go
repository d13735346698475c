// Package notify mirrors dashboard toasts as desktop notifications.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"context"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/logging"
)

const appTitle = "Notes Dashboard"

// Notifier handles desktop notifications.
type Notifier struct {
	logger      *logging.Logger
	enabled     bool
	showSuccess bool
	mu          sync.RWMutex

	// replaced in tests
	notify func(title, message string) error
	alert  func(title, message string) error
	beep   func() error
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowSuccess forwards success toasts. Error toasts are always forwarded.
	ShowSuccess bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		ShowSuccess: true,
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	n := &Notifier{
		logger:      logger,
		enabled:     cfg.Enabled,
		showSuccess: cfg.ShowSuccess,
		notify: func(title, message string) error {
			// beeep.Notify is cross-platform:
			// - Windows: Uses toast notifications
			// - macOS: Uses NSUserNotificationCenter
			// - Linux: Uses D-Bus notifications
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
	return n
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Toast forwards a dashboard toast. Error toasts go out as alerts.
func (n *Notifier) Toast(kind events.ToastKind, message string) {
	if !n.IsEnabled() {
		return
	}
	if kind == events.ToastError {
		n.Alert(message)
		return
	}
	if !n.showSuccess {
		return
	}
	if err := n.notify(appTitle, truncate(message, 200)); err != nil {
		n.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to send desktop notification")
	}
}

// Watch forwards toasts published on eventBus from its own goroutine, so
// desktop calls never run on the publisher's goroutine. It stops when ctx
// is done or the bus closes; the returned channel is closed then.
func (n *Notifier) Watch(ctx context.Context, eventBus *events.EventBus) <-chan struct{} {
	ch := eventBus.Subscribe(events.EventToast)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer eventBus.Unsubscribe(events.EventToast, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				// Later phases of the same toast are not forwarded
				if t, isToast := ev.(*events.ToastEvent); isToast && t.Phase == events.ToastShown {
					n.Toast(t.Kind, t.Message)
				}
			}
		}
	}()
	return done
}

// Alert sends an alert notification (error level).
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	title := appTitle + " Alert"
	message = truncate(message, 200)

	// Use beeep.Alert which shows a more prominent notification on some platforms
	if err := n.alert(title, message); err != nil {
		// Fall back to regular notify
		if err := n.notify(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// Beep sends an audible beep notification.
func (n *Notifier) Beep() {
	if !n.IsEnabled() {
		return
	}
	_ = n.beep()
}

// ParseNotifyConfig parses notification settings from a key/value section.
// Expected keys: enabled, show_success
func ParseNotifyConfig(settings map[string]string) *Config {
	cfg := DefaultConfig()

	if v, ok := settings["enabled"]; ok {
		cfg.Enabled = strings.ToLower(v) == "true"
	}
	if v, ok := settings["show_success"]; ok {
		cfg.ShowSuccess = strings.ToLower(v) == "true"
	}

	return cfg
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
