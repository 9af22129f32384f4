// Package alerts pushes safety events to the operator's phone. The control
// loop posts messages onto a channel and a dispatcher goroutine delivers
// them, so sampling never waits on the SMS gateway.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/twilio"
)

// Dispatcher fans queued alert messages out to the configured notifier.
type Dispatcher struct {
	notifier *notify.Notify
	ch       chan string
}

// NewDispatcherFromEnv builds a dispatcher from the TWILIO_* environment
// variables. Without credentials the dispatcher still runs and alerts are
// logged only.
func NewDispatcherFromEnv() (*Dispatcher, error) {
	twilioAccountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioAuthToken := os.Getenv("TWILIO_AUTH_TOKEN")
	twilioFromPhone := os.Getenv("TWILIO_FROM_PHONE_NO")
	twilioToPhone := os.Getenv("TWILIO_TO_PHONE_NO")

	d := &Dispatcher{ch: make(chan string, 16)}

	if len(twilioAccountSID) != 0 {
		slog.Info("Twilio account information present, configuring notifier")

		twilioService, err := twilio.New(twilioAccountSID, twilioAuthToken, twilioFromPhone)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize the Twilio service: %w", err)
		}
		twilioService.AddReceivers(twilioToPhone)

		notifier := notify.New()
		notifier.UseServices(twilioService)
		d.notifier = notifier
	}

	return d, nil
}

// Post queues an alert without blocking. When the queue is full the message
// is dropped with a log line; a slow SMS gateway must not back up into the
// control loop.
func (d *Dispatcher) Post(message string) {
	select {
	case d.ch <- message:
	default:
		slog.Warn("alert queue full, dropping message", "message", message)
	}
}

// Run delivers queued alerts until the context ends.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Debug(">>alerts.Run")
	defer slog.Debug("<<alerts.Run")

	for {
		select {
		case <-ctx.Done():
			return

		case message := <-d.ch:
			if d.notifier == nil {
				slog.Warn("notifier is not registered, alert logged only", "message", message)
				continue
			}
			if err := d.notifier.Send(ctx, "Irrigation Alert", message); err != nil {
				slog.Error("failed to send alert", "error", err, "message", message)
			}
		}
	}
}
