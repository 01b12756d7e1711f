// Package notify delivers booking notifications to customers' messaging pipeline.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// Notifier sends a single booking notification.
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

// LogNotifier writes notifications to the log. It is used when no broker is configured.
type LogNotifier struct{}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the notification and never fails.
func (l *LogNotifier) Send(ctx context.Context, n model.Notification) error {
	log.Info().
		Str("event", string(n.Event)).
		Str("booking_id", n.BookingID.String()).
		Str("email", n.Email).
		Str("trek_key", n.TrekKey).
		Str("trek_date", n.TrekDate).
		Str("status", string(n.Status)).
		Msg("booking notification")
	return nil
}
