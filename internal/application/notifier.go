package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/roombooking/internal/logging"
)

// LogNotifier records invitations in the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier that logs through logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: defaultLogger(logger)}
}

// Notify logs the invitation.
func (n *LogNotifier) Notify(ctx context.Context, email string, summary BookingSummary) error {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = n.logger
	}
	logger.Info("booking invitation",
		zap.String("email", email),
		zap.Int64("booking_id", summary.BookingID),
		zap.Int64("room_id", summary.ResourceID),
		zap.String("title", summary.Title),
		zap.Time("start", summary.Start),
		zap.Time("end", summary.End),
		zap.String("organizer", summary.Organizer),
	)
	return nil
}
