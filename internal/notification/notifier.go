package notification

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/config"
)

// Sender transmits one finished artifact to the configured recipient.
// Implementations: SMTPSender, GmailSender and storage.MinIOUploader.
type Sender interface {
	Send(ctx context.Context, filePath string) error
	Close() error
}

// Delivery is the adapter between the recording core and a Sender. It makes
// exactly one bounded attempt per artifact, never retries, and applies the
// local-deletion policy afterwards. A nil Sender disables transmission but
// the deletion policy still runs, matching the original tool's behavior of
// cleaning up even when no recipient is configured.
type Delivery struct {
	sender      Sender
	timeout     time.Duration
	deleteLocal bool
	keepFailed  bool
	logger      *zap.Logger
}

// NewDelivery creates the adapter. sender may be nil.
func NewDelivery(sender Sender, cfg config.DeliveryConfig, logger *zap.Logger) *Delivery {
	return &Delivery{
		sender:      sender,
		timeout:     cfg.Timeout,
		deleteLocal: cfg.DeleteLocal,
		keepFailed:  cfg.KeepFailed,
		logger:      logger.Named("delivery"),
	}
}

// Deliver attempts to send the artifact and then applies the deletion
// policy. The send error is returned for the caller's bookkeeping; it must
// not stop the capture loop.
func (d *Delivery) Deliver(ctx context.Context, filePath string) error {
	var sendErr error
	if d.sender != nil {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		sendErr = d.sender.Send(sendCtx, filePath)
		cancel()

		if sendErr != nil {
			d.logger.Error("delivery failed",
				zap.String("file", filePath),
				zap.Error(sendErr))
		} else {
			d.logger.Info("artifact delivered", zap.String("file", filePath))
		}
	}

	if d.deleteLocal {
		if sendErr != nil && d.keepFailed {
			d.logger.Warn("keeping local artifact after failed delivery",
				zap.String("file", filePath))
			return sendErr
		}
		if err := os.Remove(filePath); err != nil {
			d.logger.Warn("failed to delete local artifact",
				zap.String("file", filePath),
				zap.Error(err))
		} else {
			d.logger.Info("deleted local artifact", zap.String("file", filePath))
		}
	}
	return sendErr
}
