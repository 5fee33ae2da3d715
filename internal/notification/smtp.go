package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/config"
)

// SMTPSender delivers artifacts as email attachments over implicit-TLS SMTP
// (the classic port 465 transport the original tool used).
type SMTPSender struct {
	cfg    config.DeliveryConfig
	logger *zap.Logger
}

// NewSMTPSender creates the sender. Credentials were validated at startup.
func NewSMTPSender(cfg config.DeliveryConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger.Named("smtp")}
}

// Send transmits the artifact to the configured recipient. The context
// deadline bounds the whole exchange including the TLS dial.
func (s *SMTPSender) Send(ctx context.Context, filePath string) error {
	msg, err := BuildAttachmentMessage(
		s.cfg.Username,
		s.cfg.Recipient,
		motionSubject(time.Now()),
		motionBody(filepath.Base(filePath)),
		filePath,
	)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: s.cfg.SMTPHost})
	client, err := smtp.NewClient(tlsConn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP handshake with %s failed: %w", addr, err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.cfg.Username); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	if err := client.Rcpt(s.cfg.Recipient); err != nil {
		return fmt.Errorf("RCPT TO rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		// The message was accepted; a failed QUIT is not a delivery failure.
		s.logger.Debug("SMTP quit failed", zap.Error(err))
	}
	return nil
}

// Close is a no-op; each Send uses its own connection.
func (s *SMTPSender) Close() error { return nil }
