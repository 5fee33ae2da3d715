package notification

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mikeyg42/motioncam/internal/config"
)

// GmailSender delivers artifacts through the Gmail API. The OAuth2 token is
// provisioned out of band (a one-time browser consent flow) and read from
// the configured token file; the token source refreshes it as needed.
type GmailSender struct {
	svc       *gmail.Service
	recipient string
	from      string
	logger    *zap.Logger
}

// NewGmailSender builds the Gmail API client from the app credentials and
// the stored token. A missing or unreadable token is a startup error.
func NewGmailSender(ctx context.Context, cfg config.DeliveryConfig, logger *zap.Logger) (*GmailSender, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}

	token, err := loadToken(cfg.Gmail.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load gmail token: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailSender{
		svc:       svc,
		recipient: cfg.Recipient,
		from:      cfg.Username,
		logger:    logger.Named("gmail"),
	}, nil
}

// Send transmits the artifact as a raw MIME message via users.messages.send.
func (g *GmailSender) Send(ctx context.Context, filePath string) error {
	from := g.from
	if from == "" {
		from = "me"
	}
	msg, err := BuildAttachmentMessage(
		from,
		g.recipient,
		motionSubject(time.Now()),
		motionBody(filepath.Base(filePath)),
		filePath,
	)
	if err != nil {
		return err
	}

	_, err = g.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(msg),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send failed: %w", err)
	}
	return nil
}

// Close is a no-op; the service client holds no persistent connection state
// that needs explicit teardown.
func (g *GmailSender) Close() error { return nil }

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("token file %s is not valid JSON: %w", path, err)
	}
	return &token, nil
}
