package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/camera"
	"github.com/mikeyg42/motioncam/internal/catalog"
	"github.com/mikeyg42/motioncam/internal/config"
	"github.com/mikeyg42/motioncam/internal/motion"
	"github.com/mikeyg42/motioncam/internal/notification"
	"github.com/mikeyg42/motioncam/internal/pipeline"
	"github.com/mikeyg42/motioncam/internal/recorder"
	"github.com/mikeyg42/motioncam/internal/storage"
	"github.com/mikeyg42/motioncam/internal/validate"
)

// Application holds the wired components so Cleanup can tear them down in
// order.
type Application struct {
	config  *config.Config
	logger  *zap.Logger
	source  *camera.Webcam
	sink    *recorder.VideoSink
	sender  notification.Sender
	catalog *catalog.Store
	loop    *pipeline.Loop
}

func main() {
	cfg := parseFlags()

	logger, err := newLogger(cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := validate.ValidateConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer app.Cleanup()

	if err := app.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("capture loop failed", zap.Error(err))
	}
}

func parseFlags() *config.Config {
	cfg := config.NewDefaultConfig()
	var maxLengthSeconds int

	flag.IntVar(&cfg.Camera.Device, "device", cfg.Camera.Device, "capture device index")
	flag.IntVar(&cfg.Camera.Width, "width", cfg.Camera.Width, "main stream width")
	flag.IntVar(&cfg.Camera.Height, "height", cfg.Camera.Height, "main stream height")
	flag.IntVar(&cfg.Camera.SecondaryWidth, "secondary-width", cfg.Camera.SecondaryWidth, "secondary stream width")
	flag.IntVar(&cfg.Camera.SecondaryHeight, "secondary-height", cfg.Camera.SecondaryHeight, "secondary stream height")
	flag.BoolVar(&cfg.Camera.CaptureSecondary, "capture-secondary", cfg.Camera.CaptureSecondary,
		"run motion analysis on the secondary stream")
	flag.Float64Var(&cfg.Camera.Zoom, "zoom", cfg.Camera.Zoom, "center crop fraction, 1.0 = full frame")
	flag.BoolVar(&cfg.Camera.Preview.Enabled, "preview", cfg.Camera.Preview.Enabled, "show a preview window")
	flag.IntVar(&cfg.Camera.Preview.X, "preview-x", cfg.Camera.Preview.X, "preview window x position")
	flag.IntVar(&cfg.Camera.Preview.Y, "preview-y", cfg.Camera.Preview.Y, "preview window y position")
	flag.IntVar(&cfg.Camera.Preview.Width, "preview-width", cfg.Camera.Preview.Width, "preview window width")
	flag.IntVar(&cfg.Camera.Preview.Height, "preview-height", cfg.Camera.Preview.Height, "preview window height")

	flag.Float64Var(&cfg.Motion.MinPixelDiff, "min-pixel-diff", cfg.Motion.MinPixelDiff,
		"difference score above which a frame counts as motion")

	flag.StringVar(&cfg.Recording.Dir, "recording-dir", cfg.Recording.Dir, "directory for recorded artifacts")
	flag.IntVar(&maxLengthSeconds, "max-recording-length-seconds", 0,
		"cap on a single recording, 0 = unbounded")

	flag.StringVar(&cfg.Delivery.Backend, "delivery-backend", cfg.Delivery.Backend,
		"delivery backend: smtp, gmail, minio or empty for none")
	flag.StringVar(&cfg.Delivery.Recipient, "recipient", cfg.Delivery.Recipient, "delivery recipient address")
	flag.StringVar(&cfg.Delivery.Username, "email-username", cfg.Delivery.Username, "sender email address")
	flag.StringVar(&cfg.Delivery.Password, "email-password", cfg.Delivery.Password, "sender email password")
	flag.StringVar(&cfg.Delivery.SMTPHost, "smtp-server", cfg.Delivery.SMTPHost, "SMTP server host")
	flag.IntVar(&cfg.Delivery.SMTPPort, "smtp-port", cfg.Delivery.SMTPPort, "SMTP server port")
	flag.BoolVar(&cfg.Delivery.DeleteLocal, "delete-local-recordings", cfg.Delivery.DeleteLocal,
		"delete artifacts after the delivery attempt")
	flag.BoolVar(&cfg.Delivery.KeepFailed, "keep-failed", cfg.Delivery.KeepFailed,
		"keep the local artifact when delivery fails")
	flag.BoolVar(&cfg.Delivery.SnapshotOnly, "snapshot-only", cfg.Delivery.SnapshotOnly,
		"deliver the snapshot instead of the video")

	flag.StringVar(&cfg.Delivery.Gmail.ClientID, "gmail-client-id", cfg.Delivery.Gmail.ClientID, "gmail OAuth2 client ID")
	flag.StringVar(&cfg.Delivery.Gmail.ClientSecret, "gmail-client-secret", cfg.Delivery.Gmail.ClientSecret, "gmail OAuth2 client secret")
	flag.StringVar(&cfg.Delivery.Gmail.TokenPath, "gmail-token", cfg.Delivery.Gmail.TokenPath, "path to the gmail OAuth2 token file")

	flag.StringVar(&cfg.Delivery.MinIO.Endpoint, "minio-endpoint", cfg.Delivery.MinIO.Endpoint, "minio endpoint host:port")
	flag.StringVar(&cfg.Delivery.MinIO.AccessKeyID, "minio-access-key", cfg.Delivery.MinIO.AccessKeyID, "minio access key")
	flag.StringVar(&cfg.Delivery.MinIO.SecretAccessKey, "minio-secret-key", cfg.Delivery.MinIO.SecretAccessKey, "minio secret key")
	flag.StringVar(&cfg.Delivery.MinIO.Bucket, "minio-bucket", cfg.Delivery.MinIO.Bucket, "minio bucket for artifacts")
	flag.BoolVar(&cfg.Delivery.MinIO.UseSSL, "minio-ssl", cfg.Delivery.MinIO.UseSSL, "use TLS for minio")

	flag.StringVar(&cfg.Catalog.DSN, "catalog-dsn", cfg.Catalog.DSN,
		"Postgres DSN for the optional session catalog")

	flag.BoolVar(&cfg.Log.Debug, "debug", cfg.Log.Debug, "enable debug logging")
	flag.Parse()

	cfg.Recording.MaxLength = time.Duration(maxLengthSeconds) * time.Second
	return cfg
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewApplication builds the delivery backend, the camera, the recorder and
// the capture loop from the validated configuration.
func NewApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	app := &Application{config: cfg, logger: logger}

	sender, err := newSender(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery backend: %w", err)
	}
	app.sender = sender

	if cfg.Catalog.DSN != "" {
		store, err := catalog.Open(cfg.Catalog.DSN, logger)
		if err != nil {
			app.Cleanup()
			return nil, fmt.Errorf("failed to open session catalog: %w", err)
		}
		app.catalog = store
	}

	source, err := camera.NewWebcam(cfg.Camera, logger)
	if err != nil {
		app.Cleanup()
		return nil, err
	}
	app.source = source

	app.sink = recorder.NewVideoSink(cfg.Recording, logger)

	machine := motion.NewMachine(cfg.Motion.MinPixelDiff, cfg.Recording.MaxLength, cfg.Recording.Dir)
	delivery := notification.NewDelivery(sender, cfg.Delivery, logger)
	controller := pipeline.NewController(machine, app.sink, delivery, app.catalog,
		cfg.Delivery.SnapshotOnly, logger)
	app.loop = pipeline.NewLoop(source, controller, app.sink, cfg.Motion,
		cfg.Camera.CaptureSecondary, logger)

	return app, nil
}

func newSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) (notification.Sender, error) {
	switch cfg.Delivery.Backend {
	case config.BackendNone:
		logger.Info("no delivery backend configured, artifacts stay local")
		return nil, nil
	case config.BackendSMTP:
		return notification.NewSMTPSender(cfg.Delivery, logger), nil
	case config.BackendGmail:
		return notification.NewGmailSender(ctx, cfg.Delivery, logger)
	case config.BackendMinIO:
		return storage.NewMinIOUploader(cfg.Delivery.MinIO, logger)
	default:
		return nil, fmt.Errorf("unknown delivery backend %q", cfg.Delivery.Backend)
	}
}

// Cleanup releases components in reverse dependency order. Safe to call with
// a partially constructed application.
func (app *Application) Cleanup() {
	if app.sink != nil {
		if err := app.sink.Close(); err != nil {
			app.logger.Warn("failed to close recorder", zap.Error(err))
		}
	}
	if app.source != nil {
		if err := app.source.Close(); err != nil {
			app.logger.Warn("failed to close camera", zap.Error(err))
		}
	}
	if app.sender != nil {
		if err := app.sender.Close(); err != nil {
			app.logger.Warn("failed to close delivery backend", zap.Error(err))
		}
	}
	if app.catalog != nil {
		if err := app.catalog.Close(); err != nil {
			app.logger.Warn("failed to close catalog", zap.Error(err))
		}
	}
}
