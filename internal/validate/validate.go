package validate

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/mikeyg42/motioncam/internal/config"
)

// Validator collects configuration errors so a bad config reports every
// problem at once instead of the first one found.
type Validator struct{ errors []string }

func (v *Validator) AddError(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}
func (v *Validator) HasErrors() bool  { return len(v.errors) > 0 }
func (v *Validator) Errors() []string { return v.errors }

// ValidateConfig delegates to per-section validators.
func ValidateConfig(cfg *config.Config) error {
	v := &Validator{}

	validateCameraConfig(v, &cfg.Camera)
	validateMotionConfig(v, &cfg.Motion)
	validateRecordingConfig(v, &cfg.Recording)
	validateDeliveryConfig(v, &cfg.Delivery)

	if v.HasErrors() {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(v.Errors(), "\n"))
	}
	return nil
}

func validateCameraConfig(v *Validator, cfg *config.CameraConfig) {
	if cfg.Device < 0 {
		v.AddError("camera: device index must be >= 0, got %d", cfg.Device)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		v.AddError("camera: main resolution must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.SecondaryWidth <= 0 || cfg.SecondaryHeight <= 0 {
		v.AddError("camera: secondary resolution must be positive, got %dx%d",
			cfg.SecondaryWidth, cfg.SecondaryHeight)
	}
	if cfg.SecondaryWidth > cfg.Width || cfg.SecondaryHeight > cfg.Height {
		v.AddError("camera: secondary resolution %dx%d exceeds main %dx%d",
			cfg.SecondaryWidth, cfg.SecondaryHeight, cfg.Width, cfg.Height)
	}
	if cfg.Zoom <= 0 || cfg.Zoom > 1.0 {
		v.AddError("camera: zoom must be in (0, 1], got %g", cfg.Zoom)
	}
	if cfg.Preview.Enabled {
		if cfg.Preview.Width <= 0 || cfg.Preview.Height <= 0 {
			v.AddError("camera: preview size must be positive, got %dx%d",
				cfg.Preview.Width, cfg.Preview.Height)
		}
	}
}

func validateMotionConfig(v *Validator, cfg *config.MotionConfig) {
	if cfg.MinPixelDiff < 0 {
		v.AddError("motion: min pixel diff must be >= 0, got %g", cfg.MinPixelDiff)
	}
	if cfg.HistorySize <= 0 {
		v.AddError("motion: history size must be positive, got %d", cfg.HistorySize)
	}
	if cfg.ReportInterval <= 0 {
		v.AddError("motion: report interval must be positive, got %d", cfg.ReportInterval)
	}
}

func validateRecordingConfig(v *Validator, cfg *config.RecordingConfig) {
	if cfg.Dir == "" {
		v.AddError("recording: directory must not be empty")
	}
	if cfg.MaxLength < 0 {
		v.AddError("recording: max length must be >= 0, got %v", cfg.MaxLength)
	}
	if cfg.RingFrames <= 0 {
		v.AddError("recording: ring frames must be positive, got %d", cfg.RingFrames)
	}
	if cfg.FrameRate <= 0 {
		v.AddError("recording: frame rate must be positive, got %g", cfg.FrameRate)
	}
}

func validateDeliveryConfig(v *Validator, cfg *config.DeliveryConfig) {
	switch cfg.Backend {
	case config.BackendNone:
		return
	case config.BackendSMTP:
		validateAddress(v, "recipient", cfg.Recipient)
		validateAddress(v, "sender username", cfg.Username)
		if cfg.Password == "" {
			v.AddError("delivery: SMTP password must not be empty")
		}
		if cfg.SMTPHost == "" {
			v.AddError("delivery: SMTP host must not be empty")
		}
		if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
			v.AddError("delivery: SMTP port must be in 1..65535, got %d", cfg.SMTPPort)
		}
	case config.BackendGmail:
		validateAddress(v, "recipient", cfg.Recipient)
		if cfg.Gmail.ClientID == "" || cfg.Gmail.ClientSecret == "" {
			v.AddError("delivery: gmail client ID and secret are required")
		}
		if cfg.Gmail.TokenPath == "" {
			v.AddError("delivery: gmail token path must not be empty")
		}
	case config.BackendMinIO:
		if cfg.MinIO.Endpoint == "" {
			v.AddError("delivery: minio endpoint must not be empty")
		}
		if cfg.MinIO.Bucket == "" {
			v.AddError("delivery: minio bucket must not be empty")
		}
		if cfg.MinIO.AccessKeyID == "" || cfg.MinIO.SecretAccessKey == "" {
			v.AddError("delivery: minio credentials are required")
		}
	default:
		v.AddError("delivery: unknown backend %q", cfg.Backend)
	}

	if cfg.Timeout <= 0 {
		v.AddError("delivery: timeout must be positive, got %v", cfg.Timeout)
	}
}

func validateAddress(v *Validator, what, addr string) {
	if addr == "" {
		v.AddError("delivery: %s must not be empty", what)
		return
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		v.AddError("delivery: %s %q is not a valid email address", what, addr)
	}
}
