package config

import "time"

// Config holds all application configuration. It is assembled once at
// startup (flags in cmd/motioncam) and never mutated afterwards.
type Config struct {
	Camera    CameraConfig
	Motion    MotionConfig
	Recording RecordingConfig
	Delivery  DeliveryConfig
	Catalog   CatalogConfig
	Log       LogConfig
}

// CameraConfig describes the capture device and its two streams. The main
// stream is full resolution; the secondary stream is a downscaled copy that
// is cheaper to difference.
type CameraConfig struct {
	Device          int
	Width           int
	Height          int
	SecondaryWidth  int
	SecondaryHeight int

	// Zoom crops the center of the sensor image. 1.0 is the full frame,
	// 0.5 keeps the middle half of each dimension (2x zoom).
	Zoom float64

	// CaptureSecondary selects the secondary stream for motion analysis.
	CaptureSecondary bool

	Preview PreviewConfig
}

// PreviewConfig controls the optional on-screen preview window.
type PreviewConfig struct {
	Enabled bool
	X       int
	Y       int
	Width   int
	Height  int
}

// MotionConfig tunes the difference estimator and its diagnostics.
type MotionConfig struct {
	// MinPixelDiff is the histogram-difference score above which a frame
	// counts as motion.
	MinPixelDiff float64

	// HistorySize bounds the diagnostic score ring.
	HistorySize int

	// ReportInterval is the number of ticks between diagnostic snapshots.
	ReportInterval int
}

// RecordingConfig controls the recorder sink and artifact placement.
type RecordingConfig struct {
	Dir string

	// MaxLength caps a single recording. Zero means unbounded.
	MaxLength time.Duration

	// RingFrames sizes the rolling pre-motion frame buffer.
	RingFrames int

	FrameRate float64
}

// Delivery backends.
const (
	BackendNone  = ""
	BackendSMTP  = "smtp"
	BackendGmail = "gmail"
	BackendMinIO = "minio"
)

// DeliveryConfig selects and configures the artifact delivery transport.
type DeliveryConfig struct {
	Backend string

	Recipient string
	Username  string
	Password  string
	SMTPHost  string
	SMTPPort  int

	// Timeout bounds a single delivery attempt.
	Timeout time.Duration

	// DeleteLocal removes the artifact after the delivery attempt.
	DeleteLocal bool

	// KeepFailed skips local deletion when the delivery attempt failed,
	// so a failed send does not also lose the only copy.
	KeepFailed bool

	// SnapshotOnly delivers the still image instead of the video.
	SnapshotOnly bool

	Gmail GmailConfig
	MinIO MinIOConfig
}

// GmailConfig holds OAuth2 app credentials and the token file provisioned
// out of band (the token is created once with a browser flow elsewhere).
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	TokenPath    string
}

// MinIOConfig configures the object-storage delivery backend.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
	Region          string
	MaxRetries      int
}

// CatalogConfig enables the optional session catalog when DSN is non-empty.
type CatalogConfig struct {
	DSN string
}

// LogConfig controls logging verbosity.
type LogConfig struct {
	Debug bool
}

// NewDefaultConfig returns a Config with default values matching a
// Raspberry Pi camera watching a room.
func NewDefaultConfig() *Config {
	return &Config{
		Camera: CameraConfig{
			Device:          0,
			Width:           1280,
			Height:          720,
			SecondaryWidth:  320,
			SecondaryHeight: 240,
			Zoom:            1.0,
			Preview: PreviewConfig{
				X:      100,
				Y:      200,
				Width:  800,
				Height: 600,
			},
		},
		Motion: MotionConfig{
			MinPixelDiff:   7.2,
			HistorySize:    1000,
			ReportInterval: 100,
		},
		Recording: RecordingConfig{
			Dir:        "./recordings/",
			RingFrames: 90,
			FrameRate:  30,
		},
		Delivery: DeliveryConfig{
			Backend:    BackendNone,
			SMTPHost:   "smtp.gmail.com",
			SMTPPort:   465,
			Timeout:    10 * time.Second,
			KeepFailed: true,
			MinIO: MinIOConfig{
				Bucket:     "recordings",
				Region:     "us-east-1",
				MaxRetries: 3,
			},
		},
	}
}
