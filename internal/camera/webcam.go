package camera

import (
	"fmt"
	"image"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/mikeyg42/motioncam/internal/config"
)

const openAttempts = 5

// Webcam is a gocv-backed Source. It reads BGR frames from the device,
// converts them to luma and serves either the full-resolution main stream or
// the downscaled secondary stream.
type Webcam struct {
	cfg     config.CameraConfig
	capture *gocv.VideoCapture
	logger  *zap.Logger

	// Reused between captures to avoid per-frame Mat allocation.
	raw  gocv.Mat
	gray gocv.Mat

	preview *gocv.Window
}

// NewWebcam opens the capture device. The open is retried with exponential
// backoff; if the device still cannot be opened this is a fatal startup
// error and propagates to the caller.
func NewWebcam(cfg config.CameraConfig, logger *zap.Logger) (*Webcam, error) {
	var capture *gocv.VideoCapture

	op := func() error {
		var err error
		capture, err = gocv.OpenVideoCapture(cfg.Device)
		if err != nil {
			logger.Warn("camera open failed, retrying", zap.Int("device", cfg.Device), zap.Error(err))
			return err
		}
		return nil
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), openAttempts)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("failed to open camera device %d: %w", cfg.Device, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	w := &Webcam{
		cfg:     cfg,
		capture: capture,
		logger:  logger,
		raw:     gocv.NewMat(),
		gray:    gocv.NewMat(),
	}

	if cfg.Preview.Enabled {
		w.preview = gocv.NewWindow("motioncam")
		w.preview.MoveWindow(cfg.Preview.X, cfg.Preview.Y)
		w.preview.ResizeWindow(cfg.Preview.Width, cfg.Preview.Height)
	}

	logger.Info("camera opened",
		zap.Int("device", cfg.Device),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Float64("zoom", cfg.Zoom))

	return w, nil
}

// Capture reads one frame from the device and returns its luma plane for
// the requested stream. Errors are transient; the caller may simply try
// again on the next tick.
func (w *Webcam) Capture(stream Stream) (Frame, error) {
	if ok := w.capture.Read(&w.raw); !ok {
		return Frame{}, fmt.Errorf("camera device %d returned no frame", w.cfg.Device)
	}
	if w.raw.Empty() {
		return Frame{}, fmt.Errorf("camera device %d returned an empty frame", w.cfg.Device)
	}

	if w.preview != nil {
		w.preview.IMShow(w.raw)
		w.preview.WaitKey(1)
	}

	gocv.CvtColor(w.raw, &w.gray, gocv.ColorBGRToGray)

	src := w.gray
	if w.cfg.Zoom < 1.0 {
		cropped := w.cropZoom(src)
		defer cropped.Close()
		return w.frameFor(stream, cropped)
	}
	return w.frameFor(stream, src)
}

// cropZoom keeps the center Zoom fraction of each dimension, mirroring a
// sensor ScalerCrop.
func (w *Webcam) cropZoom(src gocv.Mat) gocv.Mat {
	cols, rows := src.Cols(), src.Rows()
	cw := int(float64(cols) * w.cfg.Zoom)
	ch := int(float64(rows) * w.cfg.Zoom)
	x0 := (cols - cw) / 2
	y0 := (rows - ch) / 2
	region := src.Region(image.Rect(x0, y0, x0+cw, y0+ch))
	defer region.Close()
	return region.Clone()
}

func (w *Webcam) frameFor(stream Stream, src gocv.Mat) (Frame, error) {
	if stream == StreamSecondary {
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(src, &small,
			image.Pt(w.cfg.SecondaryWidth, w.cfg.SecondaryHeight), 0, 0, gocv.InterpolationArea)
		return matFrame(small), nil
	}
	return matFrame(src), nil
}

// matFrame copies a single-channel Mat into an owned Frame.
func matFrame(m gocv.Mat) Frame {
	return Frame{
		Pixels: m.ToBytes(),
		Width:  m.Cols(),
		Height: m.Rows(),
	}
}

// Close releases the device and any preview window.
func (w *Webcam) Close() error {
	if w.preview != nil {
		w.preview.Close()
	}
	w.raw.Close()
	w.gray.Close()
	return w.capture.Close()
}
