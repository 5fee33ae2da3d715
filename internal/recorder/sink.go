package recorder

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/mikeyg42/motioncam/internal/camera"
	"github.com/mikeyg42/motioncam/internal/config"
)

const fourCC = "avc1"

// VideoSink persists frames. While no recording is active it keeps feeding a
// rolling ring so a recording that starts can include the moments leading up
// to the trigger; once armed with StartWriting it drains the ring into the
// file and then writes incoming frames live.
type VideoSink struct {
	cfg    config.RecordingConfig
	logger *zap.Logger

	ring   *frameRing
	last   camera.Frame
	writer *gocv.VideoWriter
	path   string
}

// NewVideoSink creates a sink writing under the configured recording
// directory.
func NewVideoSink(cfg config.RecordingConfig, logger *zap.Logger) *VideoSink {
	return &VideoSink{
		cfg:    cfg,
		logger: logger.Named("recorder"),
		ring:   newFrameRing(cfg.RingFrames),
	}
}

// Feed hands the sink the latest captured frame.
func (v *VideoSink) Feed(frame camera.Frame) {
	if frame.Empty() {
		return
	}
	v.last = frame

	if v.writer != nil {
		if err := v.writeFrame(frame); err != nil {
			v.logger.Warn("frame write failed", zap.String("path", v.path), zap.Error(err))
		}
		return
	}
	v.ring.push(frame)
}

// StartWriting opens the video file at path and flushes the rolling buffer
// into it. Starting while already writing is an invariant violation and
// returns an error without touching the active file.
func (v *VideoSink) StartWriting(path string) error {
	if v.writer != nil {
		return fmt.Errorf("already writing to %s", v.path)
	}
	if v.last.Empty() {
		return fmt.Errorf("no frame seen yet, cannot size the video writer")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}

	writer, err := gocv.VideoWriterFile(path, fourCC, v.cfg.FrameRate, v.last.Width, v.last.Height, false)
	if err != nil {
		return fmt.Errorf("failed to open video writer for %s: %w", path, err)
	}
	v.writer = writer
	v.path = path

	buffered := v.ring.drain()
	for _, f := range buffered {
		if err := v.writeFrame(f); err != nil {
			v.logger.Warn("buffered frame write failed", zap.String("path", path), zap.Error(err))
		}
	}
	v.logger.Debug("writing started",
		zap.String("path", path),
		zap.Int("buffered_frames", len(buffered)))
	return nil
}

// StopWriting closes the active video file.
func (v *VideoSink) StopWriting() error {
	if v.writer == nil {
		return nil
	}
	err := v.writer.Close()
	v.logger.Debug("writing stopped", zap.String("path", v.path))
	v.writer = nil
	v.path = ""
	if err != nil {
		return fmt.Errorf("failed to close video writer: %w", err)
	}
	return nil
}

// CaptureSnapshot encodes the most recent frame as a JPEG still.
func (v *VideoSink) CaptureSnapshot(path string) error {
	if v.last.Empty() {
		return fmt.Errorf("no frame available for snapshot")
	}
	mat, err := frameMat(v.last)
	if err != nil {
		return err
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to write snapshot %s", path)
	}
	return nil
}

func (v *VideoSink) writeFrame(frame camera.Frame) error {
	mat, err := frameMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()
	return v.writer.Write(mat)
}

// Close stops any active write.
func (v *VideoSink) Close() error {
	return v.StopWriting()
}

func frameMat(frame camera.Frame) (gocv.Mat, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC1, frame.Pixels)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap frame: %w", err)
	}
	return mat, nil
}
