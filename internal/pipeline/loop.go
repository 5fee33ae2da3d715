package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/camera"
	"github.com/mikeyg42/motioncam/internal/config"
	"github.com/mikeyg42/motioncam/internal/motion"
)

// Loop is the single capture goroutine: it pulls frames from the camera,
// feeds them to the sink, scores consecutive detection frames and drives the
// controller with each score. Per-tick errors are logged and survived; only
// context cancellation ends the loop.
type Loop struct {
	source     camera.Source
	controller *Controller
	sink       Sink
	history    *motion.History
	logger     *zap.Logger

	detectStream   camera.Stream
	reportInterval int

	previous camera.Frame
	ticks    int
}

// NewLoop assembles the capture loop. When secondary capture is enabled the
// difference estimator runs on the smaller stream while the full-size frames
// go to the recorder.
func NewLoop(source camera.Source, controller *Controller, sink Sink,
	cfg config.MotionConfig, captureSecondary bool, logger *zap.Logger) *Loop {

	detectStream := camera.StreamMain
	if captureSecondary {
		detectStream = camera.StreamSecondary
	}
	return &Loop{
		source:         source,
		controller:     controller,
		sink:           sink,
		history:        motion.NewHistory(cfg.HistorySize),
		logger:         logger.Named("loop"),
		detectStream:   detectStream,
		reportInterval: cfg.ReportInterval,
	}
}

// History exposes the score history for diagnostics.
func (l *Loop) History() *motion.History { return l.history }

// Run blocks until ctx is cancelled, then finalizes any active session and
// returns ctx's error.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("capture loop started",
		zap.String("detect_stream", string(l.detectStream)))

	for {
		select {
		case <-ctx.Done():
			l.controller.Shutdown(context.Background())
			l.logger.Info("capture loop stopped")
			return ctx.Err()
		default:
		}

		if err := l.tick(ctx); err != nil {
			l.logger.Warn("tick failed", zap.Error(err))
		}
	}
}

// tick performs one capture/score/transition cycle.
func (l *Loop) tick(ctx context.Context) error {
	main, err := l.source.Capture(camera.StreamMain)
	if err != nil {
		// The stream position is lost; the next good frame becomes a new
		// baseline instead of being scored against a stale one.
		l.previous = camera.Frame{}
		return &TickError{Stage: StageCapture, Err: err}
	}
	l.sink.Feed(main)

	detect := main
	if l.detectStream == camera.StreamSecondary {
		if detect, err = l.source.Capture(camera.StreamSecondary); err != nil {
			l.previous = camera.Frame{}
			return &TickError{Stage: StageCapture, Err: err}
		}
	}

	if l.previous.Empty() {
		l.previous = detect
		return nil
	}

	score, err := motion.Diff(detect, l.previous)
	l.previous = detect
	if err != nil {
		return &TickError{Stage: StageEstimate, Err: err}
	}

	l.history.Record(score)
	l.ticks++
	if l.reportInterval > 0 && l.ticks%l.reportInterval == 0 {
		stats := l.history.Snapshot()
		l.logger.Debug("difference history",
			zap.Float64("min", stats.Min),
			zap.Float64("max", stats.Max),
			zap.Float64("mean", stats.Mean),
			zap.Int("count", stats.Count),
			zap.Float64("latest", score))
	}

	return l.controller.Tick(ctx, score, time.Now())
}
