package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/camera"
	"github.com/mikeyg42/motioncam/internal/catalog"
	"github.com/mikeyg42/motioncam/internal/motion"
	"github.com/mikeyg42/motioncam/internal/notification"
)

// Stage identifies the part of a tick that produced an error.
type Stage string

const (
	StageCapture  Stage = "capture"
	StageEstimate Stage = "estimate"
	StageRecord   Stage = "record"
	StageFinalize Stage = "finalize"
)

// TickError wraps a per-tick failure with the stage it occurred in. Tick
// errors are reported and survived, never fatal to the loop.
type TickError struct {
	Stage Stage
	Err   error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *TickError) Unwrap() error { return e.Err }

// Sink is the recording surface the controller drives. *recorder.VideoSink
// implements it.
type Sink interface {
	Feed(frame camera.Frame)
	StartWriting(path string) error
	StopWriting() error
	CaptureSnapshot(path string) error
}

// Controller owns the recording state and applies the machine's transitions
// to the sink, the delivery adapter and the optional catalog. It is driven
// from a single goroutine.
type Controller struct {
	machine      *motion.Machine
	sink         Sink
	delivery     *notification.Delivery
	catalog      *catalog.Store
	snapshotOnly bool
	logger       *zap.Logger

	state motion.State
}

// NewController wires the recording core together. catalog may be nil.
func NewController(machine *motion.Machine, sink Sink, delivery *notification.Delivery,
	cat *catalog.Store, snapshotOnly bool, logger *zap.Logger) *Controller {
	return &Controller{
		machine:      machine,
		sink:         sink,
		delivery:     delivery,
		catalog:      cat,
		snapshotOnly: snapshotOnly,
		logger:       logger.Named("controller"),
		state:        motion.Idle(),
	}
}

// Recording reports whether a session is currently active.
func (c *Controller) Recording() bool { return c.state.Recording() }

// Tick advances the state machine with one difference score and carries out
// whatever the transition demands. Errors are typed by stage; the session
// state is always consistent when Tick returns.
func (c *Controller) Tick(ctx context.Context, score float64, now time.Time) error {
	prev := c.state
	next, transition := c.machine.Tick(c.state, score, now)
	c.state = next

	switch transition {
	case motion.TransitionStart:
		session := next.Session()
		c.logger.Info(">>> motion detected, recording started",
			zap.String("session", session.ID),
			zap.Float64("score", score),
			zap.String("video", session.VideoPath))
		if err := c.sink.StartWriting(session.VideoPath); err != nil {
			// The session stays active; frames keep ringing and a later
			// stop transition still runs finalization for bookkeeping.
			return &TickError{Stage: StageRecord, Err: err}
		}

	case motion.TransitionStopCap, motion.TransitionStopIdle:
		session := prev.Session()
		c.logger.Info("<<< motion ended, recording stopped",
			zap.String("session", session.ID),
			zap.String("reason", transition.String()),
			zap.Duration("length", now.Sub(session.StartTime)))
		if err := c.finalize(ctx, session, transition, now); err != nil {
			return &TickError{Stage: StageFinalize, Err: err}
		}
	}
	return nil
}

// Shutdown finalizes any active session best-effort so an interrupt mid
// recording still yields a playable file.
func (c *Controller) Shutdown(ctx context.Context) {
	session := c.state.Session()
	c.state = motion.Idle()
	if session == nil {
		return
	}
	c.logger.Info("finalizing active session on shutdown",
		zap.String("session", session.ID))
	if err := c.finalize(ctx, session, motion.TransitionStopIdle, time.Now()); err != nil {
		c.logger.Error("shutdown finalization failed", zap.Error(err))
	}
}

// finalize closes the artifact files, hands one of them to delivery and
// records the outcome in the catalog when one is configured.
func (c *Controller) finalize(ctx context.Context, session *motion.Session,
	transition motion.Transition, now time.Time) error {

	if err := c.sink.CaptureSnapshot(session.SnapshotPath); err != nil {
		c.logger.Warn("snapshot capture failed",
			zap.String("session", session.ID),
			zap.Error(err))
	}

	stopErr := c.sink.StopWriting()
	if stopErr != nil {
		c.logger.Error("failed to close recording",
			zap.String("session", session.ID),
			zap.Error(stopErr))
	}

	artifact := session.VideoPath
	if c.snapshotOnly {
		artifact = session.SnapshotPath
	}
	deliveryErr := c.delivery.Deliver(ctx, artifact)

	if c.catalog != nil {
		rec := &catalog.Record{
			ID:           session.ID,
			StartedAt:    session.StartTime,
			EndedAt:      now,
			StopReason:   transition.String(),
			VideoPath:    session.VideoPath,
			SnapshotPath: session.SnapshotPath,
			Delivered:    deliveryErr == nil,
		}
		if deliveryErr != nil {
			rec.DeliveryError = deliveryErr.Error()
		}
		if err := c.catalog.Save(ctx, rec); err != nil {
			c.logger.Error("catalog save failed",
				zap.String("session", session.ID),
				zap.Error(err))
		}
	}
	return stopErr
}
