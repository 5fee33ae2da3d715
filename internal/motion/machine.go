package motion

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MaxIdleGap is the grace period of sub-threshold scores tolerated before an
// active recording is finalized. Brief pauses in detected motion therefore
// do not fragment one real event into several clips.
const MaxIdleGap = 5 * time.Second

// artifactStamp is the sortable timestamp format used for artifact names.
// Colons are avoided so the names are safe on every filesystem.
const artifactStamp = "2006-01-02T15-04-05.000"

// Session is one continuous motion-triggered recording.
type Session struct {
	ID           string
	StartTime    time.Time
	LastMotion   time.Time
	VideoPath    string
	SnapshotPath string
}

// State is the machine's explicit state: either idle or recording exactly
// one session. It is passed to and returned from every Tick so the machine
// itself carries no hidden mutable state.
type State struct {
	session *Session
}

// Idle returns the idle state.
func Idle() State { return State{} }

// Recording reports whether a session is active.
func (s State) Recording() bool { return s.session != nil }

// Session returns the active session, or nil when idle.
func (s State) Session() *Session { return s.session }

// Transition is the decision the machine took for one tick.
type Transition int

const (
	// TransitionNone: no branch fired; the tick is a no-op.
	TransitionNone Transition = iota
	// TransitionStart: motion while idle; a new session was opened.
	TransitionStart
	// TransitionContinue: motion while recording; last-motion refreshed.
	TransitionContinue
	// TransitionStopCap: the max recording length was reached. Takes
	// priority over the idle-gap check regardless of the current score.
	TransitionStopCap
	// TransitionStopIdle: motion ceased for longer than the idle gap.
	TransitionStopIdle
)

func (t Transition) String() string {
	switch t {
	case TransitionStart:
		return "start"
	case TransitionContinue:
		return "continue"
	case TransitionStopCap:
		return "stop-cap"
	case TransitionStopIdle:
		return "stop-idle"
	default:
		return "none"
	}
}

// Machine decides, score by score, when a recording starts, continues and
// stops. It holds only immutable configuration.
type Machine struct {
	minPixelDiff float64
	maxLength    time.Duration
	recordingDir string
}

// NewMachine creates a state machine. maxLength zero means recordings are
// unbounded in length.
func NewMachine(minPixelDiff float64, maxLength time.Duration, recordingDir string) *Machine {
	return &Machine{
		minPixelDiff: minPixelDiff,
		maxLength:    maxLength,
		recordingDir: recordingDir,
	}
}

// Tick consumes one difference score at wall-clock time now and returns the
// next state plus the transition taken. The branches are evaluated in fixed
// priority order; exactly one fires per tick, or none.
//
// A stop transition returns the idle state; the finalized session is still
// reachable through the state the caller passed in.
func (m *Machine) Tick(state State, score float64, now time.Time) (State, Transition) {
	if s := state.session; s != nil {
		capped := m.maxLength > 0 && now.Sub(s.StartTime) >= m.maxLength
		switch {
		case score > m.minPixelDiff && !capped:
			s.LastMotion = now
			return state, TransitionContinue
		case capped:
			return Idle(), TransitionStopCap
		case score <= m.minPixelDiff && now.Sub(s.LastMotion) > MaxIdleGap:
			return Idle(), TransitionStopIdle
		default:
			// Below threshold but within the idle gap: keep recording
			// silently and wait for motion to resume.
			return state, TransitionNone
		}
	}

	if score > m.minPixelDiff {
		stamp := now.Format(artifactStamp)
		session := &Session{
			ID:           uuid.New().String(),
			StartTime:    now,
			LastMotion:   now,
			VideoPath:    filepath.Join(m.recordingDir, stamp+".mp4"),
			SnapshotPath: filepath.Join(m.recordingDir, stamp+".jpg"),
		}
		return State{session: session}, TransitionStart
	}
	return state, TransitionNone
}
