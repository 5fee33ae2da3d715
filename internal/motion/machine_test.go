package motion

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// feed runs a score sequence through the machine at one-second intervals
// starting at t0 and returns the final state plus every transition taken.
func feed(m *Machine, state State, scores []float64) (State, []Transition) {
	transitions := make([]Transition, 0, len(scores))
	for i, score := range scores {
		var tr Transition
		state, tr = m.Tick(state, score, t0.Add(time.Duration(i)*time.Second))
		transitions = append(transitions, tr)
	}
	return state, transitions
}

func TestMachineStartsOnThresholdCrossing(t *testing.T) {
	m := NewMachine(7.2, 0, "recordings")

	state, transitions := feed(m, Idle(), []float64{0, 0, 8.0, 8.0, 8.0})

	want := []Transition{TransitionNone, TransitionNone, TransitionStart, TransitionContinue, TransitionContinue}
	for i, tr := range transitions {
		if tr != want[i] {
			t.Fatalf("Tick %d: expected %v, got %v", i, want[i], tr)
		}
	}
	if !state.Recording() {
		t.Fatal("Machine should still be recording after the fifth sample")
	}
}

func TestMachineStopsAfterIdleGap(t *testing.T) {
	m := NewMachine(7.2, 0, "recordings")

	state, tr := m.Tick(Idle(), 8.0, t0)
	if tr != TransitionStart {
		t.Fatalf("Expected start, got %v", tr)
	}

	// Sub-threshold scores inside the grace period keep the session alive.
	state, tr = m.Tick(state, 0, t0.Add(3*time.Second))
	if tr != TransitionNone {
		t.Fatalf("Within the idle gap: expected no-op, got %v", tr)
	}
	if !state.Recording() {
		t.Fatal("Session should survive a brief motion gap")
	}

	// Past the 5s gap the session is finalized.
	state, tr = m.Tick(state, 0, t0.Add(5*time.Second+time.Millisecond))
	if tr != TransitionStopIdle {
		t.Fatalf("Past the idle gap: expected stop-idle, got %v", tr)
	}
	if state.Recording() {
		t.Fatal("State should be idle after a natural stop")
	}
}

func TestMachineIdleGapMeasuredFromLastMotion(t *testing.T) {
	m := NewMachine(7.2, 0, "recordings")

	state, _ := m.Tick(Idle(), 8.0, t0)
	// Motion refreshes the last-motion timestamp at t0+4s.
	state, _ = m.Tick(state, 9.0, t0.Add(4*time.Second))

	// t0+8s is 8s after the start but only 4s after the last motion.
	state, tr := m.Tick(state, 0, t0.Add(8*time.Second))
	if tr != TransitionNone {
		t.Fatalf("Idle gap must count from last motion: expected no-op, got %v", tr)
	}

	state, tr = m.Tick(state, 0, t0.Add(9*time.Second+time.Millisecond))
	if tr != TransitionStopIdle {
		t.Fatalf("Expected stop-idle once the gap elapses, got %v", tr)
	}
	if state.Recording() {
		t.Fatal("State should be idle")
	}
}

func TestMachineForcedStopAtMaxLength(t *testing.T) {
	m := NewMachine(7.2, 10*time.Second, "recordings")

	state, _ := m.Tick(Idle(), 8.0, t0)

	// Continuous motion up to just before the cap.
	state, tr := m.Tick(state, 8.0, t0.Add(9*time.Second))
	if tr != TransitionContinue {
		t.Fatalf("Before the cap: expected continue, got %v", tr)
	}

	// At the cap the session stops even though motion continues.
	state, tr = m.Tick(state, 8.0, t0.Add(10*time.Second))
	if tr != TransitionStopCap {
		t.Fatalf("At the cap: expected stop-cap, got %v", tr)
	}
	if state.Recording() {
		t.Fatal("State should be idle after a forced stop")
	}
}

func TestMachineCapTakesPriorityOverIdleGap(t *testing.T) {
	m := NewMachine(7.2, 10*time.Second, "recordings")

	state, _ := m.Tick(Idle(), 8.0, t0)

	// Score is below threshold AND the cap is exceeded: the forced stop
	// must win, not the idle-gap branch.
	_, tr := m.Tick(state, 0, t0.Add(11*time.Second))
	if tr != TransitionStopCap {
		t.Fatalf("Expected stop-cap to take priority, got %v", tr)
	}
}

func TestMachineNeverOpensSecondSession(t *testing.T) {
	m := NewMachine(7.2, 0, "recordings")

	state, _ := m.Tick(Idle(), 8.0, t0)
	first := state.Session()
	if first == nil {
		t.Fatal("Expected an active session")
	}

	for i := 1; i <= 5; i++ {
		var tr Transition
		state, tr = m.Tick(state, 9.0, t0.Add(time.Duration(i)*time.Second))
		if tr == TransitionStart {
			t.Fatalf("Tick %d: motion while recording must not start a new session", i)
		}
		if state.Session() != first {
			t.Fatalf("Tick %d: session identity changed", i)
		}
	}
}

func TestMachineZeroMaxLengthIsUnbounded(t *testing.T) {
	m := NewMachine(7.2, 0, "recordings")

	state, _ := m.Tick(Idle(), 8.0, t0)
	state, tr := m.Tick(state, 8.0, t0.Add(24*time.Hour))
	if tr != TransitionContinue {
		t.Fatalf("Unbounded recording should continue, got %v", tr)
	}
	if !state.Recording() {
		t.Fatal("Session should still be active")
	}
}

func TestSessionArtifactNaming(t *testing.T) {
	m := NewMachine(7.2, 0, "recordings")

	state, _ := m.Tick(Idle(), 8.0, t0)
	s := state.Session()

	if filepath.Dir(s.VideoPath) != "recordings" {
		t.Fatalf("Video path %q not under the recording directory", s.VideoPath)
	}
	if !strings.HasSuffix(s.VideoPath, ".mp4") {
		t.Fatalf("Video path %q should end in .mp4", s.VideoPath)
	}
	if !strings.HasSuffix(s.SnapshotPath, ".jpg") {
		t.Fatalf("Snapshot path %q should end in .jpg", s.SnapshotPath)
	}

	videoStem := strings.TrimSuffix(filepath.Base(s.VideoPath), ".mp4")
	snapStem := strings.TrimSuffix(filepath.Base(s.SnapshotPath), ".jpg")
	if videoStem != snapStem {
		t.Fatalf("Video and snapshot stems differ: %q vs %q", videoStem, snapStem)
	}

	// Names derived from later start times must sort after earlier ones.
	state2, _ := m.Tick(Idle(), 8.0, t0.Add(time.Hour))
	names := []string{filepath.Base(state2.Session().VideoPath), filepath.Base(s.VideoPath)}
	sort.Strings(names)
	if names[0] != filepath.Base(s.VideoPath) {
		t.Fatalf("Artifact names are not chronologically sortable: %v", names)
	}
}
