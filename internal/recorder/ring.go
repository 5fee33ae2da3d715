package recorder

import "github.com/mikeyg42/motioncam/internal/camera"

// frameRing is a fixed-capacity circular buffer of frames. The newest frame
// overwrites the oldest once full, so it always holds the last few seconds
// of the stream as pre-motion context.
type frameRing struct {
	frames []camera.Frame
	next   int
	count  int
}

func newFrameRing(capacity int) *frameRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &frameRing{frames: make([]camera.Frame, capacity)}
}

func (r *frameRing) push(f camera.Frame) {
	r.frames[r.next] = f
	r.next = (r.next + 1) % len(r.frames)
	if r.count < len(r.frames) {
		r.count++
	}
}

// drain returns the retained frames from oldest to newest and resets the
// ring.
func (r *frameRing) drain() []camera.Frame {
	out := make([]camera.Frame, 0, r.count)
	start := r.next - r.count
	if start < 0 {
		start += len(r.frames)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.frames[(start+i)%len(r.frames)])
	}
	r.next = 0
	r.count = 0
	for i := range r.frames {
		r.frames[i] = camera.Frame{}
	}
	return out
}

// latest returns the most recently pushed frame.
func (r *frameRing) latest() (camera.Frame, bool) {
	if r.count == 0 {
		return camera.Frame{}, false
	}
	idx := r.next - 1
	if idx < 0 {
		idx += len(r.frames)
	}
	return r.frames[idx], true
}

func (r *frameRing) len() int { return r.count }
