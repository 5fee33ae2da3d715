package camera

// Stream selects which of the camera's two outputs a capture draws from.
type Stream string

const (
	// StreamMain is the full-resolution stream used for recording.
	StreamMain Stream = "main"
	// StreamSecondary is the downscaled stream, cheaper to difference.
	StreamSecondary Stream = "secondary"
)

// Frame is one captured luma image. Pixels is a row-major grid of
// Width*Height intensity samples. A Frame is immutable once captured; the
// capture loop owns it for a single iteration (the previous frame is
// retained across one iteration boundary for differencing).
type Frame struct {
	Pixels []uint8
	Width  int
	Height int
}

// Empty reports whether the frame carries no pixel data.
func (f Frame) Empty() bool {
	return len(f.Pixels) == 0 || f.Width <= 0 || f.Height <= 0
}

// Source delivers frames on demand. Capture may block while the device
// produces the next frame and may fail transiently; callers are expected to
// log and continue on error.
type Source interface {
	Capture(stream Stream) (Frame, error)
	Close() error
}
