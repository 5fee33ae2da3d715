package motion

import (
	"fmt"

	"github.com/mikeyg42/motioncam/internal/camera"
)

const histogramBins = 256

// Diff scores the dissimilarity of two frames of identical dimensions.
//
// Each frame is reduced to a 256-bin intensity histogram and the score is
// the mean absolute per-bin difference. Comparing global distributions makes
// the score tolerant of small spatial shifts (sensor noise) but blind to
// where in the frame the change happened: a small object moving through a
// large scene can stay below any useful threshold. That trade-off is
// intentional and must not be "fixed" with a per-pixel comparison.
//
// The score is symmetric, zero for identical frames, and computed in one
// pass over the pixels.
func Diff(current, previous camera.Frame) (float64, error) {
	if current.Width != previous.Width || current.Height != previous.Height {
		return 0, fmt.Errorf("frame dimensions differ: %dx%d vs %dx%d",
			current.Width, current.Height, previous.Width, previous.Height)
	}

	var curHist, prevHist [histogramBins]int64
	for _, p := range current.Pixels {
		curHist[p]++
	}
	for _, p := range previous.Pixels {
		prevHist[p]++
	}

	var sum int64
	for i := 0; i < histogramBins; i++ {
		d := curHist[i] - prevHist[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float64(sum) / float64(histogramBins), nil
}
