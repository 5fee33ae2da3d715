package motion

import (
	"testing"

	"github.com/mikeyg42/motioncam/internal/camera"
)

func frameOf(w, h int, fill uint8) camera.Frame {
	pixels := make([]uint8, w*h)
	for i := range pixels {
		pixels[i] = fill
	}
	return camera.Frame{Pixels: pixels, Width: w, Height: h}
}

func TestDiffIdenticalFramesIsZero(t *testing.T) {
	testCases := []struct {
		name  string
		frame camera.Frame
	}{
		{"Uniform black", frameOf(4, 4, 0)},
		{"Uniform white", frameOf(4, 4, 255)},
		{"Gradient", camera.Frame{Pixels: []uint8{0, 64, 128, 255}, Width: 2, Height: 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			score, err := Diff(tc.frame, tc.frame)
			if err != nil {
				t.Fatalf("Diff failed: %v", err)
			}
			if score != 0 {
				t.Fatalf("Identical frames should score 0, got %g", score)
			}
		})
	}
}

func TestDiffSymmetry(t *testing.T) {
	a := camera.Frame{Pixels: []uint8{0, 10, 20, 30, 40, 50}, Width: 3, Height: 2}
	b := camera.Frame{Pixels: []uint8{50, 50, 50, 0, 0, 0}, Width: 3, Height: 2}

	ab, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff(a, b) failed: %v", err)
	}
	ba, err := Diff(b, a)
	if err != nil {
		t.Fatalf("Diff(b, a) failed: %v", err)
	}
	if ab != ba {
		t.Fatalf("Diff should be symmetric: got %g and %g", ab, ba)
	}
	if ab == 0 {
		t.Fatal("Different frames should not score 0")
	}
}

func TestDiffKnownValue(t *testing.T) {
	// All four pixels move from bin 0 to bin 255: the histograms differ by
	// 4 in two bins, so the score is 8/256.
	black := frameOf(2, 2, 0)
	white := frameOf(2, 2, 255)

	score, err := Diff(black, white)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	want := 8.0 / 256.0
	if score != want {
		t.Fatalf("Expected score %g, got %g", want, score)
	}
}

func TestDiffInsensitiveToSpatialShift(t *testing.T) {
	// The same pixel values rearranged produce identical histograms, so a
	// pure shift scores 0. This is the documented weakness of the global
	// distribution comparison.
	a := camera.Frame{Pixels: []uint8{200, 0, 0, 0}, Width: 2, Height: 2}
	b := camera.Frame{Pixels: []uint8{0, 0, 0, 200}, Width: 2, Height: 2}

	score, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if score != 0 {
		t.Fatalf("Shifted identical content should score 0, got %g", score)
	}
}

func TestDiffDimensionMismatch(t *testing.T) {
	a := frameOf(2, 2, 0)
	b := frameOf(4, 4, 0)

	if _, err := Diff(a, b); err == nil {
		t.Fatal("Expected an error for mismatched dimensions")
	}
}
