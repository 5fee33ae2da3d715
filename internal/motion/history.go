package motion

// History retains the most recent difference scores in a fixed-capacity
// ring. The newest score overwrites the oldest once the ring is full.
// It exists purely for diagnostic reporting; the state machine never
// consults it.
type History struct {
	scores []float64
	next   int
	full   bool
}

// NewHistory creates a history ring with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{scores: make([]float64, capacity)}
}

// Record appends a score, evicting the oldest entry at capacity.
func (h *History) Record(score float64) {
	h.scores[h.next] = score
	h.next++
	if h.next == len(h.scores) {
		h.next = 0
		h.full = true
	}
}

// Len returns the number of retained scores.
func (h *History) Len() int {
	if h.full {
		return len(h.scores)
	}
	return h.next
}

// Stats summarizes the retained window.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int
}

// Snapshot returns min, max and mean over the retained scores. An empty
// history yields the zero Stats.
func (h *History) Snapshot() Stats {
	n := h.Len()
	if n == 0 {
		return Stats{}
	}

	stats := Stats{Min: h.scores[0], Max: h.scores[0], Count: n}
	var sum float64
	for i := 0; i < n; i++ {
		s := h.scores[i]
		if s < stats.Min {
			stats.Min = s
		}
		if s > stats.Max {
			stats.Max = s
		}
		sum += s
	}
	stats.Mean = sum / float64(n)
	return stats
}
