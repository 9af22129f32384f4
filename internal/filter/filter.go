package filter

import "fmt"

// MovingAverage smooths noisy analog readings by averaging the most recent
// observations over a fixed window.
type MovingAverage struct {
	values []int
	count  int
	cursor int
}

// NewMovingAverage creates a filter over a window of the given size.
func NewMovingAverage(window int) (*MovingAverage, error) {
	if window < 1 {
		return nil, fmt.Errorf("moving average window must be >= 1")
	}
	return &MovingAverage{values: make([]int, window)}, nil
}

// Observe records a raw reading, overwriting the oldest one once the window
// is full, and returns the smoothed value over everything held so far.
func (m *MovingAverage) Observe(raw int) int {
	m.values[m.cursor] = raw
	m.cursor = (m.cursor + 1) % len(m.values)
	if m.count < len(m.values) {
		m.count++
	}
	return m.mean()
}

// Current returns the smoothed value over the readings held so far. ok is
// false until the first Observe call.
func (m *MovingAverage) Current() (avg int, ok bool) {
	if m.count == 0 {
		return 0, false
	}
	return m.mean(), true
}

// Count returns how many readings the window currently holds.
func (m *MovingAverage) Count() int {
	return m.count
}

// Window returns the configured window size.
func (m *MovingAverage) Window() int {
	return len(m.values)
}

// mean is the integer-truncated average of the held readings. Slots fill in
// order, so the first count entries are exactly the live ones.
func (m *MovingAverage) mean() int {
	sum := 0
	for _, v := range m.values[:m.count] {
		sum += v
	}
	return sum / m.count
}
