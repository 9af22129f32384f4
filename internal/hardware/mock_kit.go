package hardware

import (
	"log/slog"
	"sync"
)

// MockKit stands in for the real rig when developing off the Pi and in
// tests. Soil reads come from a scripted sequence when one is loaded,
// otherwise from a fixed level. Pump commands are recorded for inspection.
type MockKit struct {
	mu        sync.Mutex
	soil      int
	soilQueue []int
	soilErr   error
	tankLevel bool
	tankErr   error
	pumpOn    bool
	pumpLog   []bool
}

// NewMockKit returns a mock reading mid-scale soil with a full tank.
func NewMockKit() *MockKit {
	return &MockKit{soil: 512, tankLevel: true}
}

func (m *MockKit) ReadSoil() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.soilErr != nil {
		return 0, m.soilErr
	}
	if len(m.soilQueue) > 0 {
		m.soil = m.soilQueue[0]
		m.soilQueue = m.soilQueue[1:]
	}
	return m.soil, nil
}

func (m *MockKit) ReadTankSignal() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tankErr != nil {
		return false, m.tankErr
	}
	return m.tankLevel, nil
}

func (m *MockKit) SetPump(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if on != m.pumpOn {
		slog.Debug("mock pump switched", "on", on)
	}
	m.pumpOn = on
	m.pumpLog = append(m.pumpLog, on)
	return nil
}

func (m *MockKit) Close() error {
	return m.SetPump(false)
}

// SetSoil fixes the level returned once any scripted readings run out.
func (m *MockKit) SetSoil(v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soil = v
}

// ScriptSoil queues readings to be returned one per ReadSoil call. The last
// one sticks after the queue drains.
func (m *MockKit) ScriptSoil(values ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soilQueue = append(m.soilQueue, values...)
}

// SetSoilError makes ReadSoil fail until cleared with a nil error.
func (m *MockKit) SetSoilError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soilErr = err
}

// SetTankLevel fixes the raw float switch level.
func (m *MockKit) SetTankLevel(level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tankLevel = level
}

// SetTankError makes ReadTankSignal fail until cleared with a nil error.
func (m *MockKit) SetTankError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tankErr = err
}

// PumpOn reports the most recently commanded pump level.
func (m *MockKit) PumpOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pumpOn
}

// PumpCommands returns every pump command seen, in order.
func (m *MockKit) PumpCommands() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.pumpLog))
	copy(out, m.pumpLog)
	return out
}
