// Package hardware is the boundary to the physical irrigation rig: the soil
// probe behind an MCP3008 ADC, the pump relay and the tank float switch. The
// control loop only sees the Kit interface; the real pins and the mock both
// satisfy it.
package hardware

// Config describes the wiring. Pin numbers use the Broadcom numbering.
type Config struct {
	// SoilChannel is the MCP3008 input the probe is wired to, 0 through 7.
	SoilChannel int `json:"soil_channel"`

	PumpPin int `json:"pump_pin"`

	// PumpActiveHigh is true when driving the relay pin high energizes the
	// pump. Boards with optocoupled relay modules are commonly active low.
	PumpActiveHigh bool `json:"pump_active_high"`

	TankPin int `json:"tank_pin"`

	// TankPullUp enables the internal pull-up so an open float switch reads
	// high.
	TankPullUp bool `json:"tank_pull_up"`
}

// Kit is the hardware surface the control loop drives. The engine goroutine
// is the only caller once the loop is running.
type Kit interface {
	// ReadSoil samples the probe and returns the raw conversion.
	ReadSoil() (int, error)

	// ReadTankSignal returns the raw digital level of the float switch.
	// Polarity interpretation belongs to the interlock.
	ReadTankSignal() (bool, error)

	// SetPump drives the relay. Idempotent; callers repeat the current
	// command every tick.
	SetPump(on bool) error

	// Close rests the pump and releases the underlying resources.
	Close() error
}
