package hardware

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
)

// HardwareKit drives the real rig through the Broadcom GPIO block and reads
// the soil probe over SPI0.
type HardwareKit struct {
	cfg     Config
	pumpPin rpio.Pin
	tankPin rpio.Pin
}

// NewHardwareKit maps the GPIO memory range and claims the SPI bus once for
// the life of the process, then configures the pins and rests the pump.
func NewHardwareKit(cfg Config) (*HardwareKit, error) {
	slog.Debug(">>NewHardwareKit")
	defer slog.Debug("<<NewHardwareKit")

	if cfg.SoilChannel < 0 || cfg.SoilChannel > 7 {
		return nil, fmt.Errorf("soil channel %d is outside the MCP3008 range 0..7", cfg.SoilChannel)
	}

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open the GPIO memory range: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return nil, fmt.Errorf("failed to claim SPI for the soil probe: %w", err)
	}
	rpio.SpiChipSelect(0)

	k := &HardwareKit{
		cfg:     cfg,
		pumpPin: rpio.Pin(cfg.PumpPin),
		tankPin: rpio.Pin(cfg.TankPin),
	}

	k.pumpPin.Output()
	if err := k.SetPump(false); err != nil {
		return nil, err
	}

	k.tankPin.Input()
	if cfg.TankPullUp {
		k.tankPin.PullUp()
	}

	return k, nil
}

// ReadSoil runs one single-ended conversion on the probe channel and returns
// the 10-bit result.
func (k *HardwareKit) ReadSoil() (int, error) {
	// Start bit, then single-ended mode plus the channel in the high
	// nibble, then one padding byte to clock the conversion out.
	buf := []byte{0x01, byte(0x08|k.cfg.SoilChannel) << 4, 0x00}
	rpio.SpiExchange(buf)
	return int(buf[1]&0x03)<<8 | int(buf[2]), nil
}

// ReadTankSignal returns the raw level of the float switch pin.
func (k *HardwareKit) ReadTankSignal() (bool, error) {
	return k.tankPin.Read() == rpio.High, nil
}

// SetPump drives the relay pin, honoring the configured polarity.
func (k *HardwareKit) SetPump(on bool) error {
	slog.Debug(">>SetPump", "on", on)
	defer slog.Debug("<<SetPump")

	if on == k.cfg.PumpActiveHigh {
		k.pumpPin.High()
	} else {
		k.pumpPin.Low()
	}
	return nil
}

// Close rests the pump and releases the SPI bus and the GPIO range.
func (k *HardwareKit) Close() error {
	slog.Debug(">>Close")
	defer slog.Debug("<<Close")

	if err := k.SetPump(false); err != nil {
		return err
	}
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}
