package battery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PiSugar3 registers.
const (
	pisugarAddr        = 0x57
	regVoltageHigh     = 0x22
	regVoltageLow      = 0x23
	regPercent         = 0x2A
	defaultReadTimeout = 2 * time.Second
)

// Status is the battery state exposed to the dashboard and /api/battery.
type Status struct {
	// Percent is the battery level in 0–100%.
	Percent int `json:"percent"`
	// VoltageMv is the battery voltage in millivolts, 0 if unknown.
	VoltageMv int `json:"voltage_mv"`
	// Mock is set when no battery controller answered.
	Mock bool `json:"mock"`
}

// Reader abstracts how battery information is obtained, so development
// machines can run without the I2C controller.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// Fixed is a Reader that always reports the same status.
type Fixed Status

func (f Fixed) Read(context.Context) (Status, error) { return Status(f), nil }

type mockReader struct {
	rnd *rand.Rand
}

// NewMockReader returns a Reader with pseudo-random percentages in 20..100.
func NewMockReader() Reader {
	return &mockReader{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *mockReader) Read(_ context.Context) (Status, error) {
	return Status{
		Percent: 20 + m.rnd.Intn(81),
		Mock:    true,
	}, nil
}

// i2cReader talks to a PiSugar3 battery controller.
type i2cReader struct {
	busName string
	addr    uint16
}

// NewI2CReader returns an I2C-backed Reader. busName "" selects the default
// bus (/dev/i2c-1 on a Raspberry Pi). The bus is opened on every Read.
func NewI2CReader(busName string, addr uint16) Reader {
	return &i2cReader{
		busName: busName,
		addr:    addr,
	}
}

func (r *i2cReader) Read(ctx context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Status{}, errors.New("battery: i2c reader unavailable on this platform")
	}
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if _, err := host.Init(); err != nil {
		return Status{}, fmt.Errorf("battery: host init: %w", err)
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return Status{}, fmt.Errorf("battery: open i2c bus: %w", err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}

	readReg := func(reg byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{reg}, buf); err != nil {
			return 0, fmt.Errorf("battery: read register 0x%02X: %w", reg, err)
		}
		return buf[0], nil
	}

	high, err := readReg(regVoltageHigh)
	if err != nil {
		return Status{}, err
	}
	low, err := readReg(regVoltageLow)
	if err != nil {
		return Status{}, err
	}
	pct, err := readReg(regPercent)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Percent:   min(int(pct), 100),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
	}, nil
}

// DefaultReader probes the PiSugar3 controller once and falls back to the
// mock reader when it does not answer.
func DefaultReader() Reader {
	if runtime.GOOS != "linux" {
		return NewMockReader()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultReadTimeout)
	defer cancel()

	r := NewI2CReader("", pisugarAddr)
	if _, err := r.Read(ctx); err != nil {
		return NewMockReader()
	}
	return r
}
