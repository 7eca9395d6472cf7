//go:build !(linux && arm && cgo)

package epd

import "errors"

// ErrNoDriver is returned by NewCDriver on builds without the C driver.
var ErrNoDriver = errors.New("epd(cgo): C driver is only available on linux/arm with cgo enabled")

// CDriver is unavailable on this platform.
type CDriver struct{}

func NewCDriver() (*CDriver, error) { return nil, ErrNoDriver }

func (d *CDriver) Init() error                  { return ErrNoDriver }
func (d *CDriver) Clear() error                 { return ErrNoDriver }
func (d *CDriver) Show(black, red []byte) error { return ErrNoDriver }
func (d *CDriver) Sleep() error                 { return ErrNoDriver }
