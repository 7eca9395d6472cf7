//go:build linux && arm && cgo

// cgo wrapper around the Waveshare 12.48" B C driver (DEV_Config.c and
// EPD_12in48B.c), built into internal/epd/c/libepddrv.a. It expects:
//
//	UBYTE DEV_ModuleInit(void);
//	void  DEV_ModuleExit(void);
//	void  EPD_12in48B_Init(void);
//	void  EPD_12in48B_Clear(void);
//	void  EPD_12in48B_Display(const unsigned char *black, const unsigned char *red);
//	void  EPD_12in48B_Sleep(void);

package epd

/*
#cgo linux,arm CFLAGS: -I${SRCDIR}/c
#cgo linux,arm LDFLAGS: -L${SRCDIR}/c -lepddrv -llgpio

#include <stdint.h>
#include "EPD_12in48b.h"
#include "DEV_Config.h"
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"inkcal/internal/convert"
)

// CDriver drives the panel through the C library. The C side keeps global
// state, so calls are serialised.
type CDriver struct {
	mu    sync.Mutex
	ready bool
}

// NewCDriver returns the hardware display. Init must be called before Show.
func NewCDriver() (*CDriver, error) {
	return &CDriver{}, nil
}

// Init wakes the panel and resets the controller.
func (d *CDriver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ret := C.DEV_ModuleInit(); ret != 0 {
		return fmt.Errorf("epd(cgo): DEV_ModuleInit failed (ret=%d)", int(ret))
	}
	C.EPD_12in48B_Init()
	d.ready = true
	return nil
}

func (d *CDriver) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return fmt.Errorf("epd(cgo): Clear before Init")
	}
	C.EPD_12in48B_Clear()
	return nil
}

// Show sends both planes and refreshes the panel.
func (d *CDriver) Show(black, red []byte) error {
	if err := checkPlanes(convert.Waveshare12in48B, black, red); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return fmt.Errorf("epd(cgo): Show before Init")
	}

	cb := (*C.uchar)(unsafe.Pointer(&black[0]))
	cr := (*C.uchar)(unsafe.Pointer(&red[0]))
	C.EPD_12in48B_Display(cb, cr)
	return nil
}

// Sleep puts the panel into deep sleep and releases the GPIO/SPI module.
func (d *CDriver) Sleep() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return nil
	}
	C.EPD_12in48B_Sleep()
	C.DEV_ModuleExit()
	d.ready = false
	return nil
}
