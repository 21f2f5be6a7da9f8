//go:build windows

package syscall

import (
	"context"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/sys/windows"

	"setbridge/internal/settings"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

const spifUpdateAndNotify = 0x01 | 0x02 // SPIF_UPDATEINIFILE | SPIF_SENDWININICHANGE

// spiParam maps a setting name to its SystemParametersInfo actions. Every
// supported parameter is a UINT or BOOL read through pvParam.
type spiParam struct {
	get, set uint32
	viaPv    bool // the set action takes the value in pvParam instead of uiParam
}

var spiParams = map[string]spiParam{
	"Beep":                 {get: 0x0001, set: 0x0002},
	"KeyboardSpeed":        {get: 0x000A, set: 0x000B},
	"ScreenSaveTimeout":    {get: 0x000E, set: 0x000F},
	"ScreenSaveActive":     {get: 0x0010, set: 0x0011},
	"KeyboardDelay":        {get: 0x0016, set: 0x0017},
	"DragFullWindows":      {get: 0x0026, set: 0x0025},
	"FontSmoothing":        {get: 0x004A, set: 0x004B},
	"MouseSpeed":           {get: 0x0070, set: 0x0071, viaPv: true},
	"MouseHoverTime":       {get: 0x0066, set: 0x0067},
	"WheelScrollLines":     {get: 0x0068, set: 0x0069},
	"MenuShowDelay":        {get: 0x006A, set: 0x006B},
	"CaretWidth":           {get: 0x2006, set: 0x2007, viaPv: true},
	"ForegroundFlashCount": {get: 0x2004, set: 0x2005, viaPv: true},
}

type native struct{}

// Native returns the Windows Caller, which serves SystemParametersInfo.
func Native() Caller { return native{} }

func param(function, name string) (spiParam, error) {
	if function != FunctionSystemParametersInfo {
		return spiParam{}, fmt.Errorf("%s: %w", function, ErrUnknownFunction)
	}
	if err := procSystemParametersInfo.Find(); err != nil {
		return spiParam{}, fmt.Errorf("%s: %w: %v", function, settings.ErrUnsupported, err)
	}
	p, ok := spiParams[name]
	if !ok {
		return spiParam{}, fmt.Errorf("%s %s: %w", function, name, ErrNotFound)
	}
	return p, nil
}

func (native) Get(_ context.Context, function, name string) (any, error) {
	p, err := param(function, name)
	if err != nil {
		return nil, err
	}
	var v uint32
	r, _, callErr := procSystemParametersInfo.Call(uintptr(p.get), 0, uintptr(unsafe.Pointer(&v)), 0)
	if r == 0 {
		return nil, fmt.Errorf("%s %s: %w", function, name, callErr)
	}
	return v, nil
}

func (native) Set(_ context.Context, function, name string, value any) error {
	p, err := param(function, name)
	if err != nil {
		return err
	}
	c, err := settings.Convert(settings.KindInteger, value)
	if err != nil {
		return err
	}
	n := c.(int64)
	if n < 0 || n > math.MaxUint32 {
		return fmt.Errorf("%s %s: %d out of range: %w", function, name, n, settings.ErrConversion)
	}
	ui, pv := uintptr(n), uintptr(0)
	if p.viaPv {
		ui, pv = 0, uintptr(n)
	}
	r, _, callErr := procSystemParametersInfo.Call(uintptr(p.set), ui, pv, spifUpdateAndNotify)
	if r == 0 {
		return fmt.Errorf("%s %s: %w", function, name, callErr)
	}
	return nil
}
