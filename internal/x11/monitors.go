package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/browsershell/internal/platform"
)

// cascadeStep offsets each new window from the previous one.
const cascadeStep = 32

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// pointerMonitor returns the monitor under the mouse pointer, the first
// monitor when the pointer cannot be located, or the whole root window when
// RandR reports nothing.
func (c *Connection) pointerMonitor() Monitor {
	screen := c.XUtil.Screen()
	root := Monitor{Name: "root", Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}

	monitors, err := c.GetMonitors()
	if err != nil || len(monitors) == 0 {
		if err != nil {
			c.logger.Debug("monitor query failed, using root window", "error", err)
		}
		return root
	}

	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return monitors[0]
	}
	if m, ok := monitorAt(monitors, int(pointer.RootX), int(pointer.RootY)); ok {
		return m
	}
	return monitors[0]
}

func monitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, m := range monitors {
		if x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height {
			return m, true
		}
	}
	return Monitor{}, false
}

// placement returns the geometry for the n-th window the shell opens.
func (c *Connection) placement(n int) platform.Rect {
	return cascade(c.pointerMonitor(), c.opts.WindowWidth, c.opts.WindowHeight, n)
}

// cascade centres a width x height window on m and shifts the n-th window
// down and right, wrapping once the offset would push it off the monitor.
// Windows larger than the monitor are shrunk to fit.
func cascade(m Monitor, width, height, n int) platform.Rect {
	width = min(width, m.Width)
	height = min(height, m.Height)

	x := m.X + (m.Width-width)/2
	y := m.Y + (m.Height-height)/2

	room := min(m.X+m.Width-(x+width), m.Y+m.Height-(y+height))
	steps := room / cascadeStep
	if steps > 0 {
		offset := (n % (steps + 1)) * cascadeStep
		x += offset
		y += offset
	}

	return platform.Rect{X: x, Y: y, Width: width, Height: height}
}
