// Package platformtest provides in-memory windows for tests.
package platformtest

import (
	"sync/atomic"

	"github.com/1broseidon/browsershell/internal/platform"
)

// Window is a recording platform.Window.
type Window struct {
	id       platform.WindowID
	geometry platform.Rect
	waker    *Waker

	Title     string
	Titles    []string
	Cursor    platform.Cursor
	Cursors   []platform.Cursor
	Presents  int
	Destroyed bool
}

var _ platform.Window = (*Window)(nil)

func (w *Window) ID() platform.WindowID { return w.id }

func (w *Window) Surface() platform.Surface {
	return platform.Surface{
		Window:   w.id,
		Drawable: uint32(w.id) + 1,
		Depth:    24,
		Width:    w.geometry.Width,
		Height:   w.geometry.Height,
	}
}

func (w *Window) Geometry() platform.Rect { return w.geometry }

func (w *Window) Waker() platform.Waker { return w.waker }

func (w *Window) SetCursor(c platform.Cursor) {
	w.Cursor = c
	w.Cursors = append(w.Cursors, c)
}

func (w *Window) SetTitle(title string) {
	w.Title = title
	w.Titles = append(w.Titles, title)
}

func (w *Window) Present() { w.Presents++ }

func (w *Window) Destroy() { w.Destroyed = true }

// Mutations counts every observable change made to the window.
func (w *Window) Mutations() int {
	return len(w.Titles) + len(w.Cursors) + w.Presents
}

// Waker counts wake requests.
type Waker struct {
	n atomic.Int64
}

func (k *Waker) Wake() { k.n.Add(1) }

// Count returns the number of Wake calls.
func (k *Waker) Count() int { return int(k.n.Load()) }

// Factory hands out Windows with increasing ids starting at 0x1000001.
type Factory struct {
	next    platform.WindowID
	Windows []*Window
	Err     error
}

var _ platform.WindowFactory = (*Factory)(nil)

func (f *Factory) NewWindow() (platform.Window, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.next == 0 {
		f.next = 0x1000001
	}
	w := &Window{
		id:       f.next,
		geometry: platform.Rect{Width: 800, Height: 600},
		waker:    &Waker{},
	}
	f.next++
	f.Windows = append(f.Windows, w)
	return w, nil
}
