// Package display owns the session's screen state: the background image
// and a repaint counter. Decoding and compositing live elsewhere.
package display

import (
	"encoding/binary"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Background is the current desktop image.
type Background struct {
	Data   []byte `json:"-"`
	MIME   string `json:"mime"`
	Size   int    `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Display is the framebuffer owner.
type Display struct {
	mu         sync.Mutex
	width      int
	height     int
	background *Background
	redraws    uint64
}

// New creates a display of the given resolution.
func New(width, height int) *Display {
	return &Display{width: width, height: height}
}

// Size returns the resolution.
func (d *Display) Size() (int, int) {
	return d.width, d.height
}

// SetBackground replaces the background with data. Empty payloads leave the
// current background untouched and return false.
func (d *Display) SetBackground(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	bg := &Background{
		Data: data,
		MIME: mimetype.Detect(data).String(),
		Size: len(data),
	}
	if w, h, ok := bmpDimensions(data); ok {
		bg.Width, bg.Height = w, h
	}

	d.mu.Lock()
	d.background = bg
	d.mu.Unlock()
	return true
}

// Background returns the current background, if any.
func (d *Display) Background() (Background, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.background == nil {
		return Background{}, false
	}
	return *d.background, true
}

// Redraw repaints the screen.
func (d *Display) Redraw() {
	d.mu.Lock()
	d.redraws++
	d.mu.Unlock()
}

// Redraws returns how many repaints have happened.
func (d *Display) Redraws() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.redraws
}

// bmpDimensions reads width and height from a BITMAPINFOHEADER.
func bmpDimensions(data []byte) (int, int, bool) {
	if len(data) < 26 || data[0] != 'B' || data[1] != 'M' {
		return 0, 0, false
	}
	w := int32(binary.LittleEndian.Uint32(data[18:22]))
	h := int32(binary.LittleEndian.Uint32(data[22:26]))
	if h < 0 {
		// Top-down bitmap.
		h = -h
	}
	return int(w), int(h), true
}
