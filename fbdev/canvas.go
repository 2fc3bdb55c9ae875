// Package fbdev draws calibration targets on a Linux framebuffer.
package fbdev

import (
	"encoding/binary"

	"github.com/xianyo/tscalibrator/models"
)

// CrossSize is the length of each arm pair of a crosshair.
const CrossSize = 16

// Canvas is a packed pixel buffer at 16, 24 or 32 bits per pixel.
type Canvas struct {
	width, height int
	bpp           int
	stride        int // bytes per row
	pix           []byte
}

// NewMemory returns a Canvas backed by ordinary memory.
func NewMemory(width, height, bpp int) *Canvas {
	stride := width * bpp / 8
	return &Canvas{width: width, height: height, bpp: bpp, stride: stride, pix: make([]byte, stride*height)}
}

func newCanvas(pix []byte, width, height, bpp, stride int) *Canvas {
	if stride <= 0 {
		stride = width * bpp / 8
	}
	return &Canvas{width: width, height: height, bpp: bpp, stride: stride, pix: pix}
}

func (c *Canvas) Screen() models.Screen {
	return models.Screen{Width: c.width, Height: c.height, BitsPerPixel: c.bpp}
}

func rgb565(rgb uint32) uint16 {
	r := uint16(rgb>>16) & 0xFF
	g := uint16(rgb>>8) & 0xFF
	b := uint16(rgb) & 0xFF
	return ((r >> 3) << 11) | ((g >> 2) << 5) | (b >> 3)
}

// Native converts a 24-bit RGB color to the canvas pixel value.
func (c *Canvas) Native(rgb uint32) uint32 {
	if c.bpp == 16 {
		return uint32(rgb565(rgb))
	}
	return rgb & 0xFFFFFF
}

func (c *Canvas) set(x, y int, v uint32) {
	off := y*c.stride + x*c.bpp/8
	switch c.bpp {
	case 16:
		binary.LittleEndian.PutUint16(c.pix[off:], uint16(v))
	case 24:
		c.pix[off] = byte(v)
		c.pix[off+1] = byte(v >> 8)
		c.pix[off+2] = byte(v >> 16)
	case 32:
		binary.LittleEndian.PutUint32(c.pix[off:], v)
	}
}

// At returns the native pixel value at (x, y), or 0 off the canvas.
func (c *Canvas) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0
	}
	off := y*c.stride + x*c.bpp/8
	switch c.bpp {
	case 16:
		return uint32(binary.LittleEndian.Uint16(c.pix[off:]))
	case 24:
		return uint32(c.pix[off]) | uint32(c.pix[off+1])<<8 | uint32(c.pix[off+2])<<16
	case 32:
		return binary.LittleEndian.Uint32(c.pix[off:])
	}
	return 0
}

// DrawLine draws a horizontal or vertical line over the half-open range
// [x1, x2) or [y1, y2), clipped to the canvas. Diagonals are not drawn and
// report false.
func (c *Canvas) DrawLine(x1, x2, y1, y2 int, rgb uint32) bool {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	v := c.Native(rgb)
	switch {
	case x1 == x2:
		if x1 < 0 || x1 >= c.width {
			return true
		}
		for y := max(y1, 0); y < min(y2, c.height); y++ {
			c.set(x1, y, v)
		}
	case y1 == y2:
		if y1 < 0 || y1 >= c.height {
			return true
		}
		for x := max(x1, 0); x < min(x2, c.width); x++ {
			c.set(x, y1, v)
		}
	default:
		return false
	}
	return true
}

// DrawCross draws a crosshair centred on (x, y).
func (c *Canvas) DrawCross(x, y int, rgb uint32) {
	c.DrawLine(x-CrossSize/2, x+CrossSize/2, y, y, rgb)
	c.DrawLine(x, x, y-CrossSize/2, y+CrossSize/2, rgb)
}

// DrawBox fills rows [y1, y2) between x1 and x2.
func (c *Canvas) DrawBox(x1, y1, x2, y2 int, rgb uint32) {
	for y := y1; y < y2; y++ {
		c.DrawLine(x1, x2, y, y, rgb)
	}
}

// Clear blacks out the whole buffer.
func (c *Canvas) Clear() {
	clear(c.pix)
}
