package fbdev

import "testing"

func TestNative565(t *testing.T) {
	c := NewMemory(4, 4, 16)
	cases := map[uint32]uint32{
		0xFFFFFF: 0xFFFF,
		0x000000: 0x0000,
		0xFF0000: 0xF800,
		0x00FF00: 0x07E0,
		0x0000FF: 0x001F,
		0x00D000: 0x0680,
	}
	for rgb, want := range cases {
		if got := c.Native(rgb); got != want {
			t.Errorf("Native(%06x) = %04x, want %04x", rgb, got, want)
		}
	}
}

func TestDrawCross(t *testing.T) {
	for _, bpp := range []int{16, 24, 32} {
		c := NewMemory(64, 48, bpp)
		c.DrawCross(20, 20, 0xFFFFFF)
		white := c.Native(0xFFFFFF)
		for x := 12; x < 28; x++ {
			if c.At(x, 20) != white {
				t.Fatalf("bpp %d: horizontal arm missing at x=%d", bpp, x)
			}
		}
		for y := 12; y < 28; y++ {
			if c.At(20, y) != white {
				t.Fatalf("bpp %d: vertical arm missing at y=%d", bpp, y)
			}
		}
		if c.At(28, 20) != 0 || c.At(20, 28) != 0 || c.At(11, 20) != 0 {
			t.Errorf("bpp %d: cross drawn outside its half-open range", bpp)
		}
		if c.At(21, 21) != 0 {
			t.Errorf("bpp %d: pixel off the arms set", bpp)
		}
	}
}

func TestDrawClipped(t *testing.T) {
	c := NewMemory(10, 10, 32)
	c.DrawCross(0, 0, 0x123456)
	c.DrawCross(9, 9, 0x123456)
	c.DrawCross(-50, 200, 0x123456) // entirely off the canvas
	if c.At(0, 0) != 0x123456 || c.At(7, 0) != 0x123456 || c.At(9, 9) != 0x123456 {
		t.Error("clipped cross missing pixels")
	}
}

func TestDrawLineDiagonal(t *testing.T) {
	c := NewMemory(10, 10, 16)
	if c.DrawLine(0, 5, 0, 5, 0xFFFFFF) {
		t.Error("diagonal line reported as drawn")
	}
	for i := range c.pix {
		if c.pix[i] != 0 {
			t.Fatal("diagonal line touched the buffer")
		}
	}
}

func TestDrawBoxAndClear(t *testing.T) {
	c := NewMemory(40, 30, 24)
	c.DrawBox(5, 10, 15, 20, 0x00D000)
	if c.At(5, 10) != 0x00D000 || c.At(14, 19) != 0x00D000 {
		t.Error("box interior not filled")
	}
	if c.At(15, 10) != 0 || c.At(5, 20) != 0 {
		t.Error("box exceeds its half-open bounds")
	}
	c.Clear()
	if c.At(5, 10) != 0 {
		t.Error("Clear left pixels set")
	}
}

func TestScreen(t *testing.T) {
	s := NewMemory(800, 480, 16).Screen()
	if s.Width != 800 || s.Height != 480 || s.BitsPerPixel != 16 {
		t.Errorf("Screen() = %+v", s)
	}
}
