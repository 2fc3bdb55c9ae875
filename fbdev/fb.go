package fbdev

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	FBIOGET_VSCREENINFO = 0x4600
	FBIOGET_FSCREENINFO = 0x4602
)

const (
	varInfoSize = 160
	fixInfoSize = 80
	ulongSize   = int(unsafe.Sizeof(uintptr(0)))

	// offsets into struct fb_fix_screeninfo
	smemLenOffset    = 16 + ulongSize
	lineLengthOffset = smemLenOffset + 24
)

// Framebuffer is a memory-mapped framebuffer device.
type Framebuffer struct {
	*Canvas
	Path string
	fd   int
	mem  []byte
}

func ioctl(fd int, req uintptr, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

// Open maps the framebuffer at path read-write.
func Open(path string) (*Framebuffer, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	fb, err := mapFramebuffer(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	fb.Path = path
	return fb, nil
}

func mapFramebuffer(fd int) (*Framebuffer, error) {
	vinfo := make([]byte, varInfoSize)
	if err := ioctl(fd, FBIOGET_VSCREENINFO, vinfo); err != nil {
		return nil, fmt.Errorf("failed to get screen info: %w", err)
	}
	finfo := make([]byte, fixInfoSize)
	if err := ioctl(fd, FBIOGET_FSCREENINFO, finfo); err != nil {
		return nil, fmt.Errorf("failed to get screen info: %w", err)
	}
	width := int(binary.LittleEndian.Uint32(vinfo[0:]))
	height := int(binary.LittleEndian.Uint32(vinfo[4:]))
	bpp := int(binary.LittleEndian.Uint32(vinfo[24:]))
	smemLen := int(binary.LittleEndian.Uint32(finfo[smemLenOffset:]))
	stride := int(binary.LittleEndian.Uint32(finfo[lineLengthOffset:]))
	switch bpp {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported depth %d bpp", bpp)
	}
	if stride <= 0 {
		stride = width * bpp / 8
	}
	if stride*height > smemLen {
		return nil, fmt.Errorf("framebuffer %dx%d stride %d exceeds %d bytes", width, height, stride, smemLen)
	}

	mem, err := unix.Mmap(fd, 0, smemLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map screen: %w", err)
	}
	return &Framebuffer{
		Canvas: newCanvas(mem, width, height, bpp, stride),
		fd:     fd,
		mem:    mem,
	}, nil
}

// Close unmaps and closes the device.
func (f *Framebuffer) Close() error {
	if f.mem == nil {
		return nil
	}
	err := unix.Munmap(f.mem)
	f.mem = nil
	if cerr := unix.Close(f.fd); err == nil {
		err = cerr
	}
	return err
}
