// Package evdev reads a single-touch resistive panel through the Linux
// input event interface.
package evdev

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/xianyo/tscalibrator/models"
)

// Linux input constants
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	SYN_REPORT = 0x00
	BTN_TOUCH  = 0x14A

	ABS_X = 0x00
	ABS_Y = 0x01
)

// EventSize is sizeof(struct input_event) on this platform.
const EventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func evioCGAbs(abs int) uintptr {
	return ioc(iocRead, uint32('E'), uint32(0x40+abs), uint32(unsafe.Sizeof(absInfo{})))
}

// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func evioCGName(n int) uintptr {
	return ioc(iocRead, uint32('E'), 0x06, uint32(n))
}

func getAbsInfo(fd int, abs int) (absInfo, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), evioCGAbs(abs), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absInfo{}, errno
	}
	return info, nil
}

func getName(fd int) (string, error) {
	var buf [256]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), evioCGName(len(buf)), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", errno
	}
	return unix.ByteSliceToString(buf[:]), nil
}

// Decode turns raw input_event records into touch events. Codes other than
// the X and Y axes, BTN_TOUCH and SYN_REPORT are dropped, as is a trailing
// partial record.
func Decode(buf []byte) []models.Event {
	tv := EventSize - 8
	out := make([]models.Event, 0, len(buf)/EventSize)
	for len(buf) >= EventSize {
		rec := buf[:EventSize]
		buf = buf[EventSize:]
		etype := binary.LittleEndian.Uint16(rec[tv : tv+2])
		code := binary.LittleEndian.Uint16(rec[tv+2 : tv+4])
		value := int32(binary.LittleEndian.Uint32(rec[tv+4 : tv+8]))
		switch etype {
		case EV_SYN:
			if code == SYN_REPORT {
				out = append(out, models.Event{Kind: models.EventSync})
			}
		case EV_KEY:
			if code == BTN_TOUCH {
				out = append(out, models.Event{Kind: models.EventTouch, Value: value})
			}
		case EV_ABS:
			switch code {
			case ABS_X:
				out = append(out, models.Event{Kind: models.EventAxisX, Value: value})
			case ABS_Y:
				out = append(out, models.Event{Kind: models.EventAxisY, Value: value})
			}
		}
	}
	return out
}

// Encode is the inverse of Decode for a single record, with a zero timestamp.
func Encode(etype, code uint16, value int32) []byte {
	rec := make([]byte, EventSize)
	tv := EventSize - 8
	binary.LittleEndian.PutUint16(rec[tv:], etype)
	binary.LittleEndian.PutUint16(rec[tv+2:], code)
	binary.LittleEndian.PutUint32(rec[tv+4:], uint32(value))
	return rec
}
