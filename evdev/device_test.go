package evdev

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xianyo/tscalibrator/models"
)

// pipeDevice backs a Device with a non-blocking pipe; the returned fd is the
// write end.
func pipeDevice(t *testing.T) (*Device, int) {
	t.Helper()
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	d := &Device{Path: "pipe", name: "pipe", fd: p[0], buf: make([]byte, maxRead*EventSize)}
	t.Cleanup(func() {
		d.Close()
		unix.Close(p[1])
	})
	return d, p[1]
}

func write(t *testing.T, fd int, recs ...[]byte) {
	t.Helper()
	var buf []byte
	for _, r := range recs {
		buf = append(buf, r...)
	}
	if _, err := unix.Write(fd, buf); err != nil {
		t.Fatal(err)
	}
}

func TestPollEventsTimeout(t *testing.T) {
	d, _ := pipeDevice(t)
	start := time.Now()
	evs, err := d.PollEvents(50 * time.Millisecond)
	if err != nil || len(evs) != 0 {
		t.Fatalf("evs %v err %v", evs, err)
	}
	if el := time.Since(start); el < 50*time.Millisecond {
		t.Errorf("returned after %v", el)
	}
}

func TestPollEventsIgnoredRecordsKeepWaiting(t *testing.T) {
	d, w := pipeDevice(t)
	write(t, w, Encode(EV_ABS, 0x18, 40)) // pressure only

	start := time.Now()
	evs, err := d.PollEvents(80 * time.Millisecond)
	if err != nil || len(evs) != 0 {
		t.Fatalf("evs %v err %v", evs, err)
	}
	if el := time.Since(start); el < 80*time.Millisecond {
		t.Errorf("ignored record ended the wait after %v", el)
	}
}

func TestPollEventsAfterIgnoredRecords(t *testing.T) {
	d, w := pipeDevice(t)
	write(t, w, Encode(EV_ABS, 0x18, 40))
	go func() {
		time.Sleep(20 * time.Millisecond)
		unix.Write(w, append(Encode(EV_ABS, ABS_X, 321), Encode(EV_SYN, SYN_REPORT, 0)...))
	}()

	evs, err := d.PollEvents(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Event{{Kind: models.EventAxisX, Value: 321}, {Kind: models.EventSync}}
	if len(evs) != len(want) || evs[0] != want[0] || evs[1] != want[1] {
		t.Errorf("got %v, want %v", evs, want)
	}
}

func TestPollEventsHangup(t *testing.T) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	d := &Device{Path: "pipe", fd: p[0], buf: make([]byte, maxRead*EventSize)}
	defer d.Close()
	unix.Close(p[1])
	if _, err := d.PollEvents(time.Second); err == nil {
		t.Fatal("closed writer not reported")
	}
}
