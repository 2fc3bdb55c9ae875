package models

// PARAMETERS is the tool configuration document. Keys are upper-case in JSON.
type PARAMETERS struct {
	DEVICE         string  `json:"DEVICE"`
	INPUT          string  `json:"INPUT,omitempty"`
	INPUTDIR       string  `json:"INPUTDIR,omitempty"`
	FRAMEBUFFER    string  `json:"FRAMEBUFFER,omitempty"`
	CONFFILE       string  `json:"CONFFILE,omitempty"`
	SYSFS          string  `json:"SYSFS,omitempty"`
	LOGFILE        string  `json:"LOGFILE,omitempty"`
	ATTEMPTS       int     `json:"ATTEMPTS,omitempty"`
	SOLVER         string  `json:"SOLVER,omitempty"`
	ACQUIRETIMEOUT int     `json:"ACQUIRETIMEOUT,omitempty"` // ms
	TESTTIMEOUT    int     `json:"TESTTIMEOUT,omitempty"`    // ms
	FLUSHTIMEOUT   int     `json:"FLUSHTIMEOUT,omitempty"`   // ms
	SERIAL         *SERIAL `json:"SERIAL,omitempty"`
	DEBUG          bool    `json:"DEBUG"`
}

// SERIAL configures a serial-attached touch controller.
type SERIAL struct {
	PORT     string `json:"PORT"`
	BAUDRATE int    `json:"BAUDRATE"`
	XMIN     int    `json:"XMIN"`
	XMAX     int    `json:"XMAX"`
	YMIN     int    `json:"YMIN"`
	YMAX     int    `json:"YMAX"`
}

const (
	InputEvdev  = "evdev"
	InputSerial = "serial"

	SolverFiveWire = "fivewire"
	SolverLU       = "lu"
)

// Screen is the geometry of the display surface.
type Screen struct {
	Width        int
	Height       int
	BitsPerPixel int
}

// Range is the raw reporting range of the touch controller.
type Range struct {
	XMin, XMax int32
	YMin, YMax int32
}

// XSpan returns xmax-xmin.
func (r Range) XSpan() int32 { return r.XMax - r.XMin }

// YSpan returns ymax-ymin.
func (r Range) YSpan() int32 { return r.YMax - r.YMin }

// CalibrationPoint pairs a target location with the filtered raw reading
// taken while it was touched. X and Y are already scaled into the raw range.
type CalibrationPoint struct {
	X, Y uint32
	I, J int32
}

// TestSample is one record of the 64-point diagnostic sweep.
type TestSample struct {
	X, Y       uint32
	NumI, NumJ uint32
	AvgI, AvgJ int32
	MinI, MinJ int32
	MaxI, MaxJ int32
}
