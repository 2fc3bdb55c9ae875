package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xianyo/tscalibrator/matrix"
	"github.com/xianyo/tscalibrator/models"
	"github.com/xianyo/tscalibrator/ui"
)

// sample points used when none are given
var defaultPoints = [3]models.CalibrationPoint{
	{X: 320, Y: 240, I: 429, J: 310},
	{X: 640, Y: 200, I: 307, J: 434},
	{X: 960, Y: 600, I: 545, J: 556},
}

func parsePoint(s string) (models.CalibrationPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.CalibrationPoint{}, fmt.Errorf("point %q: want x,y,i,j", s)
	}
	var v [4]int64
	for k, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return models.CalibrationPoint{}, fmt.Errorf("point %q: %w", s, err)
		}
		v[k] = n
	}
	if v[0] < 0 || v[1] < 0 {
		return models.CalibrationPoint{}, fmt.Errorf("point %q: negative target", s)
	}
	return models.CalibrationPoint{X: uint32(v[0]), Y: uint32(v[1]), I: int32(v[2]), J: int32(v[3])}, nil
}

func main() {
	var (
		solver = flag.String("solver", models.SolverFiveWire, "fivewire or lu")
		debug  = flag.Bool("debug", false, "print the points being solved")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [x,y,i,j x,y,i,j x,y,i,j]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	points := defaultPoints
	switch flag.NArg() {
	case 0:
	case 3:
		for k := range points {
			pt, err := parsePoint(flag.Arg(k))
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(2)
			}
			points[k] = pt
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	solve, err := matrix.SolverByName(*solver)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	for k, p := range points {
		ui.Debugf(*debug, "point %d: %d:%d.%d.%d\n", k, p.X, p.Y, p.I, p.J)
	}

	c, err := solve(points)
	if err != nil {
		ui.Warningf("error calibrating: %v\n", err)
		os.Exit(1)
	}
	ui.Greenf("%s\n", c.Join(" "))
	for _, p := range points {
		x, y := c.Translate(p.I, p.J)
		fmt.Printf("%d:%d -> %d:%d (want %d:%d)\n", p.I, p.J, x, y, p.X, p.Y)
	}
}
