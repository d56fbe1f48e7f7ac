// Package telemetry feeds backend system samples to the sidebar gauges.
//
// A Bridge runs at most one sampler per mounted sidebar instance. Samplers
// run in their own goroutine and only talk to the bridge through a channel;
// the bridge keeps the latest sample and pushes derived percentages to the
// gauges it was given.
package telemetry

import (
	"fmt"
	"math"

	"github.com/ferrum-editor/ferrum/internal/types"
)

// Gauge displays a percentage
type Gauge interface {
	SetValue(percent int)
}

// Dialog is a widget that can be shown and hidden
type Dialog interface {
	SetOpen(open bool)
}

// GaugeFunc adapts a function to Gauge
type GaugeFunc func(percent int)

func (f GaugeFunc) SetValue(percent int) { f(percent) }

// Demo values shown when no backend is available
const (
	DemoMemoryPercent = 60
	DemoCPUPercent    = 13
)

// DemoSample is the static sample used in demo mode
func DemoSample() types.SysInfo {
	return types.SysInfo{
		System:   "Ferrum-DEMO",
		Memory:   types.MemoryInfo{Total: 100, Free: 40},
		CPUUsage: 13,
		UpTime:   0,
	}
}

// UsedMemoryPercent returns floor((total-free)/total*100), or 0 without a total
func UsedMemoryPercent(info types.SysInfo) int {
	total := info.Memory.Total
	if total == 0 {
		return 0
	}
	free := info.Memory.Free
	if free > total {
		free = total
	}
	return int(math.Floor(float64(total-free) / float64(total) * 100))
}

// CPUPercent returns the floored CPU usage clamped to 0..100
func CPUPercent(info types.SysInfo) int {
	v := int(math.Floor(info.CPUUsage))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FormatUptime renders seconds as HH:MM:SS
func FormatUptime(seconds uint64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatGiB renders a byte count in GiB with two decimals
func FormatGiB(bytes uint64) string {
	return fmt.Sprintf("%.2f GiB", float64(bytes)/(1<<30))
}
