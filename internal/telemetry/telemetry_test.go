package telemetry

import (
	"testing"

	"github.com/ferrum-editor/ferrum/internal/types"
)

func TestUsedMemoryPercent(t *testing.T) {
	tests := []struct {
		name        string
		total, free uint64
		want        int
	}{
		{"demo", 100, 40, 60},
		{"floors", 3, 1, 66},
		{"all free", 8, 8, 0},
		{"no total", 0, 0, 0},
		{"free above total", 10, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := types.SysInfo{Memory: types.MemoryInfo{Total: tt.total, Free: tt.free}}
			if got := UsedMemoryPercent(info); got != tt.want {
				t.Errorf("UsedMemoryPercent() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCPUPercent(t *testing.T) {
	tests := []struct {
		usage float64
		want  int
	}{
		{13.9, 13},
		{0, 0},
		{-1, 0},
		{150, 100},
	}

	for _, tt := range tests {
		if got := CPUPercent(types.SysInfo{CPUUsage: tt.usage}); got != tt.want {
			t.Errorf("CPUPercent(%v) = %d, want %d", tt.usage, got, tt.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds uint64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3725, "01:02:05"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		if got := FormatUptime(tt.seconds); got != tt.want {
			t.Errorf("FormatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatGiB(t *testing.T) {
	if got := FormatGiB(3 << 29); got != "1.50 GiB" {
		t.Errorf("FormatGiB() = %q", got)
	}
}

func TestDemoSampleMatchesDemoGauges(t *testing.T) {
	s := DemoSample()
	if UsedMemoryPercent(s) != DemoMemoryPercent || CPUPercent(s) != DemoCPUPercent {
		t.Errorf("demo sample derives to %d/%d", UsedMemoryPercent(s), CPUPercent(s))
	}
}
