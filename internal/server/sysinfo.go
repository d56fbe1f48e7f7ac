package server

import (
	"context"
	"fmt"
	"os/user"
	"runtime"

	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SysInfoSource produces telemetry samples
type SysInfoSource interface {
	Collect(ctx context.Context) (types.SysInfo, error)
}

// HostCollector samples the machine the server runs on
type HostCollector struct{}

// Collect implements SysInfoSource
func (HostCollector) Collect(ctx context.Context) (types.SysInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return types.SysInfo{}, fmt.Errorf("failed to read host info: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return types.SysInfo{}, fmt.Errorf("failed to read memory: %w", err)
	}

	var usage float64
	// Interval 0 compares against the previous call
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		usage = percents[0]
	}

	sample := types.SysInfo{
		System:   systemName(runtime.GOOS),
		Version:  info.KernelVersion,
		Platform: info.Platform,
		Arch:     info.KernelArch,
		Memory: types.MemoryInfo{
			Total: vm.Total,
			Free:  vm.Available,
		},
		CPUUsage: usage,
		UpTime:   info.Uptime,
	}
	if u, err := user.Current(); err == nil {
		sample.UserInfo = types.UserInfo{Username: u.Username, Homedir: u.HomeDir}
	}
	return sample, nil
}

func systemName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows_NT"
	case "freebsd":
		return "FreeBSD"
	}
	return goos
}

// StaticSource always returns the same sample
type StaticSource types.SysInfo

// Collect implements SysInfoSource
func (s StaticSource) Collect(context.Context) (types.SysInfo, error) {
	return types.SysInfo(s), nil
}
