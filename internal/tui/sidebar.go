package tui

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/ferrum-editor/ferrum/internal/events"
	"github.com/ferrum-editor/ferrum/internal/telemetry"
	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/gofrs/uuid"
)

// gauge is a progress bar fed by the telemetry bridge
type gauge struct {
	label string
	value atomic.Int64
	bar   progress.Model
}

func newGauge(label string) *gauge {
	return &gauge{
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// SetValue implements telemetry.Gauge
func (g *gauge) SetValue(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	g.value.Store(int64(percent))
}

func (g *gauge) Value() int {
	return int(g.value.Load())
}

func (g *gauge) View(width int) string {
	g.bar.Width = width
	v := g.Value()
	return fmt.Sprintf("%s %3d%%\n%s", g.label, v, g.bar.ViewAs(float64(v)/100))
}

// sysinfoDialog shows the latest sample in detail
type sysinfoDialog struct {
	open atomic.Bool
	view viewport.Model
}

// SetOpen implements telemetry.Dialog
func (d *sysinfoDialog) SetOpen(open bool) {
	d.open.Store(open)
	if open {
		d.view.GotoTop()
	}
}

func (d *sysinfoDialog) IsOpen() bool {
	return d.open.Load()
}

func (d *sysinfoDialog) View(info types.SysInfo, ok bool, width, height int) string {
	if !ok {
		return renderModal("System", styleSubtle.Render("Waiting for the first sample..."), "esc: close", ModalWidth, ModalHeight, width, height)
	}

	var b strings.Builder
	row := func(k, v string) {
		fmt.Fprintf(&b, "%-10s %s\n", styleSubtle.Render(k), v)
	}
	row("System", info.System)
	row("Version", info.Version)
	row("Platform", info.Platform)
	row("Arch", info.Arch)
	row("User", info.UserInfo.Username)
	row("Home", info.UserInfo.Homedir)
	row("Memory", fmt.Sprintf("%s / %s GiB (%d%%)",
		telemetry.FormatGiB(info.Memory.Total-info.Memory.Free),
		telemetry.FormatGiB(info.Memory.Total),
		telemetry.UsedMemoryPercent(info)))
	row("CPU", fmt.Sprintf("%d%%", telemetry.CPUPercent(info)))
	row("Uptime", telemetry.FormatUptime(info.UpTime))

	d.view.Width = ModalWidth - 4
	d.view.Height = ModalHeight - ModalOverhead
	d.view.SetContent(strings.TrimRight(b.String(), "\n"))
	return renderModal("System", d.view.View(), "esc: close  ↑/↓: scroll", ModalWidth, ModalHeight, width, height)
}

// sidebar owns the gauges and the bridge instance feeding them
type sidebar struct {
	id      string
	bridge  *telemetry.Bridge
	memory  *gauge
	cpu     *gauge
	dialog  *sysinfoDialog
	uploads atomic.Int32
	dispose func()
}

// newSidebar creates a sidebar with a fresh instance id
func newSidebar() *sidebar {
	id, err := uuid.NewV4()
	instance := id.String()
	if err != nil {
		instance = fmt.Sprintf("sidebar-%p", &id)
	}
	return &sidebar{
		id:     instance,
		memory: newGauge("Memory"),
		cpu:    newGauge("CPU"),
		dialog: &sysinfoDialog{view: viewport.New(ModalWidth-4, ModalHeight-ModalOverhead)},
	}
}

// mount starts the sampler for this instance and listens for uploads
func (s *sidebar) mount(bridge *telemetry.Bridge, bus *events.Bus, wake func()) bool {
	s.bridge = bridge
	s.dispose = bus.OnFileListUpdate(func() {
		s.uploads.Add(1)
		if wake != nil {
			wake()
		}
	})
	return bridge.Mount(s.id)
}

func (s *sidebar) unmount() {
	if s.dispose != nil {
		s.dispose()
		s.dispose = nil
	}
	if s.bridge != nil {
		s.bridge.Unmount(s.id)
	}
	s.dialog.SetOpen(false)
}

func (s *sidebar) latest() (types.SysInfo, bool) {
	if s.bridge == nil {
		return types.SysInfo{}, false
	}
	return s.bridge.Latest()
}

func (s *sidebar) View(width, height int) string {
	inner := width - PaneBorder - 2
	if inner < 4 {
		inner = 4
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("System") + "\n\n")
	b.WriteString(s.memory.View(inner) + "\n\n")
	b.WriteString(s.cpu.View(inner) + "\n\n")

	if info, ok := s.latest(); ok {
		b.WriteString(styleSubtle.Render("Host   ") + truncate(info.System, inner-7) + "\n")
		b.WriteString(styleSubtle.Render("Uptime ") + telemetry.FormatUptime(info.UpTime) + "\n")
	} else {
		b.WriteString(styleSubtle.Render("No sample yet") + "\n")
	}
	if n := s.uploads.Load(); n > 0 {
		b.WriteString(styleSubtle.Render(fmt.Sprintf("Uploads %d", n)) + "\n")
	}

	return stylePane.
		Width(width - PaneBorder).
		Height(height - PaneBorder).
		Padding(0, 1).
		Render(b.String())
}
