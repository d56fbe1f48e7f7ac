package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/ferrum-editor/ferrum/internal/types"
	"go.uber.org/zap"
)

// Options configures a Bridge
type Options struct {
	Sampler Sampler
	APIURL  string
	Memory  Gauge
	CPU     Gauge
	Demo    bool
	Logger  *zap.Logger

	// OnSample is called after the gauges were updated with a new sample.
	// It runs on the bridge goroutine.
	OnSample func(types.SysInfo)
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Bridge connects a sampler to the sidebar gauges
type Bridge struct {
	sampler  Sampler
	apiURL   string
	memory   Gauge
	cpu      Gauge
	demo     bool
	onSample func(types.SysInfo)
	logger   *zap.Logger

	mu     sync.Mutex
	tasks  map[string]*task
	latest types.SysInfo
	has    bool
	starts int
}

// NewBridge creates an idle bridge
func NewBridge(opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		sampler:  opts.Sampler,
		apiURL:   opts.APIURL,
		memory:   opts.Memory,
		cpu:      opts.CPU,
		demo:     opts.Demo,
		onSample: opts.OnSample,
		logger:   logger,
		tasks:    make(map[string]*task),
	}
}

// Mount starts sampling for a sidebar instance. Mounting an instance that is
// already running does nothing and returns false.
func (b *Bridge) Mount(instanceID string) bool {
	b.mu.Lock()
	if _, running := b.tasks[instanceID]; running {
		b.mu.Unlock()
		b.logger.Debug("sampler already running", zap.String("instance", instanceID))
		return false
	}

	if b.demo {
		b.tasks[instanceID] = &task{}
		b.latest = DemoSample()
		b.has = true
		b.mu.Unlock()

		setGauge(b.memory, DemoMemoryPercent)
		setGauge(b.cpu, DemoCPUPercent)
		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	b.tasks[instanceID] = t
	b.starts++
	b.mu.Unlock()

	b.logger.Info("starting sampler", zap.String("instance", instanceID), zap.String("api", b.apiURL))
	go b.run(ctx, t)
	return true
}

func (b *Bridge) run(ctx context.Context, t *task) {
	defer close(t.done)

	out := make(chan types.SysInfo, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- b.sampler.Run(ctx, NewRequest(b.apiURL), out)
	}()

	for {
		select {
		case info := <-out:
			b.apply(info)
		case err := <-errc:
			if err != nil && !errors.Is(err, context.Canceled) {
				b.logger.Error("sampler stopped", zap.Error(err))
			}
			return
		}
	}
}

func (b *Bridge) apply(info types.SysInfo) {
	b.mu.Lock()
	b.latest = info
	b.has = true
	b.mu.Unlock()

	setGauge(b.memory, UsedMemoryPercent(info))
	setGauge(b.cpu, CPUPercent(info))
	if b.onSample != nil {
		b.onSample(info)
	}
}

// Unmount cancels the instance's sampler and waits for it to stop
func (b *Bridge) Unmount(instanceID string) {
	b.mu.Lock()
	t, ok := b.tasks[instanceID]
	delete(b.tasks, instanceID)
	b.mu.Unlock()

	if !ok || t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	b.logger.Debug("sampler stopped", zap.String("instance", instanceID))
}

// Close stops every sampler
func (b *Bridge) Close() {
	b.mu.Lock()
	ids := make([]string, 0, len(b.tasks))
	for id := range b.tasks {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.Unmount(id)
	}
}

// Latest returns the most recent sample
func (b *Bridge) Latest() (types.SysInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.has
}

// Running reports whether instanceID is mounted
func (b *Bridge) Running(instanceID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tasks[instanceID]
	return ok
}

// Starts returns how many sampler goroutines were launched
func (b *Bridge) Starts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.starts
}

func setGauge(g Gauge, v int) {
	if g != nil {
		g.SetValue(v)
	}
}
