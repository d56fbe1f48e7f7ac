package settings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ferrum-editor/ferrum/internal/events"
	"github.com/ferrum-editor/ferrum/internal/keybinds"
	"github.com/ferrum-editor/ferrum/internal/types"
)

type fakePusher struct {
	calls []types.Config
	err   error
}

func (p *fakePusher) SetConfig(ctx context.Context, cfg types.Config) error {
	p.calls = append(p.calls, cfg)
	return p.err
}

// blockingPusher holds the first SetConfig until release is closed
type blockingPusher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPusher) SetConfig(ctx context.Context, cfg types.Config) error {
	if p.calls.Add(1) == 1 {
		close(p.entered)
		<-p.release
	}
	return nil
}

type recordingNotifier struct {
	phases []string
}

func (n *recordingNotifier) Pending(string)        { n.phases = append(n.phases, "pending") }
func (n *recordingNotifier) Success(string)        { n.phases = append(n.phases, "success") }
func (n *recordingNotifier) Failure(string, error) { n.phases = append(n.phases, "failure") }

type fixture struct {
	ctrl     *Controller
	pusher   *fakePusher
	notifier *recordingNotifier
	reloads  []types.Config
	form     *StaticForm
}

func newFixture(t *testing.T, demo bool) *fixture {
	t.Helper()
	initial := types.DefaultConfig()
	initial.Explorer.Password = "secret"

	f := &fixture{pusher: &fakePusher{}, notifier: &recordingNotifier{}}
	f.ctrl = NewController(Options{
		Store:    f.pusher,
		Initial:  initial,
		Notifier: f.notifier,
		Reloader: ReloadFunc(func(cfg types.Config) { f.reloads = append(f.reloads, cfg) }),
		Demo:     demo,
	})
	f.form = NewStaticForm(initial)
	f.ctrl.SetForm(f.form)
	return f
}

func TestMaybeSave_PushesChangedPort(t *testing.T) {
	f := newFixture(t, false)
	f.form.PortText = "2222"

	outcome, err := f.ctrl.MaybeSave(context.Background())
	if err != nil || outcome != OutcomePushed {
		t.Fatalf("MaybeSave() = (%s, %v), want pushed", outcome, err)
	}

	if len(f.pusher.calls) != 1 {
		t.Fatalf("SetConfig called %d times, want 1", len(f.pusher.calls))
	}
	pushed := f.pusher.calls[0]
	want := types.DefaultConfig()
	want.Explorer.Password = "secret"
	want.Terminal.Port = 2222
	if pushed != want {
		t.Errorf("pushed = %+v, want %+v", pushed, want)
	}

	if f.ctrl.Config().Terminal.Port != 2222 {
		t.Error("held config not updated")
	}
	if len(f.reloads) != 1 || f.reloads[0].Terminal.Port != 2222 {
		t.Errorf("reloads = %+v", f.reloads)
	}
	if strings.Join(f.notifier.phases, ",") != "pending,success" {
		t.Errorf("notifications = %v", f.notifier.phases)
	}
}

func TestMaybeSave_OverlappingCallsPushOnce(t *testing.T) {
	pusher := &blockingPusher{entered: make(chan struct{}), release: make(chan struct{})}
	var reloads atomic.Int32
	ctrl := NewController(Options{
		Store:    pusher,
		Initial:  types.DefaultConfig(),
		Reloader: ReloadFunc(func(types.Config) { reloads.Add(1) }),
	})
	form := NewStaticForm(types.DefaultConfig())
	form.PortText = "2222"
	ctrl.SetForm(form)

	outcomes := make([]Outcome, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0], _ = ctrl.MaybeSave(context.Background())
	}()
	<-pusher.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[1], _ = ctrl.MaybeSave(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(pusher.release)
	wg.Wait()

	if got := pusher.calls.Load(); got != 1 {
		t.Errorf("SetConfig called %d times, want 1", got)
	}
	if got := reloads.Load(); got != 1 {
		t.Errorf("reloaded %d times, want 1", got)
	}
	if outcomes[0] != OutcomePushed || outcomes[1] != OutcomeUnchanged {
		t.Errorf("outcomes = %v, want [pushed unchanged]", outcomes)
	}
}

func TestMaybeSave_UnchangedIsNoOp(t *testing.T) {
	f := newFixture(t, false)

	outcome, err := f.ctrl.MaybeSave(context.Background())
	if err != nil || outcome != OutcomeUnchanged {
		t.Fatalf("MaybeSave() = (%s, %v), want unchanged", outcome, err)
	}
	if len(f.pusher.calls) != 0 || len(f.reloads) != 0 || len(f.notifier.phases) != 0 {
		t.Errorf("side effects on unchanged form: calls=%d reloads=%d notices=%v",
			len(f.pusher.calls), len(f.reloads), f.notifier.phases)
	}
}

func TestMaybeSave_FailureKeepsConfig(t *testing.T) {
	f := newFixture(t, false)
	f.form.Values.Editor.FontSize = 20
	f.pusher.err = errors.New("backend down")

	outcome, err := f.ctrl.MaybeSave(context.Background())
	if outcome != OutcomeFailed || err == nil {
		t.Fatalf("MaybeSave() = (%s, %v), want failed", outcome, err)
	}
	if f.ctrl.Config().Editor.FontSize != 14 {
		t.Error("held config changed after failed push")
	}
	if len(f.reloads) != 0 {
		t.Error("reloaded after failed push")
	}
	if strings.Join(f.notifier.phases, ",") != "pending,failure" {
		t.Errorf("notifications = %v", f.notifier.phases)
	}
}

func TestMaybeSave_Skipped(t *testing.T) {
	t.Run("demo", func(t *testing.T) {
		f := newFixture(t, true)
		f.form.PortText = "2222"
		if outcome, _ := f.ctrl.MaybeSave(context.Background()); outcome != OutcomeSkipped {
			t.Errorf("outcome = %s, want skipped", outcome)
		}
		if len(f.pusher.calls) != 0 {
			t.Error("pushed in demo mode")
		}
	})

	t.Run("unmounted form", func(t *testing.T) {
		f := newFixture(t, false)
		f.form.PortText = "2222"
		f.form.Unmounted = true
		if outcome, _ := f.ctrl.MaybeSave(context.Background()); outcome != OutcomeSkipped {
			t.Errorf("outcome = %s, want skipped", outcome)
		}
	})

	t.Run("no form", func(t *testing.T) {
		f := newFixture(t, false)
		f.ctrl.SetForm(nil)
		if outcome, _ := f.ctrl.MaybeSave(context.Background()); outcome != OutcomeSkipped {
			t.Errorf("outcome = %s, want skipped", outcome)
		}
	})
}

func TestMaybeSave_InvalidNumber(t *testing.T) {
	f := newFixture(t, false)
	f.form.PortText = "twenty-two"

	outcome, err := f.ctrl.MaybeSave(context.Background())
	if outcome != OutcomeFailed || !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("MaybeSave() = (%s, %v), want ErrInvalidForm", outcome, err)
	}
	if len(f.pusher.calls) != 0 {
		t.Error("invalid form pushed")
	}
}

func TestBuildSnapshot(t *testing.T) {
	current := types.DefaultConfig()
	current.Explorer.Password = "keep-me"

	form := NewStaticForm(current)
	form.Values.Explorer.Password = "ignored"
	form.FontSizeText = " 16 "

	got, err := BuildSnapshot(current, form)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if got.Explorer.Password != "keep-me" {
		t.Errorf("password = %q, want carried over", got.Explorer.Password)
	}
	if got.Editor.FontSize != 16 {
		t.Errorf("fontSize = %d, want 16", got.Editor.FontSize)
	}

	form.PortText = "70000"
	if _, err := BuildSnapshot(current, form); err == nil {
		t.Error("out of range port accepted")
	}
}

func TestAttach_DialogCloseFilter(t *testing.T) {
	f := newFixture(t, false)
	bus := events.New()
	keys := keybinds.NewListeners()
	f.form.PortText = "2222"

	detach := f.ctrl.Attach(bus, "settings", keys)

	bus.EmitDialogClose("sysinfo")
	if len(f.pusher.calls) != 0 {
		t.Fatal("push triggered by another dialog")
	}

	bus.EmitDialogClose("settings")
	if len(f.pusher.calls) != 1 {
		t.Fatalf("SetConfig called %d times, want 1", len(f.pusher.calls))
	}

	detach()
	detach()
	if bus.Count(events.DialogClose) != 0 || keys.Len() != 0 {
		t.Errorf("subscriptions left after detach: bus=%d keys=%d", bus.Count(events.DialogClose), keys.Len())
	}
}

func TestAttach_SaveKey(t *testing.T) {
	f := newFixture(t, false)
	keys := keybinds.NewListeners()
	requested := 0
	f.ctrl.saveRequested = func() { requested++ }

	detach := f.ctrl.Attach(events.New(), "settings", keys)
	defer detach()

	if keys.Dispatch(keybinds.ActionUndo) {
		t.Error("undo consumed by settings listener")
	}
	if !keys.Dispatch(keybinds.ActionSave) || requested != 1 {
		t.Errorf("save action not routed, requested = %d", requested)
	}
}

func TestDiff(t *testing.T) {
	from := types.DefaultConfig()
	to := from
	to.Terminal.Port = 2222
	to.Terminal.Password = "pw"

	changes := Diff(from, to)
	if len(changes) != 2 {
		t.Fatalf("Diff() = %v", changes)
	}
	if changes[0].Field != "terminal.password" || changes[0].String() != "terminal.password changed" {
		t.Errorf("password change = %q", changes[0].String())
	}
	if changes[1].String() != "terminal.port: 22 -> 2222" {
		t.Errorf("port change = %q", changes[1].String())
	}
}

func TestDiff_CoversEveryField(t *testing.T) {
	from := types.DefaultConfig()
	to := types.Config{
		Explorer: types.ExplorerConfig{Root: "D:", Password: "x", DisplayHiddenFile: true},
		Editor:   types.EditorConfig{LineNumber: false, AutoWrap: true, HighlightActiveLine: false, FontSize: 20},
		Terminal: types.TerminalConfig{IP: "10.0.0.1", Port: 2200, Username: "root", Password: "pw"},
	}

	if got := len(Diff(from, to)); got != 11 {
		t.Errorf("Diff() found %d changes, want 11", got)
	}
	if got := Diff(to, to); len(got) != 0 {
		t.Errorf("Diff() of equal configs = %v", got)
	}
}
