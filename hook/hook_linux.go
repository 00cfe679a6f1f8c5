//go:build linux

package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bendahl/uinput"
	"github.com/fsnotify/fsnotify"
	evdev "github.com/gvalkov/golang-evdev"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/keymaps"
)

// deviceSettle is how long a new /dev/input node is given before it is opened.
const deviceSettle = 200 * time.Millisecond

type deviceEvent struct {
	dev *inputDevice
	ev  evdev.InputEvent
}

// linuxInterceptor grabs the physical keyboards and re-emits every keystroke
// through a uinput keyboard. Replacement characters are typed on the same
// virtual keyboard. One dispatcher goroutine owns the Engine; the per-device
// readers only feed it.
type linuxInterceptor struct {
	cfg   Config
	log   *slog.Logger
	stats *Stats

	running atomic.Bool

	mu       sync.Mutex
	keyboard uinput.Keyboard
	devices  map[string]*inputDevice
	watcher  *fsnotify.Watcher

	cancel  context.CancelFunc
	events  chan deviceEvent
	done    chan struct{}
	readers sync.WaitGroup
}

func newPlatformInterceptor(cfg Config, log *slog.Logger) Interceptor {
	return &linuxInterceptor{cfg: cfg, log: log, stats: &Stats{}}
}

func (l *linuxInterceptor) Start(g *gate.Gate) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %w", ErrHookInstall, ErrAlreadyRunning)
	}
	if err := setActive(l, l.release); err != nil {
		l.running.Store(false)
		return fmt.Errorf("%w: %w", ErrHookInstall, err)
	}

	if err := l.install(g); err != nil {
		if l.cancel != nil {
			l.cancel()
		}
		if release := takeActive(l); release != nil {
			if rerr := release(); rerr != nil {
				l.log.Warn("cleanup after failed start", "error", rerr)
			}
		}
		l.readers.Wait()
		l.running.Store(false)
		return fmt.Errorf("%w: %w", ErrHookInstall, err)
	}
	return nil
}

func (l *linuxInterceptor) install(g *gate.Gate) error {
	keyboard, err := uinput.CreateKeyboard(l.cfg.UinputPath, []byte(l.cfg.VirtualName))
	if err != nil {
		return fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	l.mu.Lock()
	l.keyboard = keyboard
	l.devices = make(map[string]*inputDevice)
	l.mu.Unlock()

	devices, err := FindInputDevices(l.cfg.Devices, l.cfg.VirtualName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.events = make(chan deviceEvent, 64)
	l.done = make(chan struct{})

	grabbed := 0
	for _, dev := range devices {
		if err := l.attach(ctx, dev); err != nil {
			l.log.Warn("skipping keyboard", "name", dev.name, "path", dev.path, "error", err)
			continue
		}
		grabbed++
	}
	if grabbed == 0 {
		return errors.New("could not grab any keyboard")
	}

	if l.cfg.WatchDevices {
		if err := l.watch(ctx); err != nil {
			l.log.Warn("not watching for new keyboards", "error", err)
		}
	}

	engine := NewEngine(g, keymaps.CreateDefaultKeyCodeProvider().GetTable(keymaps.SourceEvdev), l.stats, l.log)
	go l.dispatch(ctx, engine, keyboard)

	l.log.Info("keyboard hook installed", "keyboards", grabbed, "virtual", l.cfg.VirtualName)
	return nil
}

func (l *linuxInterceptor) Stop() error {
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}

	l.cancel()
	<-l.done

	err := releaseOwner(l)
	l.readers.Wait()

	l.log.Info("keyboard hook released", "stats", l.stats.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHookRelease, err)
	}
	return nil
}

func (l *linuxInterceptor) IsRunning() bool {
	return l.running.Load()
}

// release ungrabs every keyboard and closes the virtual one. It may run on
// any goroutine, once.
func (l *linuxInterceptor) release() error {
	l.mu.Lock()
	devices, watcher, keyboard := l.devices, l.watcher, l.keyboard
	l.devices, l.watcher, l.keyboard = nil, nil, nil
	l.mu.Unlock()

	var errs []error
	if watcher != nil {
		errs = append(errs, watcher.Close())
	}
	for _, dev := range devices {
		if err := dev.device.Release(); err != nil {
			errs = append(errs, fmt.Errorf("ungrab %s: %w", dev.name, err))
		}
		dev.device.File.Close()
	}
	if keyboard != nil {
		errs = append(errs, keyboard.Close())
	}
	return errors.Join(errs...)
}

// attach grabs dev and starts its reader.
func (l *linuxInterceptor) attach(ctx context.Context, dev *inputDevice) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.devices == nil || ctx.Err() != nil {
		dev.device.File.Close()
		return errors.New("interceptor stopping")
	}
	if err := dev.device.Grab(); err != nil {
		dev.device.File.Close()
		return fmt.Errorf("failed to grab %s: %w", dev.name, err)
	}
	l.devices[dev.path] = dev
	l.log.Info("grabbed keyboard", "name", dev.name, "path", dev.path, "type", dev.keyboardType)

	l.readers.Add(1)
	go l.read(ctx, dev)
	return nil
}

// detach forgets a keyboard that went away.
func (l *linuxInterceptor) detach(dev *inputDevice) {
	l.mu.Lock()
	if l.devices[dev.path] == dev {
		delete(l.devices, dev.path)
	}
	l.mu.Unlock()

	dev.device.Release()
	dev.device.File.Close()
}

func (l *linuxInterceptor) read(ctx context.Context, dev *inputDevice) {
	defer l.readers.Done()
	defer ReleaseOnPanic(l.log)
	for {
		event, err := dev.device.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				l.log.Warn("keyboard went away", "name", dev.name, "path", dev.path, "error", err)
				l.detach(dev)
			}
			return
		}
		if event.Type != evKey {
			continue
		}
		select {
		case l.events <- deviceEvent{dev: dev, ev: *event}:
		case <-ctx.Done():
			return
		}
	}
}

// dispatch is the hook thread: the only goroutine that touches the Engine.
func (l *linuxInterceptor) dispatch(ctx context.Context, engine *Engine, keyboard uinput.Keyboard) {
	defer close(l.done)
	defer ReleaseOnPanic(l.log)

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	var held []uint16
	swallowed := make(map[uint16]bool)
	shift := func() bool { return len(held) > 0 }

	for {
		select {
		case <-ctx.Done():
			engine.Reset()
			return

		case de := <-l.events:
			code := de.ev.Code
			var down bool
			switch de.ev.Value {
			case keyPressed, keyRepeated:
				down = true
			case keyReleased:
			default:
				continue
			}
			if code == keymaps.KeyLeftShift || code == keymaps.KeyRightShift {
				held = setHeld(held, code, down)
			}

			// Drop the release of a key whose press was replaced.
			if !down && swallowed[code] {
				delete(swallowed, code)
				continue
			}

			d := engine.Handle(RawEvent{Code: code, Down: down}, shift)
			if d.Forward {
				if err := emit(keyboard, code, down); err != nil {
					l.log.Debug("forward failed", "device", de.dev.name, "code", code, "error", err)
				}
				continue
			}
			swallowed[code] = true
			l.inject(keyboard, d.Inject, held)

		case <-ticker.C:
			if d, ok := engine.Tick(); ok {
				l.inject(keyboard, d.Inject, held)
			}
		}
	}
}

func (l *linuxInterceptor) inject(keyboard uinput.Keyboard, rs []rune, held []uint16) {
	err := injectAll(rs, func(r rune) error {
		for _, s := range planRune(r, held) {
			if err := emit(keyboard, s.code, s.down); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.stats.injectFailures.Add(1)
		l.log.Warn("dropping keystroke", "error", err)
	}
}

func emit(keyboard uinput.Keyboard, code uint16, down bool) error {
	if down {
		return keyboard.KeyDown(int(code))
	}
	return keyboard.KeyUp(int(code))
}

func setHeld(held []uint16, code uint16, down bool) []uint16 {
	if down {
		if containsCode(held, code) {
			return held
		}
		return append(held, code)
	}
	out := held[:0]
	for _, c := range held {
		if c != code {
			out = append(out, c)
		}
	}
	return out
}

// watch grabs keyboards plugged in after Start.
func (l *linuxInterceptor) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(inputGlob)); err != nil {
		w.Close()
		return err
	}

	l.mu.Lock()
	l.watcher = w
	l.mu.Unlock()

	l.readers.Add(1)
	go l.watchLoop(ctx, w)
	return nil
}

func (l *linuxInterceptor) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer l.readers.Done()
	defer ReleaseOnPanic(l.log)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) || !isEventNode(event.Name) {
				continue
			}

			// Wait for udev to set permissions on the new node.
			select {
			case <-time.After(deviceSettle):
			case <-ctx.Done():
				return
			}

			l.mu.Lock()
			_, known := l.devices[event.Name]
			l.mu.Unlock()
			if known {
				continue
			}

			dev, err := openKeyboard(event.Name, l.cfg.Devices, l.cfg.VirtualName)
			if err != nil {
				l.log.Debug("cannot open new input device", "path", event.Name, "error", err)
				continue
			}
			if dev == nil {
				continue
			}
			if err := l.attach(ctx, dev); err != nil {
				l.log.Warn("skipping keyboard", "name", dev.name, "path", dev.path, "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.log.Warn("device watcher error", "error", err)
		}
	}
}
