//go:build windows

package hook

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/keymaps"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSetTimer            = user32.NewProc("SetTimer")
	procKillTimer           = user32.NewProc("KillTimer")
	procSendInput           = user32.NewProc("SendInput")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104
	wmTimer      = 0x0113

	llkhfInjected = 0x10

	inputKeyboard    = 1
	keyeventfKeyUp   = 0x0002
	keyeventfUnicode = 0x0004

	// injectMarker tags our own SendInput events in dwExtraInfo.
	injectMarker = 0x47484B53
)

type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// keyboardInput is INPUT with the keyboard arm of the union; the padding
// brings it to the size of the mouse arm.
type keyboardInput struct {
	inputType uint32
	ki        keybdInput
	_         [8]byte
}

type point struct{ x, y int32 }

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
	private uint32
}

// The OS calls one C function pointer for the hook. Callbacks are a scarce
// resource in the runtime, so it is created once and dispatches to whichever
// interceptor is installed.
var (
	hookCallback     uintptr
	hookCallbackOnce sync.Once
	current          atomic.Pointer[windowsInterceptor]
)

// windowsInterceptor installs a WH_KEYBOARD_LL hook on a dedicated, locked
// OS thread that pumps messages. The hook callback and the accent timer both
// run on that thread, so the Engine needs no locking.
type windowsInterceptor struct {
	cfg   Config
	log   *slog.Logger
	stats *Stats

	running  atomic.Bool
	hhook    atomic.Uintptr
	threadID uint32
	engine   *Engine
	done     chan struct{}

	// releaseErr is set by run before done closes.
	releaseErr error
}

func newPlatformInterceptor(cfg Config, log *slog.Logger) Interceptor {
	return &windowsInterceptor{cfg: cfg, log: log, stats: &Stats{}}
}

func (w *windowsInterceptor) Start(g *gate.Gate) error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %w", ErrHookInstall, ErrAlreadyRunning)
	}
	if err := setActive(w, w.unhook); err != nil {
		w.running.Store(false)
		return fmt.Errorf("%w: %w", ErrHookInstall, err)
	}

	w.done = make(chan struct{})
	started := make(chan error, 1)
	go w.run(g, started)

	if err := <-started; err != nil {
		<-w.done
		takeActive(w)
		w.running.Store(false)
		return fmt.Errorf("%w: %w", ErrHookInstall, err)
	}
	w.log.Info("keyboard hook installed", "thread", w.threadID)
	return nil
}

func (w *windowsInterceptor) Stop() error {
	if !w.running.CompareAndSwap(true, false) {
		return nil
	}

	procPostThreadMessageW.Call(uintptr(w.threadID), wmQuit, 0, 0)
	<-w.done

	err := errors.Join(w.releaseErr, releaseOwner(w))
	w.log.Info("keyboard hook released", "stats", w.stats.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHookRelease, err)
	}
	return nil
}

func (w *windowsInterceptor) IsRunning() bool {
	return w.running.Load()
}

// unhook removes the hook. Safe from any thread, and only the first call
// does anything.
func (w *windowsInterceptor) unhook() error {
	h := w.hhook.Swap(0)
	if h == 0 {
		return nil
	}
	r, _, err := procUnhookWindowsHookEx.Call(h)
	if r == 0 {
		return fmt.Errorf("UnhookWindowsHookEx: %w", err)
	}
	return nil
}

// run is the hook thread.
func (w *windowsInterceptor) run(g *gate.Gate, started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)
	defer ReleaseOnPanic(w.log)

	hookCallbackOnce.Do(func() {
		hookCallback = windows.NewCallback(keyboardProc)
	})

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		started <- fmt.Errorf("GetModuleHandleEx: %w", err)
		return
	}

	w.engine = NewEngine(g, keymaps.CreateDefaultKeyCodeProvider().GetTable(keymaps.SourceWindowsVK), w.stats, w.log)
	w.threadID = windows.GetCurrentThreadId()
	current.Store(w)
	defer current.CompareAndSwap(w, nil)

	h, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookCallback, uintptr(module), 0)
	if h == 0 {
		started <- fmt.Errorf("SetWindowsHookExW: %w", err)
		return
	}
	w.hhook.Store(h)

	timer, _, err := procSetTimer.Call(0, 0, uintptr(w.cfg.TickInterval.Milliseconds()), 0)
	if timer == 0 {
		w.log.Warn("accent timeout timer unavailable", "error", err)
	}
	started <- nil

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
		if m.message == wmTimer {
			if d, ok := w.engine.Tick(); ok {
				w.inject(d.Inject)
			}
		}
	}

	if timer != 0 {
		procKillTimer.Call(0, timer)
	}
	w.engine.Reset()

	// The hook must not outlive its message loop.
	w.releaseErr = releaseOwner(w)
}

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) (ret uintptr) {
	w := current.Load()
	if nCode < 0 || w == nil {
		return callNext(nCode, wParam, lParam)
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("recovered panic in keyboard callback", "panic", fmt.Sprint(r))
			ret = callNext(nCode, wParam, lParam)
		}
	}()

	kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
	ev := RawEvent{
		Code:     uint16(kb.vkCode),
		Down:     wParam == wmKeyDown || wParam == wmSysKeyDown,
		Injected: kb.flags&llkhfInjected != 0 || kb.dwExtraInfo == injectMarker,
	}

	d := w.engine.Handle(ev, shiftDown)
	if d.Forward {
		return callNext(nCode, wParam, lParam)
	}
	w.inject(d.Inject)
	return 1
}

func callNext(nCode int, wParam, lParam uintptr) uintptr {
	r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

func shiftDown() bool {
	r, _, _ := procGetAsyncKeyState.Call(keymaps.VK_SHIFT)
	return int16(r) < 0
}

func (w *windowsInterceptor) inject(rs []rune) {
	if err := injectAll(rs, sendUnicode); err != nil {
		w.stats.injectFailures.Add(1)
		w.log.Warn("dropping keystroke", "error", err)
	}
}

// sendUnicode types r with KEYEVENTF_UNICODE, which bypasses the active
// keyboard layout.
func sendUnicode(r rune) error {
	units := utf16.Encode([]rune{r})
	inputs := make([]keyboardInput, 0, 2*len(units))
	for _, u := range units {
		inputs = append(inputs,
			keyboardInput{inputType: inputKeyboard, ki: keybdInput{wScan: u, dwFlags: keyeventfUnicode, dwExtraInfo: injectMarker}},
			keyboardInput{inputType: inputKeyboard, ki: keybdInput{wScan: u, dwFlags: keyeventfUnicode | keyeventfKeyUp, dwExtraInfo: injectMarker}},
		)
	}
	n, _, err := procSendInput.Call(uintptr(len(inputs)), uintptr(unsafe.Pointer(&inputs[0])), unsafe.Sizeof(inputs[0]))
	if int(n) != len(inputs) {
		return fmt.Errorf("SendInput sent %d of %d events: %w", n, len(inputs), err)
	}
	return nil
}
