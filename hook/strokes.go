package hook

import (
	"fmt"

	"github.com/goGhostKeys/keymaps"
)

// keyStep is one transition on a virtual keyboard.
type keyStep struct {
	code uint16
	down bool
}

// planRune returns the key transitions that type r on a virtual US keyboard
// whose shift keys in held are currently down. Shift is released or pressed
// as each stroke needs and left exactly as it was found.
//
// Printable ASCII is typed directly. Anything else goes through Ctrl+Shift+U,
// the hex code point and Space, which GTK and IBus read as Unicode entry.
func planRune(r rune, held []uint16) []keyStep {
	p := &stepPlanner{held: held, down: append([]uint16(nil), held...)}

	if s, ok := keymaps.USStroke(r); ok {
		p.tap(s)
	} else {
		u, _ := keymaps.EvdevLetter('u')
		p.setShift(true)
		p.press(keymaps.KeyLeftCtrl, true)
		p.tap(keymaps.Stroke{Code: u, Shift: true})
		p.press(keymaps.KeyLeftCtrl, false)
		for _, h := range fmt.Sprintf("%x", r) {
			s, _ := keymaps.USStroke(h)
			p.tap(s)
		}
		p.tap(keymaps.Stroke{Code: keymaps.KeySpace})
	}
	p.restore()
	return p.steps
}

type stepPlanner struct {
	steps []keyStep
	held  []uint16
	down  []uint16
}

func (p *stepPlanner) press(code uint16, down bool) {
	p.steps = append(p.steps, keyStep{code: code, down: down})
}

func (p *stepPlanner) tap(s keymaps.Stroke) {
	p.setShift(s.Shift)
	p.press(s.Code, true)
	p.press(s.Code, false)
}

func (p *stepPlanner) setShift(want bool) {
	switch {
	case want && len(p.down) == 0:
		p.press(keymaps.KeyLeftShift, true)
		p.down = []uint16{keymaps.KeyLeftShift}
	case !want && len(p.down) > 0:
		for _, code := range p.down {
			p.press(code, false)
		}
		p.down = nil
	}
}

func (p *stepPlanner) restore() {
	for _, code := range p.down {
		if !containsCode(p.held, code) {
			p.press(code, false)
		}
	}
	for _, code := range p.held {
		if !containsCode(p.down, code) {
			p.press(code, true)
		}
	}
}

func containsCode(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
