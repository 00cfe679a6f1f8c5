package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goGhostKeys/keymaps"
)

func down(code uint16) keyStep { return keyStep{code: code, down: true} }
func up(code uint16) keyStep   { return keyStep{code: code, down: false} }

func TestPlanRune(t *testing.T) {
	const (
		ls  = keymaps.KeyLeftShift
		rs  = keymaps.KeyRightShift
		lc  = keymaps.KeyLeftCtrl
		a   = keymaps.KeyA
		lb  = keymaps.KeyLeftBrace
		sp  = keymaps.KeySpace
		u   = 22
		e   = 18
		c   = 46
		k7  = keymaps.Key1 + 6
		sem = keymaps.KeySemicolon
	)

	tests := []struct {
		name string
		r    rune
		held []uint16
		want []keyStep
	}{
		{"lower letter", 'a', nil, []keyStep{down(a), up(a)}},
		{"upper letter", 'A', nil, []keyStep{down(ls), down(a), up(a), up(ls)}},
		{"unshifted under right shift", '[', []uint16{rs}, []keyStep{up(rs), down(lb), up(lb), down(rs)}},
		{"shifted under left shift", '{', []uint16{ls}, []keyStep{down(lb), up(lb)}},
		{"colon", ':', nil, []keyStep{down(ls), down(sem), up(sem), up(ls)}},
		{"cedilla", 'ç', nil, []keyStep{
			down(ls), down(lc), down(u), up(u), up(lc),
			up(ls), down(e), up(e), down(k7), up(k7),
			down(sp), up(sp),
		}},
		{"upper cedilla under shift", 'Ç', []uint16{ls}, []keyStep{
			down(lc), down(u), up(u), up(lc),
			up(ls), down(c), up(c), down(k7), up(k7),
			down(sp), up(sp),
			down(ls),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planRune(tt.r, tt.held))
		})
	}
}

// Every plan leaves the shift keys exactly as it found them.
func TestPlanRuneRestoresShift(t *testing.T) {
	heldSets := [][]uint16{nil, {keymaps.KeyLeftShift}, {keymaps.KeyRightShift}, {keymaps.KeyLeftShift, keymaps.KeyRightShift}}
	for _, r := range []rune{'a', 'Z', ';', ':', '~', '´', 'ã', 'Ô', '['} {
		for _, held := range heldSets {
			state := map[uint16]bool{}
			for _, c := range held {
				state[c] = true
			}
			for _, s := range planRune(r, held) {
				state[s.code] = s.down
			}
			for _, code := range []uint16{keymaps.KeyLeftShift, keymaps.KeyRightShift, keymaps.KeyLeftCtrl} {
				assert.Equal(t, containsCode(held, code), state[code], "rune %q held %v code %d", r, held, code)
			}
		}
	}
}
