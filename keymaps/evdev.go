package keymaps

// Key codes from linux/input-event-codes.h
const (
	KeyEsc        = 1
	Key1          = 2
	Key0          = 11
	KeyMinus      = 12
	KeyEqual      = 13
	KeyTab        = 15
	KeyQ          = 16
	KeyLeftBrace  = 26
	KeyRightBrace = 27
	KeyEnter      = 28
	KeyLeftCtrl   = 29
	KeyA          = 30
	KeySemicolon  = 39
	KeyApostrophe = 40
	KeyGrave      = 41
	KeyLeftShift  = 42
	KeyBackslash  = 43
	KeyZ          = 44
	KeyComma      = 51
	KeyDot        = 52
	KeySlash      = 53
	KeyRightShift = 54
	KeySpace      = 57
	KeyRightCtrl  = 97
)

// evdev codes for the letter keys, indexed by letter
var evdevLetters = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, 50, // A-M
	49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44, // N-Z
}

// EvdevLetter returns the evdev code for an upper- or lower-case ASCII letter.
func EvdevLetter(c rune) (uint16, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return evdevLetters[c-'a'], true
	case c >= 'A' && c <= 'Z':
		return evdevLetters[c-'A'], true
	}
	return 0, false
}

// GetEvdevTable returns the translation table for standard PC keyboards
// read through /dev/input.
func GetEvdevTable() KeyCodeTable {
	t := KeyCodeTable{
		KeySemicolon:  Semicolon,
		KeyApostrophe: Apostrophe,
		KeyLeftBrace:  LeftBracket,
		KeyRightBrace: RightBracket,
		KeyBackslash:  Backslash,
		KeySlash:      Slash,
		KeySpace:      Space,
	}
	for i, code := range evdevLetters {
		t[code] = Char(rune('A' + i))
	}
	return t
}

// RegisterEvdevTable registers the evdev table with the provider
func RegisterEvdevTable(provider *KeyCodeProvider) {
	provider.RegisterTable(SourceEvdev, GetEvdevTable())
}

// Stroke is one key on a US keyboard and whether it needs shift.
type Stroke struct {
	Code  uint16
	Shift bool
}

// usSymbols maps the printable non-letter ASCII characters to US keys.
var usSymbols = map[rune]Stroke{
	' ': {KeySpace, false},
	'1': {Key1, false}, '!': {Key1, true},
	'2': {Key1 + 1, false}, '@': {Key1 + 1, true},
	'3': {Key1 + 2, false}, '#': {Key1 + 2, true},
	'4': {Key1 + 3, false}, '$': {Key1 + 3, true},
	'5': {Key1 + 4, false}, '%': {Key1 + 4, true},
	'6': {Key1 + 5, false}, '^': {Key1 + 5, true},
	'7': {Key1 + 6, false}, '&': {Key1 + 6, true},
	'8': {Key1 + 7, false}, '*': {Key1 + 7, true},
	'9': {Key1 + 8, false}, '(': {Key1 + 8, true},
	'0': {Key0, false}, ')': {Key0, true},
	'-': {KeyMinus, false}, '_': {KeyMinus, true},
	'=': {KeyEqual, false}, '+': {KeyEqual, true},
	'[': {KeyLeftBrace, false}, '{': {KeyLeftBrace, true},
	']': {KeyRightBrace, false}, '}': {KeyRightBrace, true},
	';': {KeySemicolon, false}, ':': {KeySemicolon, true},
	'\'': {KeyApostrophe, false}, '"': {KeyApostrophe, true},
	'`': {KeyGrave, false}, '~': {KeyGrave, true},
	'\\': {KeyBackslash, false}, '|': {KeyBackslash, true},
	',': {KeyComma, false}, '<': {KeyComma, true},
	'.': {KeyDot, false}, '>': {KeyDot, true},
	'/': {KeySlash, false}, '?': {KeySlash, true},
}

// USStroke returns the US-layout key that types r directly. Only printable
// ASCII has one.
func USStroke(r rune) (Stroke, bool) {
	if code, ok := EvdevLetter(r); ok {
		return Stroke{Code: code, Shift: r >= 'A' && r <= 'Z'}, true
	}
	s, ok := usSymbols[r]
	return s, ok
}
