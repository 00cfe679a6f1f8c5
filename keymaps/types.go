package keymaps

import "fmt"

// KeyKind identifies the physical key class of a VirtualKey.
type KeyKind uint8

const (
	KindOther KeyKind = iota
	KindSemicolon
	KindApostrophe
	KindLeftBracket
	KindRightBracket
	KindBackslash
	KindSlash
	KindSpace
	KindChar
)

// VirtualKey is a platform-independent key position. Char is only set for
// KindChar and always holds an upper-case ASCII letter.
type VirtualKey struct {
	Kind KeyKind
	Char rune
}

// Keys the mapper knows about
var (
	Semicolon    = VirtualKey{Kind: KindSemicolon}    // ; -> ç on ABNT2
	Apostrophe   = VirtualKey{Kind: KindApostrophe}   // ' -> tilde/circumflex dead key
	LeftBracket  = VirtualKey{Kind: KindLeftBracket}  // [ -> acute/grave dead key
	RightBracket = VirtualKey{Kind: KindRightBracket} // ] -> [ or {
	Backslash    = VirtualKey{Kind: KindBackslash}    // \ -> ] or }
	Slash        = VirtualKey{Kind: KindSlash}        // / -> ; or :
	Space        = VirtualKey{Kind: KindSpace}
	Other        = VirtualKey{Kind: KindOther}
)

// Char returns the VirtualKey for a letter key. Anything outside A-Z (either
// case) is Other.
func Char(c rune) VirtualKey {
	switch {
	case c >= 'a' && c <= 'z':
		return VirtualKey{Kind: KindChar, Char: c - 'a' + 'A'}
	case c >= 'A' && c <= 'Z':
		return VirtualKey{Kind: KindChar, Char: c}
	default:
		return Other
	}
}

func (k VirtualKey) String() string {
	switch k.Kind {
	case KindSemicolon:
		return "Semicolon"
	case KindApostrophe:
		return "Apostrophe"
	case KindLeftBracket:
		return "LeftBracket"
	case KindRightBracket:
		return "RightBracket"
	case KindBackslash:
		return "Backslash"
	case KindSlash:
		return "Slash"
	case KindSpace:
		return "Space"
	case KindChar:
		return fmt.Sprintf("Char(%c)", k.Char)
	default:
		return "Other"
	}
}

// AccentType is the accent a dead key is waiting to apply.
type AccentType uint8

const (
	Tilde AccentType = iota
	Acute
	Grave
	Circumflex
)

// Glyph returns the standalone accent character.
func (a AccentType) Glyph() rune {
	switch a {
	case Tilde:
		return '~'
	case Acute:
		return '´'
	case Grave:
		return '`'
	default:
		return '^'
	}
}

func (a AccentType) String() string {
	switch a {
	case Tilde:
		return "Tilde"
	case Acute:
		return "Acute"
	case Grave:
		return "Grave"
	default:
		return "Circumflex"
	}
}

// ActionKind says what to do with the original keystroke.
type ActionKind uint8

const (
	// ActionPass forwards the keystroke unmodified.
	ActionPass ActionKind = iota
	// ActionSuppress swallows the keystroke and produces nothing.
	ActionSuppress
	// ActionReplace swallows the keystroke and injects Chars in order.
	ActionReplace
)

// KeyAction is the mapper's verdict for one keystroke.
type KeyAction struct {
	Kind  ActionKind
	Chars []rune
}

func Pass() KeyAction     { return KeyAction{Kind: ActionPass} }
func Suppress() KeyAction { return KeyAction{Kind: ActionSuppress} }

// Replace swallows the original keystroke and injects r.
func Replace(r rune) KeyAction {
	return KeyAction{Kind: ActionReplace, Chars: []rune{r}}
}

// ReplaceMultiple swallows the original keystroke and injects rs in order.
func ReplaceMultiple(rs ...rune) KeyAction {
	return KeyAction{Kind: ActionReplace, Chars: rs}
}

func (a KeyAction) String() string {
	switch a.Kind {
	case ActionPass:
		return "Pass"
	case ActionSuppress:
		return "Suppress"
	default:
		if len(a.Chars) == 1 {
			return fmt.Sprintf("Replace(%q)", a.Chars[0])
		}
		return fmt.Sprintf("ReplaceMultiple(%q)", string(a.Chars))
	}
}

// MapperState is Idle or PendingAccent(Accent).
type MapperState struct {
	Pending bool
	Accent  AccentType
}

// Idle is the resting state.
var Idle = MapperState{}

// PendingAccent is the state after a dead key.
func PendingAccent(a AccentType) MapperState {
	return MapperState{Pending: true, Accent: a}
}

func (s MapperState) String() string {
	if !s.Pending {
		return "Idle"
	}
	return "PendingAccent(" + s.Accent.String() + ")"
}
