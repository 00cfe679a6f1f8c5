package keymaps

// positionKey indexes the direct and dead-key tables.
type positionKey struct {
	key   VirtualKey
	shift bool
}

type comboKey struct {
	accent AccentType
	base   rune
}

// layout holds the ABNT2 tables. A fresh copy is built for every Mapper and
// never written after that.
type layout struct {
	positions    map[positionKey]rune
	deadKeys     map[positionKey]AccentType
	combinations map[comboKey]rune
}

func newABNT2Layout() *layout {
	return &layout{
		// Keys whose ABNT2 character sits where the US key is.
		positions: map[positionKey]rune{
			{Semicolon, false}:    'ç', // next to L
			{Semicolon, true}:     'Ç',
			{RightBracket, false}: '[',
			{RightBracket, true}:  '{',
			{Backslash, false}:    ']', // above Enter
			{Backslash, true}:     '}',
			{Slash, false}:        ';', // next to .
			{Slash, true}:         ':',
		},
		deadKeys: map[positionKey]AccentType{
			{Apostrophe, false}:  Tilde,
			{Apostrophe, true}:   Circumflex,
			{LeftBracket, false}: Acute,
			{LeftBracket, true}:  Grave,
		},
		combinations: map[comboKey]rune{
			{Tilde, 'a'}: 'ã', {Tilde, 'A'}: 'Ã',
			{Tilde, 'o'}: 'õ', {Tilde, 'O'}: 'Õ',
			{Tilde, 'n'}: 'ñ', {Tilde, 'N'}: 'Ñ',

			{Acute, 'a'}: 'á', {Acute, 'A'}: 'Á',
			{Acute, 'e'}: 'é', {Acute, 'E'}: 'É',
			{Acute, 'i'}: 'í', {Acute, 'I'}: 'Í',
			{Acute, 'o'}: 'ó', {Acute, 'O'}: 'Ó',
			{Acute, 'u'}: 'ú', {Acute, 'U'}: 'Ú',

			{Grave, 'a'}: 'à', {Grave, 'A'}: 'À',

			{Circumflex, 'a'}: 'â', {Circumflex, 'A'}: 'Â',
			{Circumflex, 'e'}: 'ê', {Circumflex, 'E'}: 'Ê',
			{Circumflex, 'o'}: 'ô', {Circumflex, 'O'}: 'Ô',
		},
	}
}

// Combinations returns a copy of the accent combination table keyed by
// accent, then base character.
func Combinations() map[AccentType]map[rune]rune {
	out := make(map[AccentType]map[rune]rune)
	for k, v := range newABNT2Layout().combinations {
		if out[k.accent] == nil {
			out[k.accent] = make(map[rune]rune)
		}
		out[k.accent][k.base] = v
	}
	return out
}
