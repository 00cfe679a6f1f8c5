package keymaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProviderTables(t *testing.T) {
	p := CreateDefaultKeyCodeProvider()

	tests := []struct {
		name   string
		source int
		code   uint16
		want   VirtualKey
	}{
		{"evdev semicolon", SourceEvdev, KeySemicolon, Semicolon},
		{"evdev apostrophe", SourceEvdev, KeyApostrophe, Apostrophe},
		{"evdev left brace", SourceEvdev, KeyLeftBrace, LeftBracket},
		{"evdev right brace", SourceEvdev, KeyRightBrace, RightBracket},
		{"evdev backslash", SourceEvdev, KeyBackslash, Backslash},
		{"evdev slash", SourceEvdev, KeySlash, Slash},
		{"evdev space", SourceEvdev, KeySpace, Space},
		{"evdev a", SourceEvdev, KeyA, Char('a')},
		{"evdev q", SourceEvdev, KeyQ, Char('q')},
		{"evdev z", SourceEvdev, KeyZ, Char('z')},
		{"evdev enter", SourceEvdev, KeyEnter, Other},
		{"evdev shift", SourceEvdev, KeyLeftShift, Other},
		{"vk semicolon", SourceWindowsVK, VK_OEM_1, Semicolon},
		{"vk apostrophe", SourceWindowsVK, VK_OEM_7, Apostrophe},
		{"vk left bracket", SourceWindowsVK, VK_OEM_4, LeftBracket},
		{"vk right bracket", SourceWindowsVK, VK_OEM_6, RightBracket},
		{"vk backslash", SourceWindowsVK, VK_OEM_5, Backslash},
		{"vk slash", SourceWindowsVK, VK_OEM_2, Slash},
		{"vk space", SourceWindowsVK, VK_SPACE, Space},
		{"vk A", SourceWindowsVK, VK_A, Char('A')},
		{"vk Z", SourceWindowsVK, VK_Z, Char('Z')},
		{"vk shift", SourceWindowsVK, VK_SHIFT, Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.GetTable(tt.source).Lookup(tt.code))
		})
	}
}

func TestEvdevTableCoversAlphabet(t *testing.T) {
	table := GetEvdevTable()
	seen := map[rune]bool{}
	for _, k := range table {
		if k.Kind == KindChar {
			seen[k.Char] = true
		}
	}
	assert.Len(t, seen, 26)
}

func TestUnknownSourceTranslatesToOther(t *testing.T) {
	p := NewKeyCodeProvider()
	assert.Equal(t, Other, p.GetTable(SourceEvdev).Lookup(KeySemicolon))

	p.RegisterTable(SourceEvdev, KeyCodeTable{KeySemicolon: Semicolon})
	assert.Equal(t, Semicolon, p.GetTable(SourceEvdev).Lookup(KeySemicolon))
}

func TestGetKeyboardType(t *testing.T) {
	assert.Equal(t, KBD_TYPE_LAPTOP, GetKeyboardType("AT Translated Set 2 keyboard"))
	assert.Equal(t, KBD_TYPE_EXTERNAL, GetKeyboardType("Logitech USB Keyboard"))
	assert.Equal(t, KBD_TYPE_UNKNOWN, GetKeyboardType("Power Button"))
}

func TestCharOutsideAlphabetIsOther(t *testing.T) {
	assert.Equal(t, Other, Char('1'))
	assert.Equal(t, Other, Char('ç'))
	assert.Equal(t, Char('A'), Char('a'))
}

func TestUSStroke(t *testing.T) {
	tests := []struct {
		r    rune
		want Stroke
	}{
		{'a', Stroke{KeyA, false}},
		{'A', Stroke{KeyA, true}},
		{'[', Stroke{KeyLeftBrace, false}},
		{'{', Stroke{KeyLeftBrace, true}},
		{':', Stroke{KeySemicolon, true}},
		{'~', Stroke{KeyGrave, true}},
		{'`', Stroke{KeyGrave, false}},
		{'^', Stroke{Key1 + 5, true}},
		{'0', Stroke{Key0, false}},
	}
	for _, tt := range tests {
		got, ok := USStroke(tt.r)
		require.True(t, ok, "%q", tt.r)
		assert.Equal(t, tt.want, got, "%q", tt.r)
	}

	_, ok := USStroke('ç')
	assert.False(t, ok)
	_, ok = USStroke('´')
	assert.False(t, ok)
}
