package keymaps

// Windows virtual key codes
const (
	VK_SPACE  = 0x20
	VK_A      = 0x41
	VK_Z      = 0x5A
	VK_OEM_1  = 0xBA // ;:
	VK_OEM_2  = 0xBF // /?
	VK_OEM_4  = 0xDB // [{
	VK_OEM_5  = 0xDC // \|
	VK_OEM_6  = 0xDD // ]}
	VK_OEM_7  = 0xDE // '"
	VK_SHIFT  = 0x10
	VK_LSHIFT = 0xA0
	VK_RSHIFT = 0xA1
)

// GetWindowsVKTable returns the translation table for low-level hook
// virtual key codes.
func GetWindowsVKTable() KeyCodeTable {
	t := KeyCodeTable{
		VK_OEM_1: Semicolon,
		VK_OEM_7: Apostrophe,
		VK_OEM_4: LeftBracket,
		VK_OEM_6: RightBracket,
		VK_OEM_5: Backslash,
		VK_OEM_2: Slash,
		VK_SPACE: Space,
	}
	for vk := uint16(VK_A); vk <= VK_Z; vk++ {
		t[vk] = Char(rune(vk))
	}
	return t
}

// RegisterWindowsVKTable registers the virtual key table with the provider
func RegisterWindowsVKTable(provider *KeyCodeProvider) {
	provider.RegisterTable(SourceWindowsVK, GetWindowsVKTable())
}
