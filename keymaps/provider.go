package keymaps

import "strings"

// Define keyboard types
const (
	KBD_TYPE_UNKNOWN = iota
	KBD_TYPE_LAPTOP
	KBD_TYPE_EXTERNAL
)

// Key code sources
const (
	SourceEvdev = iota
	SourceWindowsVK
)

// KeyCodeTable translates native key codes into VirtualKeys. Codes that are
// not in the table translate to Other.
type KeyCodeTable map[uint16]VirtualKey

// Lookup translates a native key code.
func (t KeyCodeTable) Lookup(code uint16) VirtualKey {
	if k, ok := t[code]; ok {
		return k
	}
	return Other
}

// KeyCodeProvider provides translation tables for different code sources
type KeyCodeProvider struct {
	tables map[int]KeyCodeTable
}

// NewKeyCodeProvider creates a new provider with no tables
func NewKeyCodeProvider() *KeyCodeProvider {
	return &KeyCodeProvider{
		tables: map[int]KeyCodeTable{},
	}
}

// GetTable returns the translation table for the specified source. Unknown
// sources get an empty table, so every code translates to Other.
func (p *KeyCodeProvider) GetTable(source int) KeyCodeTable {
	table, exists := p.tables[source]
	if !exists {
		return KeyCodeTable{}
	}
	return table
}

// RegisterTable registers a translation table for a specific code source
func (p *KeyCodeProvider) RegisterTable(source int, table KeyCodeTable) {
	p.tables[source] = table
}

// CreateDefaultKeyCodeProvider creates and returns a provider with all default tables
func CreateDefaultKeyCodeProvider() *KeyCodeProvider {
	provider := NewKeyCodeProvider()

	RegisterEvdevTable(provider)
	RegisterWindowsVKTable(provider)

	return provider
}

// GetKeyboardType determines the keyboard type based on device name
func GetKeyboardType(deviceName string) int {
	switch {
	case deviceName == "AT Translated Set 2 keyboard":
		return KBD_TYPE_LAPTOP
	case strings.Contains(strings.ToLower(deviceName), "keyboard"):
		return KBD_TYPE_EXTERNAL
	default:
		return KBD_TYPE_UNKNOWN
	}
}
