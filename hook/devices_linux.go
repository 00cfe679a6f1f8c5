//go:build linux

package hook

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/goGhostKeys/keymaps"
)

// Event type and code constants from linux/input-event-codes.h
const (
	evKey = 0x01

	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2
)

const inputGlob = "/dev/input/event*"

// inputDevice is a physical keyboard we grab.
type inputDevice struct {
	device       *evdev.InputDevice
	name         string
	path         string
	keyboardType int
}

// isKeyboard decides whether a device should be grabbed. Without a device
// list, the laptop keyboard and anything reporting letter keys, space and the
// semicolon key count. The uinput keyboard we write to is never grabbed.
func isKeyboard(name string, keys []int, wanted []string, virtualName string) bool {
	if name == virtualName {
		return false
	}
	if len(wanted) > 0 {
		return slices.Contains(wanted, name)
	}
	if keymaps.GetKeyboardType(name) == keymaps.KBD_TYPE_LAPTOP {
		return true
	}
	for _, code := range []int{keymaps.KeyA, keymaps.KeyZ, keymaps.KeySpace, keymaps.KeySemicolon} {
		if !slices.Contains(keys, code) {
			return false
		}
	}
	return true
}

// openKeyboard opens path and returns it when it is a keyboard we want.
// Devices that are not are closed again and reported as nil.
func openKeyboard(path string, wanted []string, virtualName string) (*inputDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	if !isKeyboard(dev.Name, dev.CapabilitiesFlat[evKey], wanted, virtualName) {
		dev.File.Close()
		return nil, nil
	}
	return &inputDevice{
		device:       dev,
		name:         dev.Name,
		path:         path,
		keyboardType: keymaps.GetKeyboardType(dev.Name),
	}, nil
}

// FindInputDevices locates the keyboards to grab.
func FindInputDevices(wanted []string, virtualName string) ([]*inputDevice, error) {
	var devices []*inputDevice

	devFiles, err := filepath.Glob(inputGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	for _, path := range devFiles {
		dev, err := openKeyboard(path, wanted, virtualName)
		if err != nil || dev == nil {
			continue
		}
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no suitable input devices found (need to be in the 'input' group or run as root)")
	}

	return devices, nil
}

// isEventNode reports whether a /dev/input entry is an evdev node.
func isEventNode(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "event")
}
