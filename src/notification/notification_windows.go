//go:build windows

package notification

import (
	"syscall"
	"unsafe"
)

const (
	MB_OK              = 0x00000000
	MB_ICONERROR       = 0x00000010
	MB_ICONINFORMATION = 0x00000040
	MB_SYSTEMMODAL     = 0x00001000
)

var (
	user32         = syscall.NewLazyDLL("user32.dll")
	procMessageBox = user32.NewProc("MessageBoxW")
)

func messageBox(title, message string, flags uintptr) {
	titlePtr, _ := syscall.UTF16PtrFromString(title)
	messagePtr, _ := syscall.UTF16PtrFromString(message)
	procMessageBox.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		flags,
	)
}

// ShowBlockingError shows a modal error dialog and returns when dismissed.
// Used for startup failures where the tray is not up yet.
func ShowBlockingError(title, message string) {
	messageBox(title, message, MB_OK|MB_ICONERROR|MB_SYSTEMMODAL)
}

func showWindowsPopup(text string) error {
	messageBox("Screen Chat", text, MB_OK|MB_ICONINFORMATION)
	return nil
}
