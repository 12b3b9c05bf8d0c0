package notification

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// popupState tracks the single active popup (countdown or result text).
var (
	popupMu     sync.Mutex
	popupActive bool
	popupStop   chan struct{}
)

// ShowReply displays a temporary popup with the model reply, truncated to
// keep the window readable.
func ShowReply(text string) {
	displayText := text
	if len(text) > 200 {
		displayText = text[:200] + "..."
	}

	if runtime.GOOS == "windows" {
		go func() {
			if err := showWindowsPopup(displayText); err != nil {
				log.Printf("Failed to show notification: %v", err)
			}
		}()
		return
	}
	log.Printf("Reply: %s", displayText)
}

// StartCountdownPopup shows a popup counting down while a reply is pending.
// A later UpdatePopupText or ClosePopup ends the countdown.
func StartCountdownPopup(timeoutSeconds int) error {
	popupMu.Lock()
	defer popupMu.Unlock()

	if popupActive {
		close(popupStop)
	}
	popupActive = true
	stop := make(chan struct{})
	popupStop = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		remaining := timeoutSeconds
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining--
				if remaining <= 0 {
					return
				}
				log.Printf("Waiting for reply... %ds", remaining)
			}
		}
	}()
	return nil
}

// UpdatePopupText replaces the countdown with the final reply text.
func UpdatePopupText(text string) error {
	popupMu.Lock()
	if popupActive {
		close(popupStop)
		popupActive = false
	}
	popupMu.Unlock()

	ShowReply(text)
	return nil
}

// ClosePopup dismisses the current popup, if any.
func ClosePopup() error {
	popupMu.Lock()
	defer popupMu.Unlock()
	if popupActive {
		close(popupStop)
		popupActive = false
	}
	return nil
}
