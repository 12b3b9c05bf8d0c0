package popup

import (
	"log"

	"screen-chat-llm/src/notification"
)

// Show displays a short-lived popup with the given text.
// This is a simple adapter on top of the notification package.
func Show(text string) error {
	log.Printf("Popup.Show called with %d characters", len(text))
	// Fire-and-forget: notification layer manages its own lifetime asynchronously.
	notification.ShowReply(text)
	return nil
}

// StartCountdown displays a countdown popup that updates every second.
func StartCountdown(timeoutSeconds int) error {
	log.Printf("Popup.StartCountdown called with %d seconds", timeoutSeconds)
	return notification.StartCountdownPopup(timeoutSeconds)
}

// UpdateText updates the text of the current popup (switches from countdown to reply).
func UpdateText(text string) error {
	log.Printf("Popup.UpdateText called with %d characters", len(text))
	return notification.UpdatePopupText(text)
}

// Close closes the current popup.
func Close() error {
	log.Printf("Popup.Close called")
	return notification.ClosePopup()
}
