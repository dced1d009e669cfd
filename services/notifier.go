package services

import (
	"github.com/restopilot/platform/utils"
)

// Notifier delivers operator-facing messages. Delivery (push, SMS, e-mail)
// lives outside this service; the engine only knows this interface.
type Notifier interface {
	Notify(recipient, message, channel string) error
}

// LogNotifier writes notifications to the application log. It is the default
// wiring when no external delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(recipient, message, channel string) error {
	if utils.InfoLogger != nil {
		utils.InfoLogger.Printf("notify [%s] %s: %s", channel, recipient, message)
	}
	return nil
}
