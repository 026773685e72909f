// Package send delivers formatted messages to notification channels.
package send

import (
	"fmt"

	"github.com/afrpush/afrpush/internal/model"
)

// Senders never return Go errors from delivery calls: every attempt,
// success or failure, is a regular DeliveryResult consumed by the router
// and the store's attempt log.

// Sender delivers a text message to a channel target.
type Sender interface {
	Name() string
	Send(target, message string) model.DeliveryResult
}

// ImageSender is the optional image capability of a Sender.
type ImageSender interface {
	SendImage(target, imagePath string) model.DeliveryResult
}

// maxExcerptLen caps response excerpts stored with delivery attempts.
const maxExcerptLen = 400

func excerpt(s string) string {
	if len(s) <= maxExcerptLen {
		return s
	}
	return s[:maxExcerptLen]
}

func unsupportedImage(channel string) model.DeliveryResult {
	return model.DeliveryResult{
		Channel:      channel,
		Success:      false,
		ErrorMessage: fmt.Sprintf("channel %s does not support image delivery", channel),
	}
}
