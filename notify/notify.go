// Package notify delivers formatted new-upload notifications to the
// configured chat destination.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Notification is the payload handed to a Notifier. Body is the
// template-expanded message text; the remaining fields let the renderer
// build a richer message around it.
type Notification struct {
	Title        string
	Body         string
	ChannelTitle string
	Published    time.Time
	URL          string
	ThumbnailURL string
}

// DeliveryError reports a failed delivery attempt. The poller treats it as
// terminal for that notification: the watermark is already committed and
// the send is not retried.
type DeliveryError struct {
	ChatID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: deliver to %s: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier delivers a notification to a destination chat.
type Notifier interface {
	Deliver(ctx context.Context, chatID string, n Notification) error
}
