package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the slice of the Telegram bot API the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers notifications as Markdown messages via the
// Telegram Bot API.
type TelegramNotifier struct {
	api sender
}

// NewTelegramNotifier creates a notifier backed by the given bot API.
func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

// Deliver sends the notification to the destination chat. A message the
// Markdown parser rejects is resent once as plain text; the watermark is
// already committed by then, so a formatting defect must not lose the
// notification outright. Transient failures stay single-attempt.
func (t *TelegramNotifier) Deliver(ctx context.Context, chatID string, n Notification) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return &DeliveryError{ChatID: chatID, Err: fmt.Errorf("invalid chat id: %w", err)}
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{ChatID: chatID, Err: err}
	}

	msg := tgbotapi.NewMessage(id, RenderMessage(n))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		if !isBadRequest(err) {
			return &DeliveryError{ChatID: chatID, Err: err}
		}
		msg.ParseMode = ""
		if _, err := t.api.Send(msg); err != nil {
			return &DeliveryError{ChatID: chatID, Err: err}
		}
	}
	return nil
}

// isBadRequest reports whether the bot API rejected the request itself,
// which for a well-formed send means the entity parser choked on the text.
func isBadRequest(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest
}

// RenderMessage formats the notification as Telegram Markdown: the expanded
// body followed by channel, publish time, thumbnail, and the watch link.
func RenderMessage(n Notification) string {
	var b strings.Builder
	b.WriteString("🎥 *New Video Published!*\n\n")
	b.WriteString(n.Body)
	b.WriteString("\n")
	if n.ChannelTitle != "" {
		b.WriteString(fmt.Sprintf("\n*Channel:* %s", EscapeMarkdown(n.ChannelTitle)))
	}
	if !n.Published.IsZero() {
		b.WriteString(fmt.Sprintf("\n*Published:* %s", n.Published.Format("02 Jan 2006 15:04 MST")))
	}
	if n.ThumbnailURL != "" {
		b.WriteString(fmt.Sprintf("\n[thumbnail](%s)", n.ThumbnailURL))
	}
	if n.URL != "" && !strings.Contains(n.Body, n.URL) {
		b.WriteString("\n")
		b.WriteString(n.URL)
	}
	return b.String()
}

// EscapeMarkdown escapes user-controlled text embedded in Markdown replies.
func EscapeMarkdown(s string) string {
	repl := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return repl.Replace(s)
}
