package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func sampleNotification() Notification {
	return Notification{
		Title:        "My Video",
		Body:         "New: My Video https://www.youtube.com/watch?v=v1",
		ChannelTitle: "My Channel",
		Published:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		URL:          "https://www.youtube.com/watch?v=v1",
		ThumbnailURL: "https://i.ytimg.com/vi/v1/hqdefault.jpg",
	}
}

func TestTelegramNotifier_Deliver(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{api: sender}

	if err := n.Deliver(context.Background(), "12345", sampleNotification()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", sender.sent[0])
	}
	if msg.ChatID != 12345 {
		t.Errorf("ChatID = %d, want 12345", msg.ChatID)
	}
	if msg.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("ParseMode = %q, want Markdown", msg.ParseMode)
	}
	if !strings.Contains(msg.Text, "New: My Video") {
		t.Errorf("message text missing body: %q", msg.Text)
	}
}

func TestTelegramNotifier_DeliverBadChatID(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{api: sender}

	err := n.Deliver(context.Background(), "not-a-number", sampleNotification())
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Deliver() error = %v, want DeliveryError", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(sender.sent))
	}
}

func TestTelegramNotifier_DeliverSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	n := &TelegramNotifier{api: sender}

	err := n.Deliver(context.Background(), "12345", sampleNotification())
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Deliver() error = %v, want DeliveryError", err)
	}
	if derr.ChatID != "12345" {
		t.Errorf("ChatID = %q, want 12345", derr.ChatID)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d attempts, want 1 for a transient failure", len(sender.sent))
	}
}

// seqSender fails each send with the next queued error, nil once exhausted.
type seqSender struct {
	sent []tgbotapi.Chattable
	errs []error
}

func (f *seqSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if len(f.errs) == 0 {
		return tgbotapi.Message{}, nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return tgbotapi.Message{}, err
}

func TestTelegramNotifier_DeliverFallsBackToPlainText(t *testing.T) {
	sender := &seqSender{errs: []error{
		&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"},
	}}
	n := &TelegramNotifier{api: sender}

	if err := n.Deliver(context.Background(), "12345", sampleNotification()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d attempts, want 2", len(sender.sent))
	}

	retry, ok := sender.sent[1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("retry sent %T, want MessageConfig", sender.sent[1])
	}
	if retry.ParseMode != "" {
		t.Errorf("retry ParseMode = %q, want plain text", retry.ParseMode)
	}
	if first := sender.sent[0].(tgbotapi.MessageConfig); retry.Text != first.Text {
		t.Errorf("retry text differs from original")
	}
}

func TestTelegramNotifier_PlainTextRetryFailureReported(t *testing.T) {
	sender := &seqSender{errs: []error{
		&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"},
		&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"},
	}}
	n := &TelegramNotifier{api: sender}

	err := n.Deliver(context.Background(), "12345", sampleNotification())
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Deliver() error = %v, want DeliveryError", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d attempts, want 2", len(sender.sent))
	}
}

func TestRenderMessage(t *testing.T) {
	text := RenderMessage(sampleNotification())

	for _, want := range []string{
		"New Video Published",
		"New: My Video",
		"*Channel:* My Channel",
		"*Published:* 30 Aug 2026 12:00 UTC",
		"[thumbnail](https://i.ytimg.com/vi/v1/hqdefault.jpg)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("RenderMessage() missing %q:\n%s", want, text)
		}
	}

	// URL already present in the body is not appended twice.
	if got := strings.Count(text, "https://www.youtube.com/watch?v=v1"); got != 1 {
		t.Errorf("watch URL appears %d times, want 1", got)
	}
}

func TestRenderMessage_EscapesChannelTitle(t *testing.T) {
	n := sampleNotification()
	n.ChannelTitle = "my_channel"

	if text := RenderMessage(n); !strings.Contains(text, "my\\_channel") {
		t.Errorf("RenderMessage() did not escape channel title:\n%s", text)
	}
}
