// Package bot implements the interactive command surface: following and
// unfollowing channels, notification settings, and diagnostic checks.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ytnotify/notify"
	"ytnotify/store"
	"ytnotify/youtube"
)

// ResultKind classifies a command outcome for rendering.
type ResultKind int

const (
	KindOK ResultKind = iota
	KindWarn
	KindError
)

// Result is the structured outcome of one command: a kind for rendering
// plus human-readable text. Benign conditions (already followed, nothing
// to remove) are warnings, not errors.
type Result struct {
	Kind ResultKind
	Text string
}

func ok(format string, args ...any) Result {
	return Result{Kind: KindOK, Text: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...any) Result {
	return Result{Kind: KindWarn, Text: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Kind: KindError, Text: fmt.Sprintf(format, args...)}
}

// Rescheduler is the slice of the polling scheduler the front needs.
type Rescheduler interface {
	Reschedule(interval time.Duration)
}

const helpText = `YouTube notification bot commands:
/add <channel_id> - follow a channel
/remove <channel_id> - unfollow a channel
/list - show followed channels
/find <query> - search channels by name
/setchannel - send notifications to this chat
/removechannel - stop sending notifications
/setmessage <template> - set the message template ({title} and {url} placeholders)
/interval <minutes> - set the check interval (minimum 1)
/test <channel|api|message|all|channel_test> [channel_id] - diagnostics`

// Front wires chat commands to the store, the platform client, and the
// scheduler. It contains no polling logic of its own.
type Front struct {
	api      *tgbotapi.BotAPI
	store    *store.Store
	source   youtube.Source
	notifier notify.Notifier
	sched    Rescheduler
	logger   *slog.Logger
}

// New creates the command front.
func New(api *tgbotapi.BotAPI, s *store.Store, source youtube.Source, notifier notify.Notifier, sched Rescheduler, logger *slog.Logger) *Front {
	return &Front{
		api:      api,
		store:    s,
		source:   source,
		notifier: notifier,
		sched:    sched,
		logger:   logger,
	}
}

// Run consumes bot updates until the context is canceled. Each command is
// handled synchronously so command mutations and cycle mutations serialize
// through the store, never racing each other on the same entry.
func (f *Front) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := f.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			f.api.StopReceivingUpdates()
			return
		case upd, okc := <-updates:
			if !okc {
				return
			}
			if upd.Message == nil || upd.Message.Text == "" {
				continue
			}
			f.handle(ctx, upd.Message)
		}
	}
}

func (f *Front) handle(ctx context.Context, msg *tgbotapi.Message) {
	parts := strings.Fields(msg.Text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "/") {
		return
	}
	cmd := strings.TrimPrefix(parts[0], "/")
	// Strip the bot mention used in groups: /add@mybot
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	args := parts[1:]
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	if mutating[cmd] && !f.allowed(msg) {
		f.reply(msg.Chat.ID, fail("Only group administrators can change bot settings."))
		return
	}

	var res Result
	switch cmd {
	case "start", "help":
		res = ok("%s", helpText)
	case "add":
		if len(args) < 1 {
			res = fail("Usage: /add <channel_id>")
			break
		}
		res = f.Add(ctx, args[0])
	case "remove":
		if len(args) < 1 {
			res = fail("Usage: /remove <channel_id>")
			break
		}
		res = f.Remove(args[0])
	case "list":
		res = f.List()
	case "find":
		if len(args) < 1 {
			res = fail("Usage: /find <query>")
			break
		}
		res = f.Find(ctx, strings.Join(args, " "))
	case "setchannel":
		res = f.SetChannel(chatID)
	case "removechannel":
		res = f.ClearChannel()
	case "setmessage":
		if len(args) < 1 {
			res = fail("Usage: /setmessage <template>")
			break
		}
		res = f.SetMessage(strings.Join(args, " "))
	case "interval":
		if len(args) < 1 {
			res = fail("Usage: /interval <minutes>")
			break
		}
		res = f.SetInterval(args[0])
	case "test":
		if len(args) < 1 {
			res = fail("Usage: /test <channel|api|message|all|channel_test> [channel_id]")
			break
		}
		extra := ""
		if len(args) > 1 {
			extra = args[1]
		}
		res = f.Test(ctx, args[0], extra)
	default:
		return
	}

	f.reply(msg.Chat.ID, res)
}

// mutating marks the commands that change bot settings. In group chats
// these require administrator rights, matching who can reconfigure the
// group itself.
var mutating = map[string]bool{
	"add":           true,
	"remove":        true,
	"setchannel":    true,
	"removechannel": true,
	"setmessage":    true,
	"interval":      true,
}

func (f *Front) allowed(msg *tgbotapi.Message) bool {
	if msg.Chat.IsPrivate() {
		return true
	}
	if msg.From == nil {
		return false
	}

	member, err := f.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: msg.Chat.ID,
			UserID: msg.From.ID,
		},
	})
	if err != nil {
		f.logger.Error("chat member lookup failed", "chat", msg.Chat.ID, "user", msg.From.ID, "error", err)
		return false
	}
	return member.IsAdministrator() || member.IsCreator()
}

func (f *Front) reply(chatID int64, res Result) {
	prefix := "✅ "
	switch res.Kind {
	case KindWarn:
		prefix = "⚠️ "
	case KindError:
		prefix = "❌ "
	}

	msg := tgbotapi.NewMessage(chatID, prefix+res.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := f.api.Send(msg); err != nil {
		f.logger.Error("reply failed", "chat", chatID, "error", err)
	}
}

// Add follows a channel id after resolving its display metadata, so a typo
// never enters the follow list.
func (f *Front) Add(ctx context.Context, id string) Result {
	info, err := f.source.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			return fail("No channel found with id `%s`.", notify.EscapeMarkdown(id))
		}
		return fail("Channel lookup failed: %v", err)
	}

	res, err := f.store.AddChannel(id)
	if err != nil {
		return fail("Could not save the channel: %v", err)
	}
	if res == store.AlreadyFollowed {
		return warn("Channel *%s* is already being followed.", notify.EscapeMarkdown(info.Title))
	}

	if err := f.store.SetChannelName(id, info.Title); err != nil {
		f.logger.Error("name cache update failed", "channel", id, "error", err)
	}
	return ok("Now following *%s* (`%s`).", notify.EscapeMarkdown(info.Title), id)
}

// Remove unfollows a channel id.
func (f *Front) Remove(id string) Result {
	name, _ := f.store.ChannelName(id)
	if name == "" {
		name = id
	}

	res, err := f.store.RemoveChannel(id)
	if err != nil {
		return fail("Could not remove the channel: %v", err)
	}
	if res == store.NotFollowed {
		return warn("Channel `%s` is not being followed.", notify.EscapeMarkdown(id))
	}
	return ok("Stopped following *%s*.", notify.EscapeMarkdown(name))
}

// List shows the followed channels in the order they were added.
func (f *Front) List() Result {
	channels := f.store.Channels()
	if len(channels) == 0 {
		return warn("No channels are being followed. Use /add to follow one.")
	}

	var b strings.Builder
	b.WriteString("Followed channels:\n")
	for _, id := range channels {
		name, okc := f.store.ChannelName(id)
		if !okc {
			name = "Unknown Channel"
		}
		fmt.Fprintf(&b, "• *%s* (`%s`)\n", notify.EscapeMarkdown(name), id)
	}
	return ok("%s", strings.TrimRight(b.String(), "\n"))
}

// Find searches channels by free text.
func (f *Front) Find(ctx context.Context, query string) Result {
	hits, err := f.source.Search(ctx, query)
	if err != nil {
		if errors.Is(err, youtube.ErrSearchUnsupported) {
			return warn("The configured video source cannot search. Add channels by id with /add.")
		}
		return fail("Search failed: %v", err)
	}
	if len(hits) == 0 {
		return warn("No channels match `%s`.", notify.EscapeMarkdown(query))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Channels matching `%s`:\n", notify.EscapeMarkdown(query))
	for _, h := range hits {
		fmt.Fprintf(&b, "• *%s* (`%s`)\n", notify.EscapeMarkdown(h.Title), h.ID)
	}
	return ok("%s", strings.TrimRight(b.String(), "\n"))
}

// SetChannel directs notifications at the given chat.
func (f *Front) SetChannel(chatID string) Result {
	if err := f.store.SetNotifyChat(chatID); err != nil {
		return fail("Could not save the notification chat: %v", err)
	}
	return ok("Notifications will be sent to this chat.")
}

// ClearChannel unsets the notification destination.
func (f *Front) ClearChannel() Result {
	cleared, err := f.store.ClearNotifyChat()
	if err != nil {
		return fail("Could not clear the notification chat: %v", err)
	}
	if !cleared {
		return warn("No notification chat is set.")
	}
	return ok("Notifications are now disabled. Use /setchannel to enable them again.")
}

// SetMessage replaces the notification template.
func (f *Front) SetMessage(tmpl string) Result {
	if err := f.store.SetTemplate(tmpl); err != nil {
		return fail("Could not save the template: %v", err)
	}
	return ok("New message template:\n%s", tmpl)
}

// SetInterval changes the polling cadence and reschedules the running timer.
func (f *Front) SetInterval(arg string) Result {
	minutes, err := strconv.Atoi(arg)
	if err != nil {
		return fail("Interval must be a whole number of minutes.")
	}
	if err := f.store.SetInterval(minutes); err != nil {
		if errors.Is(err, store.ErrInvalidInterval) {
			return fail("Interval must be at least 1 minute.")
		}
		return fail("Could not save the interval: %v", err)
	}

	f.sched.Reschedule(time.Duration(minutes) * time.Minute)
	return ok("Check interval set to %d minutes.", minutes)
}
