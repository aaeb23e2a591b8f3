package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ytnotify/notify"
	"ytnotify/youtube"
)

// Test runs a diagnostic probe. Supported kinds: channel (send a probe
// message to the configured chat), api (one search round trip), message
// (render the template with sample values), channel_test (lookup plus
// latest upload preview for a channel id), all (every check, aggregated).
func (f *Front) Test(ctx context.Context, kind, arg string) Result {
	switch kind {
	case "channel":
		return f.testChannel(ctx)
	case "api":
		return f.testAPI(ctx)
	case "message":
		return f.testMessage()
	case "channel_test":
		if arg == "" {
			return fail("Usage: /test channel_test <channel_id>")
		}
		return f.testChannelLookup(ctx, arg)
	case "all":
		return f.testAll(ctx)
	default:
		return fail("Unknown test `%s`. Use channel, api, message, channel_test or all.", notify.EscapeMarkdown(kind))
	}
}

func (f *Front) testChannel(ctx context.Context) Result {
	chatID := f.store.NotifyChatID()
	if chatID == "" {
		return warn("No notification chat is set. Use /setchannel first.")
	}

	n := notify.Notification{
		Title:        "Test Notification",
		Body:         "This is a test message to verify the notification chat works.",
		ChannelTitle: "Notification Bot",
		Published:    time.Now(),
		URL:          "https://www.youtube.com",
	}
	if err := f.notifier.Deliver(ctx, chatID, n); err != nil {
		return fail("Probe delivery failed: %v", err)
	}
	return ok("Probe message delivered to the notification chat.")
}

func (f *Front) testAPI(ctx context.Context) Result {
	hits, err := f.source.Search(ctx, "music")
	if err != nil {
		if errors.Is(err, youtube.ErrSearchUnsupported) {
			return warn("The configured video source cannot search, so the API check is limited. Feed fetches are tested per channel with /test channel_test.")
		}
		return fail("API check failed: %v", err)
	}
	return ok("API is reachable (%d search results).", len(hits))
}

func (f *Front) testMessage() Result {
	body := notify.ExpandTemplate(f.store.MessageTemplate(), "Sample Video Title", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	return ok("Rendered template:\n%s", body)
}

func (f *Front) testChannelLookup(ctx context.Context, id string) Result {
	info, err := f.source.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			return fail("No channel found with id `%s`.", notify.EscapeMarkdown(id))
		}
		return fail("Channel lookup failed: %v", err)
	}

	up, err := f.source.LatestUpload(ctx, id)
	if err != nil {
		return fail("Latest upload lookup for *%s* failed: %v", notify.EscapeMarkdown(info.Title), err)
	}
	if up == nil {
		return warn("Channel *%s* resolved, but it has no uploads yet.", notify.EscapeMarkdown(info.Title))
	}
	return ok("Channel *%s*: latest upload *%s* (%s)\n%s",
		notify.EscapeMarkdown(info.Title),
		notify.EscapeMarkdown(up.Title),
		up.Published.Format("02 Jan 2006 15:04 MST"),
		up.URL)
}

func (f *Front) testAll(ctx context.Context) Result {
	var b strings.Builder
	b.WriteString("Diagnostic report:\n")
	worst := KindOK

	record := func(name string, r Result) {
		marks := map[ResultKind]string{KindOK: "✅", KindWarn: "⚠️", KindError: "❌"}
		fmt.Fprintf(&b, "%s %s: %s\n", marks[r.Kind], name, r.Text)
		if r.Kind > worst {
			worst = r.Kind
		}
	}

	record("api", f.testAPI(ctx))
	record("message", f.testMessage())
	record("channel", f.testChannel(ctx))
	for _, id := range f.store.Channels() {
		record("channel_test "+id, f.testChannelLookup(ctx, id))
	}

	return Result{Kind: worst, Text: strings.TrimRight(b.String(), "\n")}
}
