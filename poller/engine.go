// Package poller runs the recurring new-upload checks against followed
// channels and decides which uploads get announced.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ytnotify/notify"
	"ytnotify/store"
	"ytnotify/youtube"
)

// DefaultRecencyFactor bounds the lookback window to this many polling
// periods. Two periods tolerate one missed or late cycle without
// resurfacing older uploads as new.
const DefaultRecencyFactor = 2

// DefaultCallTimeout bounds each per-channel platform call so a hung call
// cannot stall the rest of the cycle or the next one.
const DefaultCallTimeout = 30 * time.Second

// SourceClient is the slice of the platform query surface the engine needs.
type SourceClient interface {
	Lookup(ctx context.Context, channelID string) (*youtube.ChannelInfo, error)
	LatestUpload(ctx context.Context, channelID string) (*youtube.Upload, error)
}

// Engine runs one upload check per followed channel per cycle. It holds no
// state of its own between cycles; everything durable lives in the store.
type Engine struct {
	store    *store.Store
	source   SourceClient
	notifier notify.Notifier
	logger   *slog.Logger

	// RecencyFactor is the lookback window in polling periods.
	RecencyFactor int
	// CallTimeout bounds each external call.
	CallTimeout time.Duration

	now func() time.Time
}

// New creates an engine over the given collaborators.
func New(s *store.Store, source SourceClient, notifier notify.Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		store:         s,
		source:        source,
		notifier:      notifier,
		logger:        logger,
		RecencyFactor: DefaultRecencyFactor,
		CallTimeout:   DefaultCallTimeout,
		now:           time.Now,
	}
}

// RunCycle checks every followed channel once. Failures on one channel are
// logged and never abort the rest of the cycle. When no notification chat
// is configured the checks still run and advance the dedup watermarks, but
// nothing is delivered.
func (e *Engine) RunCycle(ctx context.Context) {
	channels := e.store.Channels()
	if len(channels) == 0 {
		e.logger.Debug("no channels followed, skipping cycle")
		return
	}

	cycle := uuid.NewString()[:8]
	chatID := e.store.NotifyChatID()
	if chatID == "" {
		e.logger.Info("no notification chat configured, checking without delivery", "cycle", cycle)
	}
	e.logger.Info("cycle started", "cycle", cycle, "channels", len(channels))

	for _, id := range channels {
		if ctx.Err() != nil {
			e.logger.Warn("cycle canceled", "cycle", cycle)
			return
		}
		e.checkChannel(ctx, cycle, chatID, id)
	}

	e.logger.Info("cycle completed", "cycle", cycle)
}

func (e *Engine) checkChannel(ctx context.Context, cycle, chatID, id string) {
	callCtx, cancel := context.WithTimeout(ctx, e.CallTimeout)
	defer cancel()

	up, err := e.source.LatestUpload(callCtx, id)
	if err != nil {
		e.logger.Error("latest upload check failed", "cycle", cycle, "channel", id, "error", err)
		return
	}
	if up == nil {
		e.logger.Debug("channel has no uploads", "cycle", cycle, "channel", id)
		return
	}

	// Opportunistic name refresh from the upload metadata.
	if up.ChannelTitle != "" {
		if cached, ok := e.store.ChannelName(id); !ok || cached != up.ChannelTitle {
			if err := e.store.SetChannelName(id, up.ChannelTitle); err != nil {
				e.logger.Error("name cache update failed", "cycle", cycle, "channel", id, "error", err)
			}
		}
	}

	window := time.Duration(e.RecencyFactor) * e.store.CheckInterval()
	age := e.now().Sub(up.Published)
	if age >= window {
		e.logger.Debug("latest upload outside recency window",
			"cycle", cycle, "channel", id, "video", up.VideoID, "age", age)
		return
	}

	if e.store.LastVideoID(id) == up.VideoID {
		e.logger.Debug("upload already announced", "cycle", cycle, "channel", id, "video", up.VideoID)
		return
	}

	// Commit the watermark before attempting delivery: a failed send must
	// not produce a duplicate announcement on the next cycle.
	if err := e.store.RecordSeen(id, up.VideoID); err != nil {
		e.logger.Error("watermark persist failed", "cycle", cycle, "channel", id, "error", err)
		return
	}

	if chatID == "" {
		e.logger.Info("new upload recorded without delivery",
			"cycle", cycle, "channel", id, "video", up.VideoID)
		return
	}

	n := notify.Notification{
		Title:        up.Title,
		Body:         notify.ExpandTemplate(e.store.MessageTemplate(), notify.EscapeMarkdown(up.Title), up.URL),
		ChannelTitle: up.ChannelTitle,
		Published:    up.Published,
		URL:          up.URL,
		ThumbnailURL: up.ThumbnailURL,
	}
	if err := e.notifier.Deliver(ctx, chatID, n); err != nil {
		e.logger.Error("notification delivery failed",
			"cycle", cycle, "channel", id, "video", up.VideoID, "error", err)
		return
	}

	e.logger.Info("notification sent", "cycle", cycle, "channel", id, "video", up.VideoID)
}

// ReconcileNames resolves and caches display names for followed channels
// that have none yet. Idempotent; run at startup and safe to run any time.
func (e *Engine) ReconcileNames(ctx context.Context) {
	for _, id := range e.store.Channels() {
		if _, ok := e.store.ChannelName(id); ok {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, e.CallTimeout)
		info, err := e.source.Lookup(callCtx, id)
		cancel()
		if err != nil {
			e.logger.Error("name lookup failed", "channel", id, "error", err)
			continue
		}
		if info.Title == "" {
			continue
		}
		if err := e.store.SetChannelName(id, info.Title); err != nil {
			e.logger.Error("name cache update failed", "channel", id, "error", err)
			continue
		}
		e.logger.Info("channel name resolved", "channel", id, "name", info.Title)
	}
}
