package bot

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytnotify/notify"
	"ytnotify/store"
	"ytnotify/youtube"
)

type fakeSource struct {
	infos   map[string]*youtube.ChannelInfo
	uploads map[string]*youtube.Upload
	hits    []youtube.ChannelSummary
	err     error
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]youtube.ChannelSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeSource) Lookup(ctx context.Context, channelID string) (*youtube.ChannelInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[channelID]
	if !ok {
		return nil, youtube.ErrChannelNotFound
	}
	return info, nil
}

func (f *fakeSource) LatestUpload(ctx context.Context, channelID string) (*youtube.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.uploads[channelID], nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Deliver(ctx context.Context, chatID string, n notify.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

type fakeSched struct {
	intervals []time.Duration
}

func (f *fakeSched) Reschedule(interval time.Duration) {
	f.intervals = append(f.intervals, interval)
}

func newTestFront(t *testing.T) (*Front, *store.Store, *fakeSource, *fakeNotifier, *fakeSched) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "ytnotify.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	src := &fakeSource{
		infos: map[string]*youtube.ChannelInfo{
			"UC111": {ID: "UC111", Title: "First Channel"},
		},
		uploads: map[string]*youtube.Upload{},
	}
	nt := &fakeNotifier{}
	sched := &fakeSched{}
	f := &Front{
		store:    s,
		source:   src,
		notifier: nt,
		sched:    sched,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return f, s, src, nt, sched
}

func TestAddFollowsAndCachesName(t *testing.T) {
	f, s, _, _, _ := newTestFront(t)

	res := f.Add(context.Background(), "UC111")
	if res.Kind != KindOK {
		t.Fatalf("Add() = %+v, want ok", res)
	}
	if got := s.Channels(); len(got) != 1 || got[0] != "UC111" {
		t.Errorf("Channels() = %v, want [UC111]", got)
	}
	if name, _ := s.ChannelName("UC111"); name != "First Channel" {
		t.Errorf("ChannelName() = %q, want %q", name, "First Channel")
	}
}

func TestAddUnknownChannel(t *testing.T) {
	f, s, _, _, _ := newTestFront(t)

	res := f.Add(context.Background(), "UC404")
	if res.Kind != KindError {
		t.Fatalf("Add() = %+v, want error", res)
	}
	if got := s.Channels(); len(got) != 0 {
		t.Errorf("Channels() = %v, want empty", got)
	}
}

func TestAddDuplicateWarns(t *testing.T) {
	f, _, _, _, _ := newTestFront(t)

	f.Add(context.Background(), "UC111")
	res := f.Add(context.Background(), "UC111")
	if res.Kind != KindWarn {
		t.Fatalf("Add() second call = %+v, want warn", res)
	}
}

func TestRemove(t *testing.T) {
	f, s, _, _, _ := newTestFront(t)
	f.Add(context.Background(), "UC111")

	res := f.Remove("UC111")
	if res.Kind != KindOK {
		t.Fatalf("Remove() = %+v, want ok", res)
	}
	if !strings.Contains(res.Text, "First Channel") {
		t.Errorf("Remove() text = %q, want cached channel name", res.Text)
	}
	if got := s.Channels(); len(got) != 0 {
		t.Errorf("Channels() = %v, want empty", got)
	}

	if res := f.Remove("UC111"); res.Kind != KindWarn {
		t.Errorf("Remove() unfollowed = %+v, want warn", res)
	}
}

func TestListEmptyAndPopulated(t *testing.T) {
	f, _, _, _, _ := newTestFront(t)

	if res := f.List(); res.Kind != KindWarn {
		t.Errorf("List() empty = %+v, want warn", res)
	}

	f.Add(context.Background(), "UC111")
	res := f.List()
	if res.Kind != KindOK {
		t.Fatalf("List() = %+v, want ok", res)
	}
	if !strings.Contains(res.Text, "First Channel") || !strings.Contains(res.Text, "UC111") {
		t.Errorf("List() text = %q, want name and id", res.Text)
	}
}

func TestFind(t *testing.T) {
	f, _, src, _, _ := newTestFront(t)
	src.hits = []youtube.ChannelSummary{{ID: "UC111", Title: "First Channel"}}

	res := f.Find(context.Background(), "first")
	if res.Kind != KindOK || !strings.Contains(res.Text, "UC111") {
		t.Fatalf("Find() = %+v, want ok with channel id", res)
	}

	src.hits = nil
	if res := f.Find(context.Background(), "nothing"); res.Kind != KindWarn {
		t.Errorf("Find() no hits = %+v, want warn", res)
	}

	src.err = youtube.ErrSearchUnsupported
	if res := f.Find(context.Background(), "first"); res.Kind != KindWarn {
		t.Errorf("Find() unsupported = %+v, want warn", res)
	}
}

func TestSetAndClearChannel(t *testing.T) {
	f, s, _, _, _ := newTestFront(t)

	if res := f.SetChannel("9001"); res.Kind != KindOK {
		t.Fatalf("SetChannel() = %+v, want ok", res)
	}
	if got := s.NotifyChatID(); got != "9001" {
		t.Errorf("NotifyChatID() = %q, want %q", got, "9001")
	}

	if res := f.ClearChannel(); res.Kind != KindOK {
		t.Fatalf("ClearChannel() = %+v, want ok", res)
	}
	if res := f.ClearChannel(); res.Kind != KindWarn {
		t.Errorf("ClearChannel() second call = %+v, want warn", res)
	}
}

func TestSetMessage(t *testing.T) {
	f, s, _, _, _ := newTestFront(t)

	if res := f.SetMessage("New: {title} {url}"); res.Kind != KindOK {
		t.Fatalf("SetMessage() = %+v, want ok", res)
	}
	if got := s.MessageTemplate(); got != "New: {title} {url}" {
		t.Errorf("MessageTemplate() = %q", got)
	}
}

func TestSetInterval(t *testing.T) {
	f, s, _, _, sched := newTestFront(t)

	if res := f.SetInterval("5"); res.Kind != KindOK {
		t.Fatalf("SetInterval() = %+v, want ok", res)
	}
	if got := s.CheckInterval(); got != 5*time.Minute {
		t.Errorf("CheckInterval() = %v, want 5m", got)
	}
	if len(sched.intervals) != 1 || sched.intervals[0] != 5*time.Minute {
		t.Errorf("Reschedule calls = %v, want [5m]", sched.intervals)
	}

	if res := f.SetInterval("0"); res.Kind != KindError {
		t.Errorf("SetInterval(0) = %+v, want error", res)
	}
	if res := f.SetInterval("soon"); res.Kind != KindError {
		t.Errorf("SetInterval(soon) = %+v, want error", res)
	}
	if len(sched.intervals) != 1 {
		t.Errorf("Reschedule called on invalid input")
	}
}

func TestTestChannelProbe(t *testing.T) {
	f, s, _, nt, _ := newTestFront(t)

	if res := f.Test(context.Background(), "channel", ""); res.Kind != KindWarn {
		t.Errorf("Test(channel) without chat = %+v, want warn", res)
	}

	s.SetNotifyChat("9001")
	if res := f.Test(context.Background(), "channel", ""); res.Kind != KindOK {
		t.Fatalf("Test(channel) = %+v, want ok", res)
	}
	if len(nt.sent) != 1 || nt.sent[0] != "9001" {
		t.Errorf("delivered to %v, want [9001]", nt.sent)
	}
}

func TestTestMessageRendersTemplate(t *testing.T) {
	f, s, _, _, _ := newTestFront(t)
	s.SetTemplate("Watch {title} here: {url}")

	res := f.Test(context.Background(), "message", "")
	if res.Kind != KindOK {
		t.Fatalf("Test(message) = %+v, want ok", res)
	}
	if !strings.Contains(res.Text, "Watch Sample Video Title here:") {
		t.Errorf("Test(message) text = %q, want expanded template", res.Text)
	}
}

func TestTestChannelLookup(t *testing.T) {
	f, _, src, _, _ := newTestFront(t)
	src.uploads["UC111"] = &youtube.Upload{
		VideoID:   "vid1",
		Title:     "Latest Upload",
		Published: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		URL:       "https://www.youtube.com/watch?v=vid1",
	}

	res := f.Test(context.Background(), "channel_test", "UC111")
	if res.Kind != KindOK || !strings.Contains(res.Text, "Latest Upload") {
		t.Fatalf("Test(channel_test) = %+v, want ok with upload title", res)
	}

	src.uploads["UC111"] = nil
	if res := f.Test(context.Background(), "channel_test", "UC111"); res.Kind != KindWarn {
		t.Errorf("Test(channel_test) no uploads = %+v, want warn", res)
	}

	if res := f.Test(context.Background(), "channel_test", ""); res.Kind != KindError {
		t.Errorf("Test(channel_test) without id = %+v, want error", res)
	}
}

func TestTestAllAggregatesWorstKind(t *testing.T) {
	f, s, _, nt, _ := newTestFront(t)
	s.SetNotifyChat("9001")

	if res := f.Test(context.Background(), "all", ""); res.Kind != KindOK {
		t.Errorf("Test(all) = %+v, want ok", res)
	}

	nt.err = context.DeadlineExceeded
	res := f.Test(context.Background(), "all", "")
	if res.Kind != KindError {
		t.Errorf("Test(all) with failing delivery = %+v, want error", res)
	}
	if !strings.Contains(res.Text, "api") || !strings.Contains(res.Text, "channel") {
		t.Errorf("Test(all) text = %q, want per-check lines", res.Text)
	}
}

func TestUnknownTestKind(t *testing.T) {
	f, _, _, _, _ := newTestFront(t)
	if res := f.Test(context.Background(), "bogus", ""); res.Kind != KindError {
		t.Errorf("Test(bogus) = %+v, want error", res)
	}
}
