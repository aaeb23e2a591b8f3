// Package store persists the bot's settings and per-channel dedup state
// as a single JSON document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// Defaults applied when the settings file does not exist yet or a field
// is missing from an older document.
const (
	DefaultIntervalMinutes = 10
	DefaultTemplate        = "@everyone New video published: **{title}** {url}"
)

// Sentinel errors for common store conditions.
var (
	// ErrCorrupt indicates the settings file exists but cannot be parsed.
	// Callers must treat this as fatal at startup rather than resetting
	// the file, so follow state is never silently discarded.
	ErrCorrupt = errors.New("store: settings file corrupt")
	// ErrLockTimeout indicates a timeout acquiring the store file lock.
	ErrLockTimeout = errors.New("store: lock acquisition timeout")
	// ErrInvalidInterval indicates a check interval below one minute.
	ErrInvalidInterval = errors.New("store: check interval must be at least 1 minute")
	// ErrEmptyTemplate indicates an empty message template.
	ErrEmptyTemplate = errors.New("store: message template must not be empty")
)

// StoreError wraps store errors with operation context.
//
//	var serr *store.StoreError
//	if errors.As(err, &serr) {
//		fmt.Printf("settings %s failed: %v\n", serr.Op, serr.Err)
//	}
type StoreError struct {
	// Op is the operation that failed ("load", "save", "lock").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AddResult is the outcome of AddChannel.
type AddResult int

const (
	Added AddResult = iota
	AlreadyFollowed
)

// RemoveResult is the outcome of RemoveChannel.
type RemoveResult int

const (
	Removed RemoveResult = iota
	NotFollowed
)

// Settings is the persisted configuration document. Unknown fields in an
// existing file are ignored on load; missing fields fall back to defaults,
// so the document stays forward-readable across versions.
type Settings struct {
	SchemaVersion string    `json:"schema_version"`
	UpdatedAt     time.Time `json:"updated_at"`

	// NotifyChatID is the notification destination. Empty means unset:
	// polling still runs and updates dedup state, but nothing is delivered.
	NotifyChatID string `json:"notify_chat_id,omitempty"`

	// Channels lists followed channel ids in insertion order.
	Channels []string `json:"channels"`

	// ChannelNames caches display names per channel id, best effort.
	ChannelNames map[string]string `json:"channel_names"`

	// CheckIntervalMin is the polling cadence in minutes, at least 1.
	CheckIntervalMin int `json:"check_interval_min"`

	// MessageTemplate may contain the literal tokens {title} and {url}.
	MessageTemplate string `json:"message_template"`

	// LastVideoIDs holds the dedup watermark per channel id. A missing or
	// empty entry means no upload has been seen for that channel yet.
	LastVideoIDs map[string]string `json:"last_video_ids"`
}

// Store is the single writable settings instance for the process.
// All mutations persist synchronously with a whole-document atomic replace.
// Safe for concurrent use.
type Store struct {
	path string
	lock *FileLock
	mu   sync.Mutex
	data *Settings
}

// Open loads the settings document at path, creating it with defaults if it
// does not exist. A file lock guards against a second running instance.
// A present but unparseable file returns ErrCorrupt.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		lock: NewFileLock(path),
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	s.mu.Lock()
	err := s.load()
	s.mu.Unlock()
	if err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = defaultSettings()
			// Persist immediately to catch permission errors early.
			return s.save()
		}
		return &StoreError{Op: "load", Err: err}
	}

	s.data = &Settings{}
	if err := json.Unmarshal(raw, s.data); err != nil {
		return &StoreError{Op: "load", Err: ErrCorrupt}
	}
	s.normalize()

	return nil
}

// normalize fills fields missing from older documents.
func (s *Store) normalize() {
	if s.data.SchemaVersion == "" {
		s.data.SchemaVersion = schemaVersion
	}
	if s.data.ChannelNames == nil {
		s.data.ChannelNames = make(map[string]string)
	}
	if s.data.LastVideoIDs == nil {
		s.data.LastVideoIDs = make(map[string]string)
	}
	if s.data.CheckIntervalMin < 1 {
		s.data.CheckIntervalMin = DefaultIntervalMinutes
	}
	if s.data.MessageTemplate == "" {
		s.data.MessageTemplate = DefaultTemplate
	}
}

// save writes the document to disk atomically. Callers hold s.mu.
func (s *Store) save() error {
	s.data.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.Abort()
		return &StoreError{Op: "save", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StoreError{Op: "save", Err: err}
	}

	return nil
}

// Close releases the store file lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Unlock()
}

func defaultSettings() *Settings {
	return &Settings{
		SchemaVersion:    schemaVersion,
		Channels:         []string{},
		ChannelNames:     make(map[string]string),
		CheckIntervalMin: DefaultIntervalMinutes,
		MessageTemplate:  DefaultTemplate,
		LastVideoIDs:     make(map[string]string),
	}
}

// --- read accessors ---

// Snapshot returns a deep copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.data
	out.Channels = append([]string(nil), s.data.Channels...)
	out.ChannelNames = make(map[string]string, len(s.data.ChannelNames))
	for k, v := range s.data.ChannelNames {
		out.ChannelNames[k] = v
	}
	out.LastVideoIDs = make(map[string]string, len(s.data.LastVideoIDs))
	for k, v := range s.data.LastVideoIDs {
		out.LastVideoIDs[k] = v
	}
	return out
}

// NotifyChatID returns the notification destination, empty if unset.
func (s *Store) NotifyChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.NotifyChatID
}

// Channels returns the followed channel ids in insertion order.
func (s *Store) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.data.Channels...)
}

// ChannelName returns the cached display name for a channel id.
func (s *Store) ChannelName(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.data.ChannelNames[id]
	return name, ok
}

// CheckInterval returns the polling cadence.
func (s *Store) CheckInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.data.CheckIntervalMin) * time.Minute
}

// MessageTemplate returns the notification template.
func (s *Store) MessageTemplate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.MessageTemplate
}

// LastVideoID returns the dedup watermark for a channel id, empty if no
// upload has been seen yet.
func (s *Store) LastVideoID(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastVideoIDs[id]
}

// --- mutations ---

// AddChannel starts following a channel id. Adding an id that is already
// followed is a no-op reported as AlreadyFollowed.
func (s *Store) AddChannel(id string) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Channels {
		if existing == id {
			return AlreadyFollowed, nil
		}
	}

	s.data.Channels = append(s.data.Channels, id)
	if err := s.save(); err != nil {
		s.data.Channels = s.data.Channels[:len(s.data.Channels)-1]
		return Added, err
	}
	return Added, nil
}

// RemoveChannel stops following a channel id and drops its cached name and
// watermark in the same persisted write.
func (s *Store) RemoveChannel(id string) (RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, existing := range s.data.Channels {
		if existing == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return NotFollowed, nil
	}

	prevChannels := append([]string(nil), s.data.Channels...)
	prevName, hadName := s.data.ChannelNames[id]
	prevMark, hadMark := s.data.LastVideoIDs[id]

	s.data.Channels = append(s.data.Channels[:idx], s.data.Channels[idx+1:]...)
	delete(s.data.ChannelNames, id)
	delete(s.data.LastVideoIDs, id)
	if err := s.save(); err != nil {
		s.data.Channels = prevChannels
		if hadName {
			s.data.ChannelNames[id] = prevName
		}
		if hadMark {
			s.data.LastVideoIDs[id] = prevMark
		}
		return Removed, err
	}
	return Removed, nil
}

// SetNotifyChat sets the notification destination.
func (s *Store) SetNotifyChat(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.NotifyChatID
	s.data.NotifyChatID = chatID
	if err := s.save(); err != nil {
		s.data.NotifyChatID = prev
		return err
	}
	return nil
}

// ClearNotifyChat unsets the notification destination. The boolean reports
// whether a destination was actually cleared.
func (s *Store) ClearNotifyChat() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.NotifyChatID == "" {
		return false, nil
	}

	prev := s.data.NotifyChatID
	s.data.NotifyChatID = ""
	if err := s.save(); err != nil {
		s.data.NotifyChatID = prev
		return true, err
	}
	return true, nil
}

// SetTemplate replaces the notification message template.
func (s *Store) SetTemplate(tmpl string) error {
	if tmpl == "" {
		return ErrEmptyTemplate
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.MessageTemplate
	s.data.MessageTemplate = tmpl
	if err := s.save(); err != nil {
		s.data.MessageTemplate = prev
		return err
	}
	return nil
}

// SetInterval sets the polling cadence in minutes, at least 1.
func (s *Store) SetInterval(minutes int) error {
	if minutes < 1 {
		return ErrInvalidInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.CheckIntervalMin
	s.data.CheckIntervalMin = minutes
	if err := s.save(); err != nil {
		s.data.CheckIntervalMin = prev
		return err
	}
	return nil
}

// SetChannelName refreshes the cached display name for a followed channel.
// A no-op for ids that are not followed, so a name refresh racing a remove
// cannot resurrect a deleted entry.
func (s *Store) SetChannelName(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.followsLocked(id) {
		return nil
	}
	if s.data.ChannelNames[id] == name {
		return nil
	}

	prev, had := s.data.ChannelNames[id]
	s.data.ChannelNames[id] = name
	if err := s.save(); err != nil {
		if had {
			s.data.ChannelNames[id] = prev
		} else {
			delete(s.data.ChannelNames, id)
		}
		return err
	}
	return nil
}

// RecordSeen sets the dedup watermark for a followed channel. A no-op for
// ids that are not followed.
func (s *Store) RecordSeen(id, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.followsLocked(id) {
		return nil
	}

	prev, had := s.data.LastVideoIDs[id]
	s.data.LastVideoIDs[id] = videoID
	if err := s.save(); err != nil {
		if had {
			s.data.LastVideoIDs[id] = prev
		} else {
			delete(s.data.LastVideoIDs, id)
		}
		return err
	}
	return nil
}

func (s *Store) followsLocked(id string) bool {
	for _, existing := range s.data.Channels {
		if existing == id {
			return true
		}
	}
	return false
}
